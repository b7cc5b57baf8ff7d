package employee

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	employeeerrors "go-hrm/internal/employee/errors"
	"go-hrm/internal/events"
	"go-hrm/internal/messaging/kafka"
	"go-hrm/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// Reconciler corrects the cached employee status against the approved-leave
// predicate. It only ever moves rows between 'active' and 'on-leave';
// 'inactive' and 'terminated' are administrative states it must not touch.
type Reconciler interface {
	Reconcile(ctx context.Context, employeeID string, today time.Time) error
	ReconcileAll(ctx context.Context, today time.Time) (int, error)
}

type reconciler struct {
	db     *sql.DB
	repo   Repository
	outbox kafka.OutboxRepository
	group  singleflight.Group
	logger *zap.Logger
}

func NewReconciler(db *sql.DB, repo Repository, outbox kafka.OutboxRepository, logger ...*zap.Logger) Reconciler {
	l := zap.L().Named("employee.reconciler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.reconciler")
	}
	return &reconciler{db: db, repo: repo, outbox: outbox, logger: l}
}

// desiredTransition returns the corrected status, or "" when the row must be
// left alone.
func desiredTransition(current string, onLeave bool) string {
	switch {
	case onLeave && current != StatusOnLeave && current != StatusInactive && current != StatusTerminated:
		return StatusOnLeave
	case !onLeave && current == StatusOnLeave:
		return StatusActive
	default:
		return ""
	}
}

func (r *reconciler) Reconcile(ctx context.Context, employeeID string, today time.Time) error {
	if _, err := uuid.Parse(employeeID); err != nil {
		return employeeerrors.ErrInvalidEmployeeID
	}
	day := today.UTC().Truncate(24 * time.Hour)

	emp, err := r.repo.FindByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return employeeerrors.ErrEmployeeNotFound
		}
		return err
	}

	onLeave, err := r.repo.IsOnApprovedLeave(ctx, employeeID, day)
	if err != nil {
		return err
	}

	to := desiredTransition(emp.Status, onLeave)
	if to == "" {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("reconcile begin tx failed", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	qrepo := r.repo.WithTx(tx)
	applied, err := qrepo.UpdateStatusIf(ctx, employeeID, emp.Status, to)
	if err != nil {
		r.logger.Error("reconcile status update failed",
			zap.String("employee_id", employeeID),
			zap.Error(err),
		)
		return err
	}
	if !applied {
		// Another request already reconciled this row. Nothing to publish.
		return tx.Commit()
	}

	if err := r.writeStatusEvent(ctx, tx, employeeID, emp.Status, to); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		r.logger.Error("reconcile commit failed", zap.Error(err))
		return err
	}

	r.logger.Info("employee status reconciled",
		zap.String("employee_id", employeeID),
		zap.String("from", emp.Status),
		zap.String("to", to),
	)
	return nil
}

// ReconcileAll sweeps every employee in one pass. Concurrent callers for the
// same day share a single sweep through the singleflight group.
func (r *reconciler) ReconcileAll(ctx context.Context, today time.Time) (int, error) {
	day := today.UTC().Truncate(24 * time.Hour)

	res, err, _ := r.group.Do(day.Format("2006-01-02"), func() (any, error) {
		return r.sweep(ctx, day)
	})
	if err != nil {
		return 0, err
	}
	return res.(int), nil
}

func (r *reconciler) sweep(ctx context.Context, day time.Time) (int, error) {
	employees, err := r.repo.FindAllForReconcile(ctx)
	if err != nil {
		return 0, err
	}
	onLeaveIDs, err := r.repo.FindIDsOnApprovedLeave(ctx, day)
	if err != nil {
		return 0, err
	}

	type change struct {
		id   string
		from string
		to   string
	}
	changes := make([]change, 0)
	for _, e := range employees {
		if to := desiredTransition(e.Status, onLeaveIDs[e.ID.String()]); to != "" {
			changes = append(changes, change{id: e.ID.String(), from: e.Status, to: to})
		}
	}
	if len(changes) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("reconcile all begin tx failed", zap.Error(err))
		return 0, err
	}
	defer tx.Rollback()

	qrepo := r.repo.WithTx(tx)
	applied := 0
	for _, c := range changes {
		ok, err := qrepo.UpdateStatusIf(ctx, c.id, c.from, c.to)
		if err != nil {
			r.logger.Error("reconcile all status update failed",
				zap.String("employee_id", c.id),
				zap.Error(err),
			)
			return 0, err
		}
		if !ok {
			continue
		}
		if err := r.writeStatusEvent(ctx, tx, c.id, c.from, c.to); err != nil {
			return 0, err
		}
		applied++
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("reconcile all commit failed", zap.Error(err))
		return 0, err
	}

	r.logger.Info("employee status sweep finished",
		zap.String("day", day.Format("2006-01-02")),
		zap.Int("scanned", len(employees)),
		zap.Int("changed", applied),
	)
	return applied, nil
}

func (r *reconciler) writeStatusEvent(ctx context.Context, tx *sql.Tx, employeeID, from, to string) error {
	if r.outbox == nil {
		return nil
	}

	payload, err := json.Marshal(events.EmployeeStatusChangedEvent{
		EventType:  "employee.status.changed",
		EmployeeID: employeeID,
		OldStatus:  from,
		NewStatus:  to,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	event := kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "employee",
		AggregateID:   employeeID,
		EventType:     "employee.status.changed",
		Topic:         events.EmployeeStatusChangedTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}
	if err := event.Validate(); err != nil {
		return err
	}
	return r.outbox.WithTx(tx).Create(ctx, event)
}
