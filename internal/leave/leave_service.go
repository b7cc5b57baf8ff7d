package leave

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go-hrm/internal/events"
	leaveerrors "go-hrm/internal/leave/errors"
	"go-hrm/internal/messaging/kafka"
	"go-hrm/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// StatusReconciler refreshes the employee's derived status after a decision
// that may place the employee on leave. Satisfied by employee.Reconciler.
type StatusReconciler interface {
	Reconcile(ctx context.Context, employeeID string, today time.Time) error
}

type Service interface {
	Submit(ctx context.Context, actorID string, req SubmitLeaveRequest) (LeaveRequestResponse, error)
	Decide(ctx context.Context, actorID, id string, req DecideLeaveRequest) (LeaveRequestResponse, error)
	GetAll(ctx context.Context) ([]LeaveRequestResponse, error)
	GetAllByEmployee(ctx context.Context, employeeID string) ([]LeaveRequestResponse, error)
	GetByID(ctx context.Context, id string) (LeaveRequestResponse, error)
	GetBalances(ctx context.Context, employeeID string, year int) ([]LeaveBalanceResponse, error)
}

type service struct {
	db         *sql.DB
	repo       Repository
	ledger     Ledger
	reconciler StatusReconciler
	outbox     kafka.OutboxRepository
	logger     *zap.Logger
}

func NewService(db *sql.DB, repo Repository, ledger Ledger, reconciler StatusReconciler, logger ...*zap.Logger) Service {
	return NewServiceWithOutbox(db, repo, ledger, reconciler, nil, logger...)
}

func NewServiceWithOutbox(
	db *sql.DB,
	repo Repository,
	ledger Ledger,
	reconciler StatusReconciler,
	outboxRepo kafka.OutboxRepository,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	return &service{
		db:         db,
		repo:       repo,
		ledger:     ledger,
		reconciler: reconciler,
		outbox:     outboxRepo,
		logger:     l,
	}
}

func (s *service) Submit(ctx context.Context, actorID string, req SubmitLeaveRequest) (LeaveRequestResponse, error) {
	s.logger.Debug("submit leave requested",
		zap.String("actor_id", actorID),
		zap.String("employee_id", req.EmployeeID),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
	)

	employeeID, leaveTypeID, startDate, endDate, err := validateSubmitRequest(req)
	if err != nil {
		s.logger.Warn("submit leave validation failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}

	totalDays, err := resolveTotalDays(req.TotalDays, startDate, endDate)
	if err != nil {
		return LeaveRequestResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("submit leave begin tx failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	qledger := s.ledger.WithTx(tx)

	exists, err := qtx.EmployeeExists(ctx, req.EmployeeID)
	if err != nil {
		s.logger.Error("submit leave employee lookup failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	if !exists {
		return LeaveRequestResponse{}, leaveerrors.ErrEmployeeNotFound
	}

	lt, err := qtx.FindLeaveType(ctx, req.LeaveTypeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveRequestResponse{}, leaveerrors.ErrLeaveTypeNotFound
		}
		return LeaveRequestResponse{}, err
	}
	if !lt.IsActive {
		return LeaveRequestResponse{}, leaveerrors.ErrLeaveTypeNotFound
	}
	if lt.RequiresMedicalCertificate && (req.MedicalCertificatePath == nil || *req.MedicalCertificatePath == "") {
		return LeaveRequestResponse{}, leaveerrors.ErrMedicalCertificateRequired
	}

	overlap, err := qtx.HasOverlappingRequest(ctx, req.EmployeeID, startDate, endDate)
	if err != nil {
		return LeaveRequestResponse{}, err
	}
	if overlap {
		s.logger.Warn("submit leave overlap detected",
			zap.String("employee_id", req.EmployeeID),
			zap.String("start_date", req.StartDate),
			zap.String("end_date", req.EndDate),
		)
		return LeaveRequestResponse{}, leaveerrors.ErrLeaveOverlap
	}

	year := startDate.Year()
	if _, err := qledger.Ensure(ctx, employeeID, leaveTypeID, year); err != nil {
		s.logger.Error("submit leave ensure balance failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	if err := qledger.Reserve(ctx, employeeID, leaveTypeID, year, totalDays); err != nil {
		s.logger.Warn("submit leave reserve failed",
			zap.String("employee_id", req.EmployeeID),
			zap.String("total_days", totalDays.String()),
			zap.Error(err),
		)
		return LeaveRequestResponse{}, err
	}

	lr := &LeaveRequest{
		ID:                     uuid.New(),
		EmployeeID:             employeeID,
		LeaveTypeID:            leaveTypeID,
		StartDate:              startDate,
		EndDate:                endDate,
		TotalDays:              totalDays,
		Reason:                 req.Reason,
		ContactDuringLeave:     req.ContactDuringLeave,
		Status:                 StatusPending,
		MedicalCertificatePath: req.MedicalCertificatePath,
	}
	if err := qtx.Create(ctx, lr); err != nil {
		s.logger.Error("submit leave persist failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("submit leave commit failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	s.logger.Info("submit leave success",
		zap.String("leave_id", lr.ID.String()),
		zap.String("employee_id", req.EmployeeID),
		zap.String("total_days", totalDays.String()),
	)

	return mapToResponse(*lr), nil
}

func (s *service) Decide(ctx context.Context, actorID, id string, req DecideLeaveRequest) (LeaveRequestResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("decide leave requested",
		zap.String("request_id", rid),
		zap.String("leave_id", id),
		zap.String("actor_id", actorID),
		zap.String("decision", req.Status),
	)

	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return LeaveRequestResponse{}, leaveerrors.ErrInvalidActorID
	}

	decision := strings.ToLower(strings.TrimSpace(req.Status))
	switch decision {
	case StatusApproved, StatusRejected, StatusPending:
	default:
		return LeaveRequestResponse{}, leaveerrors.ErrInvalidDecision
	}

	// Read and short-circuit before opening a transaction; the conditional
	// update below is the gate that decides races.
	lr, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveRequestResponse{}, leaveerrors.ErrLeaveRequestNotFound
		}
		return LeaveRequestResponse{}, err
	}

	if lr.Status != StatusPending {
		s.logger.Warn("decide leave on terminal request",
			zap.String("leave_id", id),
			zap.String("current_status", lr.Status),
			zap.String("decision", decision),
		)
		return LeaveRequestResponse{}, leaveerrors.ErrInvalidStatusTransition
	}

	// "pending" is an accepted decision value but has no effect on a
	// request that is already pending.
	if decision == StatusPending {
		return mapToResponse(*lr), nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("decide leave begin tx failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	qledger := s.ledger.WithTx(tx)

	now := time.Now().UTC()
	switch decision {
	case StatusApproved:
		lr.Status = StatusApproved
		lr.ApprovedBy = &actorUUID
		lr.ApprovedAt = &now
		lr.RejectionReason = nil
	case StatusRejected:
		lr.Status = StatusRejected
		lr.ApprovedBy = nil
		lr.ApprovedAt = nil
		if req.RejectionReason != nil && *req.RejectionReason != "" {
			lr.RejectionReason = req.RejectionReason
		}
	}

	// Conditional update: only the first decision on a pending row wins.
	applied, err := qtx.UpdateDecision(ctx, lr)
	if err != nil {
		s.logger.Error("decide leave persist failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	if !applied {
		s.logger.Warn("decide leave lost decision race", zap.String("leave_id", id))
		return LeaveRequestResponse{}, leaveerrors.ErrInvalidStatusTransition
	}

	year := lr.StartDate.Year()
	switch decision {
	case StatusApproved:
		err = qledger.Commit(ctx, lr.EmployeeID, lr.LeaveTypeID, year, lr.TotalDays)
	case StatusRejected:
		err = qledger.Release(ctx, lr.EmployeeID, lr.LeaveTypeID, year, lr.TotalDays)
	}
	if err != nil {
		s.logger.Error("decide leave ledger update failed",
			zap.String("leave_id", id),
			zap.String("decision", decision),
			zap.Error(err),
		)
		return LeaveRequestResponse{}, err
	}

	if s.outbox != nil {
		if err := s.writeDecisionEvent(ctx, tx, rid, lr, actorID, now); err != nil {
			s.logger.Error("decide leave outbox write failed", zap.String("leave_id", id), zap.Error(err))
			return LeaveRequestResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("decide leave commit failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	s.logger.Info("decide leave success",
		zap.String("leave_id", id),
		zap.String("status", lr.Status),
	)

	// Refresh the employee's derived status outside the decision
	// transaction. A failure here is safe: the next employee listing
	// recomputes from the same predicate.
	if decision == StatusApproved && s.reconciler != nil && coversDate(lr, now) {
		if err := s.reconciler.Reconcile(ctx, lr.EmployeeID.String(), now); err != nil {
			s.logger.Warn("post-approval status reconcile failed",
				zap.String("employee_id", lr.EmployeeID.String()),
				zap.Error(err),
			)
		}
	}

	return mapToResponse(*lr), nil
}

func (s *service) writeDecisionEvent(ctx context.Context, tx *sql.Tx, rid string, lr *LeaveRequest, actorID string, now time.Time) error {
	event := events.LeaveDecidedEvent{
		EventType:  "leave.decided",
		LeaveID:    lr.ID.String(),
		EmployeeID: lr.EmployeeID.String(),
		Status:     lr.Status,
		DecidedBy:  actorID,
		OccurredAt: now,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.New().String(),
		RequestID:     rid,
		AggregateType: "leave_request",
		AggregateID:   lr.ID.String(),
		EventType:     event.EventType,
		Topic:         events.LeaveDecidedTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

func (s *service) GetAll(ctx context.Context) ([]LeaveRequestResponse, error) {
	rows, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(rows), nil
}

func (s *service) GetAllByEmployee(ctx context.Context, employeeID string) ([]LeaveRequestResponse, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return nil, leaveerrors.ErrInvalidEmployeeID
	}
	rows, err := s.repo.FindAllByEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(rows), nil
}

func (s *service) GetByID(ctx context.Context, id string) (LeaveRequestResponse, error) {
	lr, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveRequestResponse{}, leaveerrors.ErrLeaveRequestNotFound
		}
		return LeaveRequestResponse{}, err
	}
	return mapToResponse(*lr), nil
}

func (s *service) GetBalances(ctx context.Context, employeeID string, year int) ([]LeaveBalanceResponse, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return nil, leaveerrors.ErrInvalidEmployeeID
	}
	rows, err := s.ledger.FindByEmployeeAndYear(ctx, employeeID, year)
	if err != nil {
		return nil, err
	}
	res := make([]LeaveBalanceResponse, len(rows))
	for i, b := range rows {
		res[i] = LeaveBalanceResponse{
			ID:             b.ID.String(),
			EmployeeID:     b.EmployeeID.String(),
			LeaveTypeID:    b.LeaveTypeID.String(),
			Year:           b.Year,
			TotalAllocated: b.TotalAllocated.String(),
			Used:           b.Used.String(),
			Pending:        b.Pending.String(),
			Balance:        b.Balance.String(),
		}
	}
	return res, nil
}

func validateSubmitRequest(req SubmitLeaveRequest) (uuid.UUID, uuid.UUID, time.Time, time.Time, error) {
	employeeID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return uuid.Nil, uuid.Nil, time.Time{}, time.Time{}, leaveerrors.ErrInvalidEmployeeID
	}
	leaveTypeID, err := uuid.Parse(req.LeaveTypeID)
	if err != nil {
		return uuid.Nil, uuid.Nil, time.Time{}, time.Time{}, leaveerrors.ErrInvalidLeaveTypeID
	}
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return uuid.Nil, uuid.Nil, time.Time{}, time.Time{}, err
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return uuid.Nil, uuid.Nil, time.Time{}, time.Time{}, err
	}
	if startDate.After(endDate) {
		return uuid.Nil, uuid.Nil, time.Time{}, time.Time{}, leaveerrors.ErrInvalidDateRange
	}
	return employeeID, leaveTypeID, startDate, endDate, nil
}

// resolveTotalDays returns the caller-supplied fractional day count when
// present, otherwise the inclusive calendar-day span. An override may not
// exceed the span and must be positive.
func resolveTotalDays(override *string, startDate, endDate time.Time) (decimal.Decimal, error) {
	calendarDays := decimal.NewFromInt(int64(endDate.Sub(startDate).Hours()/24) + 1)
	if override == nil || *override == "" {
		return calendarDays, nil
	}
	days, err := decimal.NewFromString(*override)
	if err != nil {
		return decimal.Zero, leaveerrors.ErrInvalidTotalDays
	}
	if days.LessThanOrEqual(decimal.Zero) || days.GreaterThan(calendarDays) {
		return decimal.Zero, leaveerrors.ErrInvalidTotalDays
	}
	return days, nil
}

func coversDate(lr *LeaveRequest, t time.Time) bool {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	start := time.Date(lr.StartDate.Year(), lr.StartDate.Month(), lr.StartDate.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(lr.EndDate.Year(), lr.EndDate.Month(), lr.EndDate.Day(), 0, 0, 0, 0, time.UTC)
	return !day.Before(start) && !day.After(end)
}

func parseDate(v string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, leaveerrors.ErrInvalidDateFormat
	}
	return t, nil
}

func mapToResponse(lr LeaveRequest) LeaveRequestResponse {
	resp := LeaveRequestResponse{
		ID:                 lr.ID.String(),
		EmployeeID:         lr.EmployeeID.String(),
		LeaveTypeID:        lr.LeaveTypeID.String(),
		StartDate:          lr.StartDate.Format("2006-01-02"),
		EndDate:            lr.EndDate.Format("2006-01-02"),
		TotalDays:          lr.TotalDays.String(),
		Reason:             lr.Reason,
		ContactDuringLeave: lr.ContactDuringLeave,
		Status:             lr.Status,
	}
	if lr.ApprovedBy != nil {
		v := lr.ApprovedBy.String()
		resp.ApprovedBy = &v
	}
	if lr.ApprovedAt != nil {
		v := lr.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &v
	}
	resp.RejectionReason = lr.RejectionReason
	return resp
}

func mapToListResponse(rows []LeaveRequest) []LeaveRequestResponse {
	resp := make([]LeaveRequestResponse, len(rows))
	for i, lr := range rows {
		resp[i] = mapToResponse(lr)
	}
	return resp
}
