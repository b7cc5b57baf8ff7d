package employee

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	employeeerrors "go-hrm/internal/employee/errors"
	"go-hrm/internal/shared/counter"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service interface {
	Create(ctx context.Context, req CreateEmployeeRequest) (EmployeeResponse, error)
	// GetAll reconciles every cached status before listing, so the returned
	// statuses reflect today's approved leave.
	GetAll(ctx context.Context, limit, offset int) ([]EmployeeResponse, int64, error)
	GetByID(ctx context.Context, id string) (EmployeeResponse, error)
	Update(ctx context.Context, id string, req UpdateEmployeeRequest) (EmployeeResponse, error)
	Delete(ctx context.Context, id string) error
	GetStats(ctx context.Context) (StatsResponse, error)
}

type service struct {
	db          *sql.DB
	repo        Repository
	counterRepo counter.Repository
	reconciler  Reconciler
	logger      *zap.Logger
}

func NewService(db *sql.DB, repo Repository, counterRepo counter.Repository, reconciler Reconciler, logger ...*zap.Logger) Service {
	l := zap.L().Named("employee.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.service")
	}
	return &service{db: db, repo: repo, counterRepo: counterRepo, reconciler: reconciler, logger: l}
}

func (s *service) Create(ctx context.Context, req CreateEmployeeRequest) (EmployeeResponse, error) {
	joining, err := parseOptionalDate(req.JoiningDate)
	if err != nil {
		return EmployeeResponse{}, employeeerrors.ErrInvalidDateFormat
	}

	seq, err := s.counterRepo.GetNextValue(ctx, "employee")
	if err != nil {
		s.logger.Error("employee code allocation failed", zap.Error(err))
		return EmployeeResponse{}, err
	}

	emp := Employee{
		ID:             uuid.New(),
		EmployeeCode:   fmt.Sprintf("EMP-%06d", seq),
		FirstName:      strings.TrimSpace(req.FirstName),
		LastName:       strings.TrimSpace(req.LastName),
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:          req.Phone,
		Department:     req.Department,
		Position:       req.Position,
		EmploymentType: req.EmploymentType,
		Status:         StatusActive,
		JoiningDate:    joining,
	}
	if emp.EmploymentType == "" {
		emp.EmploymentType = "permanent"
	}
	if req.ShiftID != nil {
		shiftID, err := uuid.Parse(*req.ShiftID)
		if err != nil {
			return EmployeeResponse{}, employeeerrors.ErrInvalidEmployeeID
		}
		emp.ShiftID = &shiftID
	}
	if req.ManagerID != nil {
		managerID, err := uuid.Parse(*req.ManagerID)
		if err != nil {
			return EmployeeResponse{}, employeeerrors.ErrInvalidEmployeeID
		}
		emp.ManagerID = &managerID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create begin tx failed", zap.Error(err))
		return EmployeeResponse{}, err
	}
	defer tx.Rollback()

	qrepo := s.repo.WithTx(tx)
	if err := qrepo.Create(ctx, &emp); err != nil {
		if isUniqueViolation(err) {
			return EmployeeResponse{}, employeeerrors.ErrEmployeeEmailAlreadyExists
		}
		s.logger.Error("create employee failed", zap.Error(err))
		return EmployeeResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		s.logger.Error("create commit failed", zap.Error(err))
		return EmployeeResponse{}, err
	}

	s.logger.Info("employee created",
		zap.String("employee_id", emp.ID.String()),
		zap.String("employee_code", emp.EmployeeCode),
	)
	return mapToResponse(emp), nil
}

func (s *service) GetAll(ctx context.Context, limit, offset int) ([]EmployeeResponse, int64, error) {
	if _, err := s.reconciler.ReconcileAll(ctx, time.Now()); err != nil {
		// Stale statuses beat a failed listing. Log and serve what we have.
		s.logger.Warn("status sweep before listing failed", zap.Error(err))
	}

	rows, total, err := s.repo.FindAll(ctx, limit, offset)
	if err != nil {
		s.logger.Error("list employees failed", zap.Error(err))
		return nil, 0, err
	}

	out := make([]EmployeeResponse, 0, len(rows))
	for _, e := range rows {
		out = append(out, mapToResponse(e))
	}
	return out, total, nil
}

func (s *service) GetByID(ctx context.Context, id string) (EmployeeResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return EmployeeResponse{}, employeeerrors.ErrInvalidEmployeeID
	}
	if err := s.reconciler.Reconcile(ctx, id, time.Now()); err != nil {
		if errors.Is(err, employeeerrors.ErrEmployeeNotFound) {
			return EmployeeResponse{}, err
		}
		s.logger.Warn("status reconcile before read failed",
			zap.String("employee_id", id),
			zap.Error(err),
		)
	}

	emp, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return EmployeeResponse{}, employeeerrors.ErrEmployeeNotFound
		}
		return EmployeeResponse{}, err
	}
	return mapToResponse(*emp), nil
}

func (s *service) Update(ctx context.Context, id string, req UpdateEmployeeRequest) (EmployeeResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return EmployeeResponse{}, employeeerrors.ErrInvalidEmployeeID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("update begin tx failed", zap.Error(err))
		return EmployeeResponse{}, err
	}
	defer tx.Rollback()

	qrepo := s.repo.WithTx(tx)
	emp, err := qrepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return EmployeeResponse{}, employeeerrors.ErrEmployeeNotFound
		}
		return EmployeeResponse{}, err
	}

	if req.FirstName != nil {
		emp.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		emp.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Phone != nil {
		emp.Phone = req.Phone
	}
	if req.Department != nil {
		emp.Department = *req.Department
	}
	if req.Position != nil {
		emp.Position = *req.Position
	}
	if req.EmploymentType != nil {
		emp.EmploymentType = *req.EmploymentType
	}
	if req.ShiftID != nil {
		shiftID, err := uuid.Parse(*req.ShiftID)
		if err != nil {
			return EmployeeResponse{}, employeeerrors.ErrInvalidEmployeeID
		}
		emp.ShiftID = &shiftID
	}
	if req.ManagerID != nil {
		managerID, err := uuid.Parse(*req.ManagerID)
		if err != nil {
			return EmployeeResponse{}, employeeerrors.ErrInvalidEmployeeID
		}
		emp.ManagerID = &managerID
	}
	if req.Status != nil {
		emp.Status = *req.Status
	}
	if req.TerminationDate != nil {
		termination, err := parseOptionalDate(req.TerminationDate)
		if err != nil {
			return EmployeeResponse{}, employeeerrors.ErrInvalidDateFormat
		}
		emp.TerminationDate = termination
	}

	if err := qrepo.Update(ctx, emp); err != nil {
		s.logger.Error("update employee failed", zap.String("employee_id", id), zap.Error(err))
		return EmployeeResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		s.logger.Error("update commit failed", zap.Error(err))
		return EmployeeResponse{}, err
	}

	s.logger.Info("employee updated", zap.String("employee_id", id))
	return mapToResponse(*emp), nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return employeeerrors.ErrInvalidEmployeeID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("delete begin tx failed", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	qrepo := s.repo.WithTx(tx)
	if _, err := qrepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return employeeerrors.ErrEmployeeNotFound
		}
		return err
	}
	if err := qrepo.Delete(ctx, id); err != nil {
		s.logger.Error("delete employee failed", zap.String("employee_id", id), zap.Error(err))
		return err
	}
	if err := tx.Commit(); err != nil {
		s.logger.Error("delete commit failed", zap.Error(err))
		return err
	}

	s.logger.Info("employee deleted", zap.String("employee_id", id))
	return nil
}

func (s *service) GetStats(ctx context.Context) (StatsResponse, error) {
	now := time.Now()
	if _, err := s.reconciler.ReconcileAll(ctx, now); err != nil {
		s.logger.Warn("status sweep before stats failed", zap.Error(err))
	}

	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return StatsResponse{}, err
	}
	present, err := s.repo.CountPresentOn(ctx, now.UTC())
	if err != nil {
		return StatsResponse{}, err
	}

	var total int64
	for _, c := range counts {
		total += c
	}
	return StatsResponse{
		TotalEmployees: total,
		ActiveToday:    counts[StatusActive],
		PresentToday:   present,
		OnLeaveToday:   counts[StatusOnLeave],
	}, nil
}

func parseOptionalDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func mapToResponse(e Employee) EmployeeResponse {
	resp := EmployeeResponse{
		ID:             e.ID.String(),
		EmployeeCode:   e.EmployeeCode,
		FirstName:      e.FirstName,
		LastName:       e.LastName,
		Email:          e.Email,
		Phone:          e.Phone,
		Department:     e.Department,
		Position:       e.Position,
		EmploymentType: e.EmploymentType,
		Status:         e.Status,
	}
	if e.ShiftID != nil {
		id := e.ShiftID.String()
		resp.ShiftID = &id
	}
	if e.ManagerID != nil {
		id := e.ManagerID.String()
		resp.ManagerID = &id
	}
	if e.JoiningDate != nil {
		d := e.JoiningDate.Format("2006-01-02")
		resp.JoiningDate = &d
	}
	return resp
}
