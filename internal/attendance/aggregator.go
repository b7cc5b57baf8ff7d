package attendance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	attendanceerrors "go-hrm/internal/attendance/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AggregatorConfig controls the derived summary values. TotalWorkingDays is
// the period's calendar days minus the rest-day set.
type AggregatorConfig struct {
	RestDays           []time.Weekday
	StandardDailyHours decimal.Decimal
}

func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		RestDays:           []time.Weekday{time.Saturday, time.Sunday},
		StandardDailyHours: decimal.NewFromInt(8),
	}
}

// Aggregator rolls daily attendance rows into the monthly summary. The
// summary is always fully recomputed from the source rows, so re-running a
// period any number of times yields the same row.
type Aggregator interface {
	Aggregate(ctx context.Context, employeeID string, month, year int) (SummaryResponse, error)
	// AggregateAll recomputes every employee with attendance in the
	// period, one transaction per employee so live traffic can interleave.
	AggregateAll(ctx context.Context, month, year int) (int, error)
	GetSummary(ctx context.Context, employeeID string, month, year int) (SummaryResponse, error)
}

type aggregator struct {
	db          *sql.DB
	repo        Repository
	summaryRepo SummaryRepository
	cfg         AggregatorConfig
	logger      *zap.Logger
}

func NewAggregator(db *sql.DB, repo Repository, summaryRepo SummaryRepository, cfg AggregatorConfig, logger ...*zap.Logger) Aggregator {
	l := zap.L().Named("attendance.aggregator")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("attendance.aggregator")
	}
	if cfg.StandardDailyHours.IsZero() {
		cfg = DefaultAggregatorConfig()
	}
	return &aggregator{db: db, repo: repo, summaryRepo: summaryRepo, cfg: cfg, logger: l}
}

func (a *aggregator) Aggregate(ctx context.Context, employeeID string, month, year int) (SummaryResponse, error) {
	empUUID, err := uuid.Parse(employeeID)
	if err != nil {
		return SummaryResponse{}, attendanceerrors.ErrInvalidEmployeeID
	}
	if month < 1 || month > 12 || year < 1 {
		return SummaryResponse{}, attendanceerrors.ErrInvalidPeriod
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		a.logger.Error("aggregate begin tx failed", zap.Error(err))
		return SummaryResponse{}, err
	}
	defer tx.Rollback()

	qrepo := a.repo.WithTx(tx)
	qsummary := a.summaryRepo.WithTx(tx)

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)

	rows, err := qrepo.FindByEmployeeAndPeriod(ctx, employeeID, from, to)
	if err != nil {
		a.logger.Error("aggregate scan failed", zap.String("employee_id", employeeID), zap.Error(err))
		return SummaryResponse{}, err
	}

	summary := a.compute(empUUID, month, year, from, to, rows)
	if err := qsummary.Upsert(ctx, &summary); err != nil {
		a.logger.Error("aggregate upsert failed", zap.String("employee_id", employeeID), zap.Error(err))
		return SummaryResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		a.logger.Error("aggregate commit failed", zap.Error(err))
		return SummaryResponse{}, err
	}
	a.logger.Info("aggregate success",
		zap.String("employee_id", employeeID),
		zap.Int("month", month),
		zap.Int("year", year),
		zap.Int("rows", len(rows)),
	)

	return mapSummaryToResponse(summary), nil
}

func (a *aggregator) AggregateAll(ctx context.Context, month, year int) (int, error) {
	if month < 1 || month > 12 || year < 1 {
		return 0, attendanceerrors.ErrInvalidPeriod
	}
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)

	ids, err := a.repo.DistinctEmployeeIDsForPeriod(ctx, from, to)
	if err != nil {
		return 0, err
	}

	done := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		if _, err := a.Aggregate(ctx, id, month, year); err != nil {
			a.logger.Error("aggregate all: employee failed",
				zap.String("employee_id", id),
				zap.Error(err),
			)
			continue
		}
		done++
	}
	a.logger.Info("aggregate all finished",
		zap.Int("month", month),
		zap.Int("year", year),
		zap.Int("employees", done),
	)
	return done, nil
}

func (a *aggregator) GetSummary(ctx context.Context, employeeID string, month, year int) (SummaryResponse, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return SummaryResponse{}, attendanceerrors.ErrInvalidEmployeeID
	}
	if month < 1 || month > 12 || year < 1 {
		return SummaryResponse{}, attendanceerrors.ErrInvalidPeriod
	}
	s, err := a.summaryRepo.FindByEmployeeAndPeriod(ctx, employeeID, month, year)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SummaryResponse{}, attendanceerrors.ErrSummaryNotFound
		}
		return SummaryResponse{}, err
	}
	return mapSummaryToResponse(*s), nil
}

func (a *aggregator) compute(employeeID uuid.UUID, month, year int, from, to time.Time, rows []Attendance) AttendanceSummary {
	s := AttendanceSummary{
		ID:               uuid.New(),
		EmployeeID:       employeeID,
		Month:            month,
		Year:             year,
		TotalWorkingDays: a.workingDays(from, to),
		TotalHoursWorked: decimal.Zero,
		OvertimeHours:    decimal.Zero,
		UpdatedAt:        time.Now().UTC(),
	}

	for _, r := range rows {
		switch r.Status {
		case StatusPresent, StatusLate:
			s.DaysPresent++
		case StatusAbsent:
			s.DaysAbsent++
		case StatusHalfDay:
			s.DaysHalfDay++
		case StatusOnLeave:
			s.DaysOnLeave++
		}
		if r.IsLate {
			s.DaysLate++
		}
		if r.IsEarlyLeave {
			s.DaysEarlyLeave++
		}
		s.TotalHoursWorked = s.TotalHoursWorked.Add(r.TotalHours)
		if overtime := r.TotalHours.Sub(a.cfg.StandardDailyHours); overtime.IsPositive() {
			s.OvertimeHours = s.OvertimeHours.Add(overtime)
		}
	}

	if s.TotalWorkingDays > 0 {
		s.AttendancePercentage = decimal.NewFromInt(int64(s.DaysPresent)).
			Div(decimal.NewFromInt(int64(s.TotalWorkingDays))).
			Mul(decimal.NewFromInt(100)).
			Round(2)
	}
	return s
}

func (a *aggregator) workingDays(from, to time.Time) int {
	rest := make(map[time.Weekday]bool, len(a.cfg.RestDays))
	for _, d := range a.cfg.RestDays {
		rest[d] = true
	}
	days := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if !rest[d.Weekday()] {
			days++
		}
	}
	return days
}

func mapSummaryToResponse(s AttendanceSummary) SummaryResponse {
	return SummaryResponse{
		ID:                   s.ID.String(),
		EmployeeID:           s.EmployeeID.String(),
		Month:                s.Month,
		Year:                 s.Year,
		TotalWorkingDays:     s.TotalWorkingDays,
		DaysPresent:          s.DaysPresent,
		DaysAbsent:           s.DaysAbsent,
		DaysHalfDay:          s.DaysHalfDay,
		DaysOnLeave:          s.DaysOnLeave,
		DaysLate:             s.DaysLate,
		DaysEarlyLeave:       s.DaysEarlyLeave,
		TotalHoursWorked:     s.TotalHoursWorked.String(),
		OvertimeHours:        s.OvertimeHours.String(),
		AttendancePercentage: s.AttendancePercentage.String(),
	}
}
