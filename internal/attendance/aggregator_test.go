package attendance_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"go-hrm/internal/attendance"
	attendanceerrors "go-hrm/internal/attendance/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeSummaryRepository struct {
	withTxFn                  func(tx *sql.Tx) attendance.SummaryRepository
	upsertFn                  func(ctx context.Context, s *attendance.AttendanceSummary) error
	findByEmployeeAndPeriodFn func(ctx context.Context, employeeID string, month, year int) (*attendance.AttendanceSummary, error)
}

func (f *fakeSummaryRepository) WithTx(tx *sql.Tx) attendance.SummaryRepository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakeSummaryRepository) Upsert(ctx context.Context, s *attendance.AttendanceSummary) error {
	if f.upsertFn != nil {
		return f.upsertFn(ctx, s)
	}
	return nil
}

func (f *fakeSummaryRepository) FindByEmployeeAndPeriod(ctx context.Context, employeeID string, month, year int) (*attendance.AttendanceSummary, error) {
	if f.findByEmployeeAndPeriodFn != nil {
		return f.findByEmployeeAndPeriodFn(ctx, employeeID, month, year)
	}
	return nil, gorm.ErrRecordNotFound
}

type aggregatorDeps struct {
	db          *sql.DB
	sqlMock     sqlmock.Sqlmock
	aggregator  attendance.Aggregator
	repo        *fakeAttendanceRepository
	summaryRepo *fakeSummaryRepository
}

func setupAggregatorTest(t *testing.T) *aggregatorDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := &fakeAttendanceRepository{}
	summaryRepo := &fakeSummaryRepository{}
	agg := attendance.NewAggregator(db, repo, summaryRepo, attendance.DefaultAggregatorConfig())

	return &aggregatorDeps{
		db:          db,
		sqlMock:     sqlMock,
		aggregator:  agg,
		repo:        repo,
		summaryRepo: summaryRepo,
	}
}

func marchRows(employeeID uuid.UUID) []attendance.Attendance {
	day := func(d int) time.Time { return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC) }
	return []attendance.Attendance{
		{EmployeeID: employeeID, Date: day(2), Status: attendance.StatusPresent, TotalHours: decimal.NewFromInt(8)},
		{EmployeeID: employeeID, Date: day(3), Status: attendance.StatusLate, IsLate: true, TotalHours: decimal.RequireFromString("7.5")},
		{EmployeeID: employeeID, Date: day(4), Status: attendance.StatusPresent, IsEarlyLeave: true, TotalHours: decimal.NewFromInt(10)},
		{EmployeeID: employeeID, Date: day(5), Status: attendance.StatusAbsent},
		{EmployeeID: employeeID, Date: day(6), Status: attendance.StatusHalfDay, TotalHours: decimal.NewFromInt(4)},
		{EmployeeID: employeeID, Date: day(9), Status: attendance.StatusOnLeave},
	}
}

func TestAggregator_Aggregate(t *testing.T) {
	ctx := context.Background()
	employeeID := uuid.New()

	t.Run("computes monthly summary", func(t *testing.T) {
		deps := setupAggregatorTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		deps.repo.findByEmployeeAndPeriodFn = func(ctx context.Context, eid string, from, to time.Time) ([]attendance.Attendance, error) {
			assert.Equal(t, "2026-03-01", from.Format("2006-01-02"))
			assert.Equal(t, "2026-03-31", to.Format("2006-01-02"))
			return marchRows(employeeID), nil
		}

		var stored attendance.AttendanceSummary
		deps.summaryRepo.upsertFn = func(ctx context.Context, s *attendance.AttendanceSummary) error {
			stored = *s
			return nil
		}

		resp, err := deps.aggregator.Aggregate(ctx, employeeID.String(), 3, 2026)

		assert.NoError(t, err)
		// March 2026 has 22 weekdays.
		assert.Equal(t, 22, resp.TotalWorkingDays)
		assert.Equal(t, 3, resp.DaysPresent, "present and late both count as attended")
		assert.Equal(t, 1, resp.DaysAbsent)
		assert.Equal(t, 1, resp.DaysHalfDay)
		assert.Equal(t, 1, resp.DaysOnLeave)
		assert.Equal(t, 1, resp.DaysLate)
		assert.Equal(t, 1, resp.DaysEarlyLeave)
		assert.Equal(t, "29.5", resp.TotalHoursWorked)
		assert.Equal(t, "2", resp.OvertimeHours)
		assert.Equal(t, "13.64", resp.AttendancePercentage)
		assert.Equal(t, employeeID, stored.EmployeeID)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("recomputation is idempotent", func(t *testing.T) {
		deps := setupAggregatorTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		expectTx(t, deps.sqlMock, true)
		deps.repo.findByEmployeeAndPeriodFn = func(ctx context.Context, eid string, from, to time.Time) ([]attendance.Attendance, error) {
			return marchRows(employeeID), nil
		}

		upserts := 0
		deps.summaryRepo.upsertFn = func(ctx context.Context, s *attendance.AttendanceSummary) error {
			upserts++
			return nil
		}

		first, err := deps.aggregator.Aggregate(ctx, employeeID.String(), 3, 2026)
		assert.NoError(t, err)
		second, err := deps.aggregator.Aggregate(ctx, employeeID.String(), 3, 2026)
		assert.NoError(t, err)

		assert.Equal(t, 2, upserts)
		first.ID, second.ID = "", ""
		assert.Equal(t, first, second)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative invalid period", func(t *testing.T) {
		deps := setupAggregatorTest(t)
		defer deps.db.Close()

		_, err := deps.aggregator.Aggregate(ctx, employeeID.String(), 13, 2026)

		assert.ErrorIs(t, err, attendanceerrors.ErrInvalidPeriod)
	})
}

func TestAggregator_AggregateAll(t *testing.T) {
	ctx := context.Background()

	t.Run("continues past a failing employee", func(t *testing.T) {
		deps := setupAggregatorTest(t)
		defer deps.db.Close()

		okID := uuid.New()
		badID := "not-a-uuid"
		deps.repo.distinctEmployeeIDsForPeriodFn = func(ctx context.Context, from, to time.Time) ([]string, error) {
			return []string{badID, okID.String()}, nil
		}
		deps.repo.findByEmployeeAndPeriodFn = func(ctx context.Context, eid string, from, to time.Time) ([]attendance.Attendance, error) {
			return marchRows(okID), nil
		}

		expectTx(t, deps.sqlMock, true)

		done, err := deps.aggregator.AggregateAll(ctx, 3, 2026)

		assert.NoError(t, err)
		assert.Equal(t, 1, done)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestAggregator_GetSummary(t *testing.T) {
	ctx := context.Background()
	employeeID := uuid.New()

	t.Run("success", func(t *testing.T) {
		deps := setupAggregatorTest(t)
		defer deps.db.Close()

		deps.summaryRepo.findByEmployeeAndPeriodFn = func(ctx context.Context, eid string, month, year int) (*attendance.AttendanceSummary, error) {
			return &attendance.AttendanceSummary{
				ID:                   uuid.New(),
				EmployeeID:           employeeID,
				Month:                3,
				Year:                 2026,
				TotalWorkingDays:     22,
				DaysPresent:          20,
				TotalHoursWorked:     decimal.NewFromInt(160),
				OvertimeHours:        decimal.Zero,
				AttendancePercentage: decimal.RequireFromString("90.91"),
			}, nil
		}

		resp, err := deps.aggregator.GetSummary(ctx, employeeID.String(), 3, 2026)

		assert.NoError(t, err)
		assert.Equal(t, 20, resp.DaysPresent)
		assert.Equal(t, "90.91", resp.AttendancePercentage)
	})

	t.Run("negative missing period", func(t *testing.T) {
		deps := setupAggregatorTest(t)
		defer deps.db.Close()

		_, err := deps.aggregator.GetSummary(ctx, employeeID.String(), 4, 2026)

		assert.ErrorIs(t, err, attendanceerrors.ErrSummaryNotFound)
	})
}
