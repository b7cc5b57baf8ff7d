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
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeAttendanceRepository struct {
	withTxFn                       func(tx *sql.Tx) attendance.Repository
	createFn                       func(ctx context.Context, a *attendance.Attendance) error
	updateFn                       func(ctx context.Context, a *attendance.Attendance) error
	findByEmployeeAndDateFn        func(ctx context.Context, employeeID string, date time.Time) (*attendance.Attendance, error)
	findByEmployeeAndPeriodFn      func(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.Attendance, error)
	findAllByDateFn                func(ctx context.Context, date time.Time) ([]attendance.Attendance, error)
	countLateSinceFn               func(ctx context.Context, employeeID string, since time.Time) (int64, error)
	countEarlySinceFn              func(ctx context.Context, employeeID string, since time.Time) (int64, error)
	findShiftFn                    func(ctx context.Context, shiftID string) (*attendance.ShiftRef, error)
	distinctEmployeeIDsForPeriodFn func(ctx context.Context, from, to time.Time) ([]string, error)
}

func (f *fakeAttendanceRepository) WithTx(tx *sql.Tx) attendance.Repository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakeAttendanceRepository) Create(ctx context.Context, a *attendance.Attendance) error {
	if f.createFn != nil {
		return f.createFn(ctx, a)
	}
	return nil
}

func (f *fakeAttendanceRepository) Update(ctx context.Context, a *attendance.Attendance) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, a)
	}
	return nil
}

func (f *fakeAttendanceRepository) FindByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*attendance.Attendance, error) {
	if f.findByEmployeeAndDateFn != nil {
		return f.findByEmployeeAndDateFn(ctx, employeeID, date)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAttendanceRepository) FindByEmployeeAndPeriod(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.Attendance, error) {
	if f.findByEmployeeAndPeriodFn != nil {
		return f.findByEmployeeAndPeriodFn(ctx, employeeID, from, to)
	}
	return nil, nil
}

func (f *fakeAttendanceRepository) FindAllByDate(ctx context.Context, date time.Time) ([]attendance.Attendance, error) {
	if f.findAllByDateFn != nil {
		return f.findAllByDateFn(ctx, date)
	}
	return nil, nil
}

func (f *fakeAttendanceRepository) CountLateSince(ctx context.Context, employeeID string, since time.Time) (int64, error) {
	if f.countLateSinceFn != nil {
		return f.countLateSinceFn(ctx, employeeID, since)
	}
	return 0, nil
}

func (f *fakeAttendanceRepository) CountEarlySince(ctx context.Context, employeeID string, since time.Time) (int64, error) {
	if f.countEarlySinceFn != nil {
		return f.countEarlySinceFn(ctx, employeeID, since)
	}
	return 0, nil
}

func (f *fakeAttendanceRepository) FindShift(ctx context.Context, shiftID string) (*attendance.ShiftRef, error) {
	if f.findShiftFn != nil {
		return f.findShiftFn(ctx, shiftID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAttendanceRepository) DistinctEmployeeIDsForPeriod(ctx context.Context, from, to time.Time) ([]string, error) {
	if f.distinctEmployeeIDsForPeriodFn != nil {
		return f.distinctEmployeeIDsForPeriodFn(ctx, from, to)
	}
	return nil, nil
}

type attendanceServiceDeps struct {
	db      *sql.DB
	sqlMock sqlmock.Sqlmock
	service attendance.Service
	repo    *fakeAttendanceRepository
}

func setupAttendanceServiceTest(t *testing.T) *attendanceServiceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := &fakeAttendanceRepository{}
	svc := attendance.NewService(db, repo)

	return &attendanceServiceDeps{
		db:      db,
		sqlMock: sqlMock,
		service: svc,
		repo:    repo,
	}
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func strPtr(v string) *string { return &v }

func morningShift(id uuid.UUID) *attendance.ShiftRef {
	return &attendance.ShiftRef{
		ID:                 id,
		Name:               "Morning",
		StartTime:          "09:00",
		EndTime:            "17:00",
		GracePeriodMinutes: 15,
	}
}

func TestAttendanceService_Record(t *testing.T) {
	ctx := context.Background()
	employeeID := uuid.New().String()
	shiftID := uuid.New()

	t.Run("on-time check-in", func(t *testing.T) {
		deps := setupAttendanceServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		deps.repo.findShiftFn = func(ctx context.Context, sid string) (*attendance.ShiftRef, error) {
			return morningShift(shiftID), nil
		}

		req := attendance.RecordAttendanceRequest{
			EmployeeID:   employeeID,
			Date:         "2026-03-02",
			ShiftID:      strPtr(shiftID.String()),
			CheckInTime:  strPtr("2026-03-02T09:05:00Z"),
			CheckOutTime: strPtr("2026-03-02T17:30:00Z"),
		}

		resp, err := deps.service.Record(ctx, req)

		assert.NoError(t, err)
		assert.Equal(t, attendance.StatusPresent, resp.Status)
		assert.False(t, resp.IsLate)
		assert.Equal(t, 0, resp.LateByMinutes)
		assert.Equal(t, "8.42", resp.TotalHours)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("late check-in counts minutes past grace", func(t *testing.T) {
		deps := setupAttendanceServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		deps.repo.findShiftFn = func(ctx context.Context, sid string) (*attendance.ShiftRef, error) {
			return morningShift(shiftID), nil
		}

		// Shift starts 09:00 with 15 minutes grace; 09:20 is 5 minutes late.
		req := attendance.RecordAttendanceRequest{
			EmployeeID:  employeeID,
			Date:        "2026-03-02",
			ShiftID:     strPtr(shiftID.String()),
			CheckInTime: strPtr("2026-03-02T09:20:00Z"),
		}

		resp, err := deps.service.Record(ctx, req)

		assert.NoError(t, err)
		assert.Equal(t, attendance.StatusLate, resp.Status)
		assert.True(t, resp.IsLate)
		assert.Equal(t, 5, resp.LateByMinutes)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("early leave before shift end", func(t *testing.T) {
		deps := setupAttendanceServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		deps.repo.findShiftFn = func(ctx context.Context, sid string) (*attendance.ShiftRef, error) {
			return morningShift(shiftID), nil
		}

		req := attendance.RecordAttendanceRequest{
			EmployeeID:   employeeID,
			Date:         "2026-03-02",
			ShiftID:      strPtr(shiftID.String()),
			CheckInTime:  strPtr("2026-03-02T09:00:00Z"),
			CheckOutTime: strPtr("2026-03-02T16:30:00Z"),
		}

		resp, err := deps.service.Record(ctx, req)

		assert.NoError(t, err)
		assert.True(t, resp.IsEarlyLeave)
		assert.Equal(t, 30, resp.EarlyByMinutes)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("second write updates in place", func(t *testing.T) {
		deps := setupAttendanceServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		existingID := uuid.New()
		checkIn := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
		deps.repo.findByEmployeeAndDateFn = func(ctx context.Context, eid string, date time.Time) (*attendance.Attendance, error) {
			return &attendance.Attendance{
				ID:          existingID,
				EmployeeID:  uuid.MustParse(employeeID),
				Date:        date,
				CheckInTime: &checkIn,
				Status:      attendance.StatusPresent,
			}, nil
		}

		created := false
		deps.repo.createFn = func(ctx context.Context, a *attendance.Attendance) error {
			created = true
			return nil
		}
		updated := false
		deps.repo.updateFn = func(ctx context.Context, a *attendance.Attendance) error {
			updated = true
			assert.Equal(t, existingID, a.ID)
			assert.NotNil(t, a.CheckOutTime)
			return nil
		}

		req := attendance.RecordAttendanceRequest{
			EmployeeID:   employeeID,
			Date:         "2026-03-02",
			CheckOutTime: strPtr("2026-03-02T17:00:00Z"),
		}

		resp, err := deps.service.Record(ctx, req)

		assert.NoError(t, err)
		assert.Equal(t, existingID.String(), resp.ID)
		assert.True(t, updated)
		assert.False(t, created, "existing row must be updated, never duplicated")
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("re-record without shift keeps lateness derivation", func(t *testing.T) {
		deps := setupAttendanceServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		existingID := uuid.New()
		// Checked in 09:20 against the 09:00+15m shift: 5 minutes late.
		checkIn := time.Date(2026, 3, 2, 9, 20, 0, 0, time.UTC)
		rowShiftID := shiftID
		deps.repo.findByEmployeeAndDateFn = func(ctx context.Context, eid string, date time.Time) (*attendance.Attendance, error) {
			return &attendance.Attendance{
				ID:            existingID,
				EmployeeID:    uuid.MustParse(employeeID),
				Date:          date,
				ShiftID:       &rowShiftID,
				CheckInTime:   &checkIn,
				Status:        attendance.StatusLate,
				IsLate:        true,
				LateByMinutes: 5,
			}, nil
		}

		var lookedUp string
		deps.repo.findShiftFn = func(ctx context.Context, sid string) (*attendance.ShiftRef, error) {
			lookedUp = sid
			return morningShift(shiftID), nil
		}
		var saved attendance.Attendance
		deps.repo.updateFn = func(ctx context.Context, a *attendance.Attendance) error {
			saved = *a
			return nil
		}

		req := attendance.RecordAttendanceRequest{
			EmployeeID:   employeeID,
			Date:         "2026-03-02",
			CheckOutTime: strPtr("2026-03-02T17:00:00Z"),
		}

		resp, err := deps.service.Record(ctx, req)

		assert.NoError(t, err)
		assert.Equal(t, shiftID.String(), lookedUp)
		assert.True(t, saved.IsLate, "lateness derived on the first write must survive an update")
		assert.Equal(t, 5, saved.LateByMinutes)
		assert.Equal(t, attendance.StatusLate, resp.Status)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("lost insert race retries as update", func(t *testing.T) {
		deps := setupAttendanceServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		winnerID := uuid.New()
		calls := 0
		deps.repo.findByEmployeeAndDateFn = func(ctx context.Context, eid string, date time.Time) (*attendance.Attendance, error) {
			calls++
			if calls == 1 {
				return nil, gorm.ErrRecordNotFound
			}
			return &attendance.Attendance{
				ID:         winnerID,
				EmployeeID: uuid.MustParse(employeeID),
				Date:       date,
				Status:     attendance.StatusPresent,
			}, nil
		}
		deps.repo.createFn = func(ctx context.Context, a *attendance.Attendance) error {
			return &pgconn.PgError{Code: "23505"}
		}
		updated := false
		deps.repo.updateFn = func(ctx context.Context, a *attendance.Attendance) error {
			updated = true
			assert.Equal(t, winnerID, a.ID)
			return nil
		}

		req := attendance.RecordAttendanceRequest{
			EmployeeID:  employeeID,
			Date:        "2026-03-02",
			CheckInTime: strPtr("2026-03-02T09:00:00Z"),
		}

		resp, err := deps.service.Record(ctx, req)

		assert.NoError(t, err)
		assert.Equal(t, winnerID.String(), resp.ID)
		assert.True(t, updated)
		assert.Equal(t, 2, calls)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative check-out before check-in", func(t *testing.T) {
		deps := setupAttendanceServiceTest(t)
		defer deps.db.Close()

		req := attendance.RecordAttendanceRequest{
			EmployeeID:   employeeID,
			Date:         "2026-03-02",
			CheckInTime:  strPtr("2026-03-02T17:00:00Z"),
			CheckOutTime: strPtr("2026-03-02T09:00:00Z"),
		}

		_, err := deps.service.Record(ctx, req)

		assert.ErrorIs(t, err, attendanceerrors.ErrInvalidCheckOutOrder)
	})

	t.Run("negative unknown shift", func(t *testing.T) {
		deps := setupAttendanceServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		req := attendance.RecordAttendanceRequest{
			EmployeeID: employeeID,
			Date:       "2026-03-02",
			ShiftID:    strPtr(uuid.New().String()),
		}

		_, err := deps.service.Record(ctx, req)

		assert.ErrorIs(t, err, attendanceerrors.ErrShiftNotFound)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative invalid status override", func(t *testing.T) {
		deps := setupAttendanceServiceTest(t)
		defer deps.db.Close()

		req := attendance.RecordAttendanceRequest{
			EmployeeID: employeeID,
			Date:       "2026-03-02",
			Status:     strPtr("vacationing"),
		}

		_, err := deps.service.Record(ctx, req)

		assert.ErrorIs(t, err, attendanceerrors.ErrInvalidStatus)
	})
}

func TestAttendanceService_GetPunctuality(t *testing.T) {
	ctx := context.Background()
	employeeID := uuid.New().String()
	asOf := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		deps := setupAttendanceServiceTest(t)
		defer deps.db.Close()

		deps.repo.countLateSinceFn = func(ctx context.Context, eid string, since time.Time) (int64, error) {
			assert.Equal(t, "2025-03-02", since.Format("2006-01-02"))
			return 4, nil
		}
		deps.repo.countEarlySinceFn = func(ctx context.Context, eid string, since time.Time) (int64, error) {
			return 2, nil
		}

		resp, err := deps.service.GetPunctuality(ctx, employeeID, asOf)

		assert.NoError(t, err)
		assert.Equal(t, int64(4), resp.LateArrivals)
		assert.Equal(t, int64(2), resp.EarlyLeaves)
		assert.Equal(t, "2025-03-02", resp.WindowStart)
		assert.Equal(t, "2026-03-02", resp.WindowEnd)
	})

	t.Run("negative invalid employee id", func(t *testing.T) {
		deps := setupAttendanceServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.GetPunctuality(ctx, "not-a-uuid", asOf)

		assert.ErrorIs(t, err, attendanceerrors.ErrInvalidEmployeeID)
	})
}
