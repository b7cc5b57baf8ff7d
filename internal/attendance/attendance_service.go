package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	attendanceerrors "go-hrm/internal/attendance/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// punctualityWindowDays is the trailing window for the late/early rolling
// counts shown on HR dashboards.
const punctualityWindowDays = 365

type Service interface {
	Record(ctx context.Context, req RecordAttendanceRequest) (AttendanceResponse, error)
	GetDaily(ctx context.Context, date time.Time) ([]AttendanceResponse, error)
	GetPunctuality(ctx context.Context, employeeID string, asOf time.Time) (PunctualityResponse, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("attendance.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("attendance.service")
	}
	return &service{db: db, repo: repo, logger: l}
}

// Record writes the attendance facts for (employee, date). A second call
// for the same key updates the existing row in place; the unique constraint
// decides insert races and the loser retries as an update.
func (s *service) Record(ctx context.Context, req RecordAttendanceRequest) (AttendanceResponse, error) {
	s.logger.Debug("record attendance requested",
		zap.String("employee_id", req.EmployeeID),
		zap.String("date", req.Date),
	)

	employeeID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return AttendanceResponse{}, attendanceerrors.ErrInvalidEmployeeID
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return AttendanceResponse{}, attendanceerrors.ErrInvalidDateFormat
	}
	checkIn, err := parseTimePtr(req.CheckInTime)
	if err != nil {
		return AttendanceResponse{}, err
	}
	checkOut, err := parseTimePtr(req.CheckOutTime)
	if err != nil {
		return AttendanceResponse{}, err
	}
	if checkIn != nil && checkOut != nil && checkOut.Before(*checkIn) {
		return AttendanceResponse{}, attendanceerrors.ErrInvalidCheckOutOrder
	}
	if req.Status != nil && !validStatus(*req.Status) {
		return AttendanceResponse{}, attendanceerrors.ErrInvalidStatus
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("record attendance begin tx failed", zap.Error(err))
		return AttendanceResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	var shift *ShiftRef
	var shiftID *uuid.UUID
	if req.ShiftID != nil && *req.ShiftID != "" {
		parsed, perr := uuid.Parse(*req.ShiftID)
		if perr != nil {
			return AttendanceResponse{}, attendanceerrors.ErrShiftNotFound
		}
		shift, err = qtx.FindShift(ctx, *req.ShiftID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return AttendanceResponse{}, attendanceerrors.ErrShiftNotFound
			}
			return AttendanceResponse{}, err
		}
		shiftID = &parsed
	}

	row, err := qtx.FindByEmployeeAndDate(ctx, req.EmployeeID, date)
	switch {
	case err == nil:
		// Re-record without shift_id: re-read the shift the row was
		// derived against so the lateness fields are not wiped.
		if shift == nil {
			if shift, err = rowShift(ctx, qtx, row.ShiftID); err != nil {
				return AttendanceResponse{}, err
			}
		}
		applyRecord(row, shiftID, checkIn, checkOut, req, shift)
		err = qtx.Update(ctx, row)
	case errors.Is(err, gorm.ErrRecordNotFound):
		row = &Attendance{
			ID:         uuid.New(),
			EmployeeID: employeeID,
			Date:       date,
		}
		applyRecord(row, shiftID, checkIn, checkOut, req, shift)
		err = qtx.Create(ctx, row)
		if isUniqueViolation(err) {
			// Lost the insert race: another writer created the row first.
			// Re-read and retry once as an update.
			s.logger.Warn("record attendance insert race, retrying as update",
				zap.String("employee_id", req.EmployeeID),
				zap.String("date", req.Date),
			)
			row, err = qtx.FindByEmployeeAndDate(ctx, req.EmployeeID, date)
			if err != nil {
				return AttendanceResponse{}, attendanceerrors.ErrDuplicateRecord
			}
			if shift == nil {
				if shift, err = rowShift(ctx, qtx, row.ShiftID); err != nil {
					return AttendanceResponse{}, err
				}
			}
			applyRecord(row, shiftID, checkIn, checkOut, req, shift)
			err = qtx.Update(ctx, row)
		}
	default:
		return AttendanceResponse{}, err
	}
	if err != nil {
		s.logger.Error("record attendance persist failed",
			zap.String("employee_id", req.EmployeeID),
			zap.String("date", req.Date),
			zap.Error(err),
		)
		return AttendanceResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("record attendance commit failed", zap.Error(err))
		return AttendanceResponse{}, err
	}
	s.logger.Info("record attendance success",
		zap.String("attendance_id", row.ID.String()),
		zap.String("employee_id", req.EmployeeID),
		zap.String("status", row.Status),
	)

	return mapToResponse(*row), nil
}

func (s *service) GetDaily(ctx context.Context, date time.Time) ([]AttendanceResponse, error) {
	rows, err := s.repo.FindAllByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	res := make([]AttendanceResponse, len(rows))
	for i, r := range rows {
		res[i] = mapToResponse(r)
	}
	return res, nil
}

func (s *service) GetPunctuality(ctx context.Context, employeeID string, asOf time.Time) (PunctualityResponse, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return PunctualityResponse{}, attendanceerrors.ErrInvalidEmployeeID
	}
	since := asOf.AddDate(0, 0, -punctualityWindowDays)

	lateCount, err := s.repo.CountLateSince(ctx, employeeID, since)
	if err != nil {
		return PunctualityResponse{}, err
	}
	earlyCount, err := s.repo.CountEarlySince(ctx, employeeID, since)
	if err != nil {
		return PunctualityResponse{}, err
	}

	return PunctualityResponse{
		EmployeeID:   employeeID,
		LateArrivals: lateCount,
		EarlyLeaves:  earlyCount,
		WindowStart:  since.Format("2006-01-02"),
		WindowEnd:    asOf.Format("2006-01-02"),
	}, nil
}

// rowShift loads the shift a stored row references. A deleted shift is
// treated as no shift at all.
func rowShift(ctx context.Context, repo Repository, shiftID *uuid.UUID) (*ShiftRef, error) {
	if shiftID == nil {
		return nil, nil
	}
	shift, err := repo.FindShift(ctx, shiftID.String())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return shift, nil
}

// applyRecord fills the derived fields from the raw check-in/out facts.
func applyRecord(row *Attendance, shiftID *uuid.UUID, checkIn, checkOut *time.Time, req RecordAttendanceRequest, shift *ShiftRef) {
	if shiftID != nil {
		row.ShiftID = shiftID
	}
	if checkIn != nil {
		row.CheckInTime = checkIn
	}
	if checkOut != nil {
		row.CheckOutTime = checkOut
	}
	if req.Location != nil {
		row.Location = req.Location
	}
	if req.Remarks != nil {
		row.Remarks = req.Remarks
	}

	row.IsLate, row.LateByMinutes = deriveLateness(row.CheckInTime, shift, row.Date)
	row.IsEarlyLeave, row.EarlyByMinutes = deriveEarlyLeave(row.CheckOutTime, shift, row.Date)
	row.TotalHours = workedHours(row.CheckInTime, row.CheckOutTime)

	switch {
	case req.Status != nil && *req.Status != "":
		row.Status = *req.Status
	case row.IsLate:
		row.Status = StatusLate
	default:
		row.Status = StatusPresent
	}
}

// deriveLateness compares the check-in to shift start plus grace; minutes
// are counted beyond the grace deadline and clamp to zero.
func deriveLateness(checkIn *time.Time, shift *ShiftRef, date time.Time) (bool, int) {
	if checkIn == nil || shift == nil {
		return false, 0
	}
	start, err := shiftClock(shift.StartTime, date)
	if err != nil {
		return false, 0
	}
	deadline := start.Add(time.Duration(shift.GracePeriodMinutes) * time.Minute)
	if !checkIn.After(deadline) {
		return false, 0
	}
	return true, int(checkIn.Sub(deadline).Minutes())
}

func deriveEarlyLeave(checkOut *time.Time, shift *ShiftRef, date time.Time) (bool, int) {
	if checkOut == nil || shift == nil {
		return false, 0
	}
	end, err := shiftClock(shift.EndTime, date)
	if err != nil {
		return false, 0
	}
	if !checkOut.Before(end) {
		return false, 0
	}
	return true, int(end.Sub(*checkOut).Minutes())
}

// shiftClock places an HH:MM shift time on the given calendar date.
func shiftClock(clock string, date time.Time) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		if t, err = time.Parse("15:04:05", clock); err != nil {
			return time.Time{}, fmt.Errorf("parse shift time %q: %w", clock, err)
		}
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC), nil
}

func workedHours(checkIn, checkOut *time.Time) decimal.Decimal {
	if checkIn == nil || checkOut == nil || checkOut.Before(*checkIn) {
		return decimal.Zero
	}
	hours := checkOut.Sub(*checkIn).Hours()
	return decimal.NewFromFloat(hours).Round(2)
}

func validStatus(status string) bool {
	switch status {
	case StatusPresent, StatusAbsent, StatusLate, StatusHalfDay, StatusOnLeave:
		return true
	}
	return false
}

func parseTimePtr(v *string) (*time.Time, error) {
	if v == nil || *v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *v)
	if err != nil {
		return nil, attendanceerrors.ErrInvalidTimeFormat
	}
	utc := t.UTC()
	return &utc, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func mapToResponse(a Attendance) AttendanceResponse {
	resp := AttendanceResponse{
		ID:             a.ID.String(),
		EmployeeID:     a.EmployeeID.String(),
		Date:           a.Date.Format("2006-01-02"),
		TotalHours:     a.TotalHours.String(),
		Status:         a.Status,
		IsLate:         a.IsLate,
		LateByMinutes:  a.LateByMinutes,
		IsEarlyLeave:   a.IsEarlyLeave,
		EarlyByMinutes: a.EarlyByMinutes,
		Location:       a.Location,
		Remarks:        a.Remarks,
	}
	if a.ShiftID != nil {
		v := a.ShiftID.String()
		resp.ShiftID = &v
	}
	if a.CheckInTime != nil {
		v := a.CheckInTime.Format(time.RFC3339)
		resp.CheckInTime = &v
	}
	if a.CheckOutTime != nil {
		v := a.CheckOutTime.Format(time.RFC3339)
		resp.CheckOutTime = &v
	}
	return resp
}
