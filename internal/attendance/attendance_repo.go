package attendance

import (
	"context"
	"database/sql"
	"time"

	"go-hrm/internal/shared/connection"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, a *Attendance) error
	Update(ctx context.Context, a *Attendance) error
	FindByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*Attendance, error)
	FindByEmployeeAndPeriod(ctx context.Context, employeeID string, from, to time.Time) ([]Attendance, error)
	FindAllByDate(ctx context.Context, date time.Time) ([]Attendance, error)
	CountLateSince(ctx context.Context, employeeID string, since time.Time) (int64, error)
	CountEarlySince(ctx context.Context, employeeID string, since time.Time) (int64, error)
	FindShift(ctx context.Context, shiftID string) (*ShiftRef, error)
	DistinctEmployeeIDsForPeriod(ctx context.Context, from, to time.Time) ([]string, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: connection.GormTx(tx)}
}

func (r *repository) Create(ctx context.Context, a *Attendance) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *repository) Update(ctx context.Context, a *Attendance) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *repository) FindByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*Attendance, error) {
	var a Attendance
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Where("date = ?", date.Format("2006-01-02")).
		First(&a).Error
	return &a, err
}

func (r *repository) FindByEmployeeAndPeriod(ctx context.Context, employeeID string, from, to time.Time) ([]Attendance, error) {
	var rows []Attendance
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Where("date >= ? AND date <= ?", from.Format("2006-01-02"), to.Format("2006-01-02")).
		Order("date ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindAllByDate(ctx context.Context, date time.Time) ([]Attendance, error) {
	var rows []Attendance
	err := r.db.WithContext(ctx).
		Where("date = ?", date.Format("2006-01-02")).
		Order("check_in_time ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) CountLateSince(ctx context.Context, employeeID string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Attendance{}).
		Where("employee_id = ?", employeeID).
		Where("date >= ?", since.Format("2006-01-02")).
		Where("is_late = ?", true).
		Count(&count).Error
	return count, err
}

func (r *repository) CountEarlySince(ctx context.Context, employeeID string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Attendance{}).
		Where("employee_id = ?", employeeID).
		Where("date >= ?", since.Format("2006-01-02")).
		Where("is_early_leave = ?", true).
		Count(&count).Error
	return count, err
}

func (r *repository) FindShift(ctx context.Context, shiftID string) (*ShiftRef, error) {
	var s ShiftRef
	err := r.db.WithContext(ctx).First(&s, "id = ?", shiftID).Error
	return &s, err
}

func (r *repository) DistinctEmployeeIDsForPeriod(ctx context.Context, from, to time.Time) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&Attendance{}).
		Distinct("employee_id::text").
		Where("date >= ? AND date <= ?", from.Format("2006-01-02"), to.Format("2006-01-02")).
		Pluck("employee_id", &ids).Error
	return ids, err
}

type SummaryRepository interface {
	WithTx(tx *sql.Tx) SummaryRepository
	// Upsert overwrites the single row for (employee, month, year); the
	// unique constraint serializes concurrent recomputations of the same
	// period.
	Upsert(ctx context.Context, s *AttendanceSummary) error
	FindByEmployeeAndPeriod(ctx context.Context, employeeID string, month, year int) (*AttendanceSummary, error)
}

type summaryRepository struct {
	db *gorm.DB
}

func NewSummaryRepository(db *gorm.DB) SummaryRepository {
	return &summaryRepository{db: db}
}

func (r *summaryRepository) WithTx(tx *sql.Tx) SummaryRepository {
	return &summaryRepository{db: connection.GormTx(tx)}
}

func (r *summaryRepository) Upsert(ctx context.Context, s *AttendanceSummary) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "employee_id"}, {Name: "month"}, {Name: "year"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"total_working_days",
				"days_present",
				"days_absent",
				"days_half_day",
				"days_on_leave",
				"days_late",
				"days_early_leave",
				"total_hours_worked",
				"overtime_hours",
				"attendance_percentage",
				"updated_at",
			}),
		}).
		Create(s).Error
}

func (r *summaryRepository) FindByEmployeeAndPeriod(ctx context.Context, employeeID string, month, year int) (*AttendanceSummary, error) {
	var s AttendanceSummary
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Where("month = ?", month).
		Where("year = ?", year).
		First(&s).Error
	return &s, err
}
