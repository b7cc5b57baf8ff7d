package employee

import (
	"context"
	"database/sql"
	"time"

	"go-hrm/internal/shared/connection"

	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, e *Employee) error
	FindAll(ctx context.Context, limit, offset int) ([]Employee, int64, error)
	FindByID(ctx context.Context, id string) (*Employee, error)
	Update(ctx context.Context, e *Employee) error
	Delete(ctx context.Context, id string) error
	// UpdateStatusIf flips status only while the row still holds the
	// expected value. Returns false when a concurrent writer got there first.
	UpdateStatusIf(ctx context.Context, id, from, to string) (bool, error)
	// FindAllForReconcile loads just id and status for every employee, the
	// two columns the batch reconciler compares.
	FindAllForReconcile(ctx context.Context) ([]Employee, error)
	IsOnApprovedLeave(ctx context.Context, employeeID string, day time.Time) (bool, error)
	FindIDsOnApprovedLeave(ctx context.Context, day time.Time) (map[string]bool, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
	CountPresentOn(ctx context.Context, day time.Time) (int64, error)
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

func (r *repository) Create(ctx context.Context, e *Employee) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *repository) FindAll(ctx context.Context, limit, offset int) ([]Employee, int64, error) {
	var rows []Employee
	var total int64

	q := r.db.WithContext(ctx).Model(&Employee{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("employee_code ASC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	return rows, total, err
}

func (r *repository) FindByID(ctx context.Context, id string) (*Employee, error) {
	var e Employee
	err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error
	return &e, err
}

func (r *repository) Update(ctx context.Context, e *Employee) error {
	return r.db.WithContext(ctx).Save(e).Error
}

func (r *repository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&Employee{}, "id = ?", id).Error
}

func (r *repository) UpdateStatusIf(ctx context.Context, id, from, to string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&Employee{}).
		Where("id = ?", id).
		Where("status = ?", from).
		Updates(map[string]any{
			"status":     to,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) FindAllForReconcile(ctx context.Context) ([]Employee, error) {
	var rows []Employee
	err := r.db.WithContext(ctx).
		Model(&Employee{}).
		Select("id", "status").
		Find(&rows).Error
	return rows, err
}

// approvedLeaveOn is the single definition of "on leave": an approved
// leave request whose inclusive date range covers the given day. Both the
// per-employee check and the batch scan go through it so they can never
// disagree.
func approvedLeaveOn(db *gorm.DB, day time.Time) *gorm.DB {
	return db.Table("leave_requests").
		Where("status = ?", "approved").
		Where("start_date <= ?", day).
		Where("end_date >= ?", day)
}

func (r *repository) IsOnApprovedLeave(ctx context.Context, employeeID string, day time.Time) (bool, error) {
	var count int64
	err := approvedLeaveOn(r.db.WithContext(ctx), day).
		Where("employee_id = ?", employeeID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) FindIDsOnApprovedLeave(ctx context.Context, day time.Time) (map[string]bool, error) {
	var ids []string
	err := approvedLeaveOn(r.db.WithContext(ctx), day).
		Distinct("employee_id::text").
		Pluck("employee_id", &ids).Error
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func (r *repository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string
		Total  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&Employee{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Total
	}
	return counts, nil
}

func (r *repository) CountPresentOn(ctx context.Context, day time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("attendance").
		Where("date = ?", day.Format("2006-01-02")).
		Where("status IN ?", []string{"present", "late", "half-day"}).
		Count(&count).Error
	return count, err
}
