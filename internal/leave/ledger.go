package leave

import (
	"context"
	"database/sql"
	"errors"
	"time"

	leaveerrors "go-hrm/internal/leave/errors"
	"go-hrm/internal/shared/connection"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Ledger maintains the per (employee, leave type, year) counters. Every
// mutation keeps balance = total_allocated - used - pending and all three
// counters non-negative; the guards live in the UPDATE statements so a lost
// race can never drive a counter below zero.
type Ledger interface {
	WithTx(tx *sql.Tx) Ledger
	Ensure(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int) (*LeaveBalance, error)
	Reserve(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int, days decimal.Decimal) error
	Commit(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int, days decimal.Decimal) error
	Release(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int, days decimal.Decimal) error
	FindByEmployeeAndYear(ctx context.Context, employeeID string, year int) ([]LeaveBalance, error)
}

type ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) Ledger {
	return &ledger{db: db}
}

func (l *ledger) WithTx(tx *sql.Tx) Ledger {
	return &ledger{db: connection.GormTx(tx)}
}

// Ensure returns the balance row for the key, creating it lazily with the
// allocation seeded from the leave type's max_days_per_year (0 if unset).
// A concurrent create is resolved by re-reading after a unique violation.
func (l *ledger) Ensure(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int) (*LeaveBalance, error) {
	var b LeaveBalance
	err := l.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Where("leave_type_id = ?", leaveTypeID).
		Where("year = ?", year).
		First(&b).Error
	if err == nil {
		return &b, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var lt LeaveTypeRef
	if err := l.db.WithContext(ctx).First(&lt, "id = ?", leaveTypeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, leaveerrors.ErrLeaveTypeNotFound
		}
		return nil, err
	}

	allocated := decimal.NewFromInt(int64(lt.MaxDaysPerYear))
	b = LeaveBalance{
		ID:             uuid.New(),
		EmployeeID:     employeeID,
		LeaveTypeID:    leaveTypeID,
		Year:           year,
		TotalAllocated: allocated,
		Used:           decimal.Zero,
		Pending:        decimal.Zero,
		Balance:        allocated,
		UpdatedAt:      time.Now().UTC(),
	}
	if err := l.db.WithContext(ctx).Create(&b).Error; err != nil {
		if isUniqueViolation(err) {
			var existing LeaveBalance
			if ferr := l.db.WithContext(ctx).
				Where("employee_id = ?", employeeID).
				Where("leave_type_id = ?", leaveTypeID).
				Where("year = ?", year).
				First(&existing).Error; ferr == nil {
				return &existing, nil
			}
		}
		return nil, err
	}
	return &b, nil
}

// Reserve moves days into pending. The balance guard in the WHERE clause
// enforces the sufficiency check atomically.
func (l *ledger) Reserve(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int, days decimal.Decimal) error {
	res := l.db.WithContext(ctx).
		Model(&LeaveBalance{}).
		Where("employee_id = ?", employeeID).
		Where("leave_type_id = ?", leaveTypeID).
		Where("year = ?", year).
		Where("balance >= ?", days).
		Updates(map[string]any{
			"pending":    gorm.Expr("pending + ?", days),
			"balance":    gorm.Expr("balance - ?", days),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		exists, err := l.exists(ctx, employeeID, leaveTypeID, year)
		if err != nil {
			return err
		}
		if !exists {
			return leaveerrors.ErrBalanceNotFound
		}
		return leaveerrors.ErrInsufficientBalance
	}
	return nil
}

// Commit moves days from pending to used on approval. The pending guard
// makes the operation safe against double application.
func (l *ledger) Commit(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int, days decimal.Decimal) error {
	res := l.db.WithContext(ctx).
		Model(&LeaveBalance{}).
		Where("employee_id = ?", employeeID).
		Where("leave_type_id = ?", leaveTypeID).
		Where("year = ?", year).
		Where("pending >= ?", days).
		Updates(map[string]any{
			"pending":    gorm.Expr("pending - ?", days),
			"used":       gorm.Expr("used + ?", days),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return leaveerrors.ErrLedgerConflict
	}
	return nil
}

// Release returns pending days to the balance on rejection.
func (l *ledger) Release(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int, days decimal.Decimal) error {
	res := l.db.WithContext(ctx).
		Model(&LeaveBalance{}).
		Where("employee_id = ?", employeeID).
		Where("leave_type_id = ?", leaveTypeID).
		Where("year = ?", year).
		Where("pending >= ?", days).
		Updates(map[string]any{
			"pending":    gorm.Expr("pending - ?", days),
			"balance":    gorm.Expr("balance + ?", days),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return leaveerrors.ErrLedgerConflict
	}
	return nil
}

func (l *ledger) FindByEmployeeAndYear(ctx context.Context, employeeID string, year int) ([]LeaveBalance, error) {
	var rows []LeaveBalance
	err := l.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Where("year = ?", year).
		Order("leave_type_id").
		Find(&rows).Error
	return rows, err
}

func (l *ledger) exists(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int) (bool, error) {
	var count int64
	err := l.db.WithContext(ctx).
		Model(&LeaveBalance{}).
		Where("employee_id = ?", employeeID).
		Where("leave_type_id = ?", leaveTypeID).
		Where("year = ?", year).
		Count(&count).Error
	return count > 0, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
