package leave_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"go-hrm/internal/leave"
	leaveerrors "go-hrm/internal/leave/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newLedgerMock(t *testing.T) (leave.Ledger, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	assert.NoError(t, err)

	return leave.NewLedger(gdb), mock, db
}

func balanceColumns() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "employee_id", "leave_type_id", "year",
		"total_allocated", "used", "pending", "balance", "updated_at",
	})
}

func TestLedger_Reserve(t *testing.T) {
	ctx := context.Background()
	employeeID := uuid.New()
	leaveTypeID := uuid.New()
	days := decimal.NewFromInt(3)

	t.Run("runs inside the supplied transaction", func(t *testing.T) {
		ledger, poolMock, poolDB := newLedgerMock(t)
		defer poolDB.Close()

		// The tx lives on its own connection; the pool must stay untouched.
		txDB, txMock, err := sqlmock.New()
		assert.NoError(t, err)
		defer txDB.Close()

		txMock.ExpectBegin()
		txMock.ExpectExec(`UPDATE "leave_balances" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		txMock.ExpectCommit()

		tx, err := txDB.Begin()
		assert.NoError(t, err)

		err = ledger.WithTx(tx).Reserve(ctx, employeeID, leaveTypeID, 2026, days)

		assert.NoError(t, err)
		assert.NoError(t, tx.Commit())
		assert.NoError(t, txMock.ExpectationsWereMet())
		assert.NoError(t, poolMock.ExpectationsWereMet())
	})

	t.Run("guarded update moves days into pending", func(t *testing.T) {
		ledger, mock, db := newLedgerMock(t)
		defer db.Close()

		mock.ExpectExec(`UPDATE "leave_balances" SET "balance"=balance - .+"pending"=pending \+ .+ WHERE .+balance >= `).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := ledger.Reserve(ctx, employeeID, leaveTypeID, 2026, days)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("negative insufficient balance", func(t *testing.T) {
		ledger, mock, db := newLedgerMock(t)
		defer db.Close()

		mock.ExpectExec(`UPDATE "leave_balances" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "leave_balances"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		err := ledger.Reserve(ctx, employeeID, leaveTypeID, 2026, days)

		assert.ErrorIs(t, err, leaveerrors.ErrInsufficientBalance)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("negative missing balance row", func(t *testing.T) {
		ledger, mock, db := newLedgerMock(t)
		defer db.Close()

		mock.ExpectExec(`UPDATE "leave_balances" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "leave_balances"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		err := ledger.Reserve(ctx, employeeID, leaveTypeID, 2026, days)

		assert.ErrorIs(t, err, leaveerrors.ErrBalanceNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLedger_Commit(t *testing.T) {
	ctx := context.Background()
	employeeID := uuid.New()
	leaveTypeID := uuid.New()
	days := decimal.NewFromInt(3)

	t.Run("moves pending days to used", func(t *testing.T) {
		ledger, mock, db := newLedgerMock(t)
		defer db.Close()

		mock.ExpectExec(`UPDATE "leave_balances" SET .+"used"=used \+ .+ WHERE .+pending >= `).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := ledger.Commit(ctx, employeeID, leaveTypeID, 2026, days)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("negative nothing pending to commit", func(t *testing.T) {
		ledger, mock, db := newLedgerMock(t)
		defer db.Close()

		mock.ExpectExec(`UPDATE "leave_balances" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := ledger.Commit(ctx, employeeID, leaveTypeID, 2026, days)

		assert.ErrorIs(t, err, leaveerrors.ErrLedgerConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLedger_Release(t *testing.T) {
	ctx := context.Background()
	employeeID := uuid.New()
	leaveTypeID := uuid.New()
	days := decimal.RequireFromString("0.5")

	t.Run("returns pending days to the balance", func(t *testing.T) {
		ledger, mock, db := newLedgerMock(t)
		defer db.Close()

		mock.ExpectExec(`UPDATE "leave_balances" SET "balance"=balance \+ .+ WHERE .+pending >= `).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := ledger.Release(ctx, employeeID, leaveTypeID, 2026, days)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("negative nothing pending to release", func(t *testing.T) {
		ledger, mock, db := newLedgerMock(t)
		defer db.Close()

		mock.ExpectExec(`UPDATE "leave_balances" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := ledger.Release(ctx, employeeID, leaveTypeID, 2026, days)

		assert.ErrorIs(t, err, leaveerrors.ErrLedgerConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLedger_Ensure(t *testing.T) {
	ctx := context.Background()
	employeeID := uuid.New()
	leaveTypeID := uuid.New()

	t.Run("returns the existing row", func(t *testing.T) {
		ledger, mock, db := newLedgerMock(t)
		defer db.Close()

		mock.ExpectQuery(`SELECT \* FROM "leave_balances"`).
			WillReturnRows(balanceColumns().AddRow(
				uuid.NewString(), employeeID.String(), leaveTypeID.String(), 2026,
				"12", "3", "0", "9", time.Now(),
			))

		b, err := ledger.Ensure(ctx, employeeID, leaveTypeID, 2026)

		assert.NoError(t, err)
		assert.Equal(t, "9", b.Balance.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lost create race re-reads the winner", func(t *testing.T) {
		ledger, mock, db := newLedgerMock(t)
		defer db.Close()

		mock.ExpectQuery(`SELECT \* FROM "leave_balances"`).
			WillReturnRows(balanceColumns())
		mock.ExpectQuery(`SELECT \* FROM "leave_types"`).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "name", "code", "max_days_per_year",
				"requires_medical_certificate", "is_active",
			}).AddRow(leaveTypeID.String(), "Annual Leave", "ANNUAL", 12, false, true))
		mock.ExpectQuery(`INSERT INTO "leave_balances"`).
			WillReturnError(&pgconn.PgError{Code: "23505"})
		mock.ExpectQuery(`SELECT \* FROM "leave_balances"`).
			WillReturnRows(balanceColumns().AddRow(
				uuid.NewString(), employeeID.String(), leaveTypeID.String(), 2026,
				"12", "2", "1", "9", time.Now(),
			))

		b, err := ledger.Ensure(ctx, employeeID, leaveTypeID, 2026)

		assert.NoError(t, err)
		assert.Equal(t, "2", b.Used.String())
		assert.Equal(t, "1", b.Pending.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("negative unknown leave type", func(t *testing.T) {
		ledger, mock, db := newLedgerMock(t)
		defer db.Close()

		mock.ExpectQuery(`SELECT \* FROM "leave_balances"`).
			WillReturnRows(balanceColumns())
		mock.ExpectQuery(`SELECT \* FROM "leave_types"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := ledger.Ensure(ctx, employeeID, leaveTypeID, 2026)

		assert.ErrorIs(t, err, leaveerrors.ErrLeaveTypeNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
