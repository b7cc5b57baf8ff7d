package employee_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"go-hrm/internal/employee"
	employeeerrors "go-hrm/internal/employee/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

type fakeCounterRepository struct {
	getNextValueFn func(ctx context.Context, counterType string) (int64, error)
}

func (f *fakeCounterRepository) GetNextValue(ctx context.Context, counterType string) (int64, error) {
	if f.getNextValueFn != nil {
		return f.getNextValueFn(ctx, counterType)
	}
	return 1, nil
}

type fakeReconciler struct {
	reconcileFn    func(ctx context.Context, employeeID string, today time.Time) error
	reconcileAllFn func(ctx context.Context, today time.Time) (int, error)
	sweeps         int
}

func (f *fakeReconciler) Reconcile(ctx context.Context, employeeID string, today time.Time) error {
	if f.reconcileFn != nil {
		return f.reconcileFn(ctx, employeeID, today)
	}
	return nil
}

func (f *fakeReconciler) ReconcileAll(ctx context.Context, today time.Time) (int, error) {
	f.sweeps++
	if f.reconcileAllFn != nil {
		return f.reconcileAllFn(ctx, today)
	}
	return 0, nil
}

type employeeServiceDeps struct {
	db          *sql.DB
	sqlMock     sqlmock.Sqlmock
	service     employee.Service
	repo        *fakeEmployeeRepository
	counterRepo *fakeCounterRepository
	reconciler  *fakeReconciler
}

func setupEmployeeServiceTest(t *testing.T) *employeeServiceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := &fakeEmployeeRepository{}
	counterRepo := &fakeCounterRepository{}
	rec := &fakeReconciler{}
	svc := employee.NewService(db, repo, counterRepo, rec)

	return &employeeServiceDeps{
		db:          db,
		sqlMock:     sqlMock,
		service:     svc,
		repo:        repo,
		counterRepo: counterRepo,
		reconciler:  rec,
	}
}

func strPtr(s string) *string { return &s }

func TestEmployeeService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		deps := setupEmployeeServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		deps.counterRepo.getNextValueFn = func(ctx context.Context, counterType string) (int64, error) {
			assert.Equal(t, "employee", counterType)
			return 42, nil
		}

		var created employee.Employee
		deps.repo.createFn = func(ctx context.Context, e *employee.Employee) error {
			created = *e
			return nil
		}

		resp, err := deps.service.Create(ctx, employee.CreateEmployeeRequest{
			FirstName:   "Budi",
			LastName:    "Santoso",
			Email:       "Budi.Santoso@Example.com",
			Position:    "Engineer",
			JoiningDate: strPtr("2026-01-05"),
		})

		assert.NoError(t, err)
		assert.Equal(t, "EMP-000042", resp.EmployeeCode)
		assert.Equal(t, employee.StatusActive, resp.Status)
		assert.Equal(t, "budi.santoso@example.com", created.Email)
		assert.Equal(t, "permanent", created.EmploymentType)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative duplicate email", func(t *testing.T) {
		deps := setupEmployeeServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		deps.repo.createFn = func(ctx context.Context, e *employee.Employee) error {
			return &pgconn.PgError{Code: "23505"}
		}

		_, err := deps.service.Create(ctx, employee.CreateEmployeeRequest{
			FirstName: "Budi",
			LastName:  "Santoso",
			Email:     "budi@example.com",
			Position:  "Engineer",
		})

		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeEmailAlreadyExists)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative bad joining date", func(t *testing.T) {
		deps := setupEmployeeServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.Create(ctx, employee.CreateEmployeeRequest{
			FirstName:   "Budi",
			LastName:    "Santoso",
			Email:       "budi@example.com",
			Position:    "Engineer",
			JoiningDate: strPtr("05-01-2026"),
		})

		assert.ErrorIs(t, err, employeeerrors.ErrInvalidDateFormat)
	})
}

func TestEmployeeService_GetAll(t *testing.T) {
	ctx := context.Background()

	t.Run("reconciles before listing", func(t *testing.T) {
		deps := setupEmployeeServiceTest(t)
		defer deps.db.Close()

		deps.repo.findAllFn = func(ctx context.Context, limit, offset int) ([]employee.Employee, int64, error) {
			return []employee.Employee{
				{ID: uuid.New(), EmployeeCode: "EMP-000001", Status: employee.StatusOnLeave},
			}, 1, nil
		}

		rows, total, err := deps.service.GetAll(ctx, 20, 0)

		assert.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Len(t, rows, 1)
		assert.Equal(t, 1, deps.reconciler.sweeps)
	})

	t.Run("serves the listing when the sweep fails", func(t *testing.T) {
		deps := setupEmployeeServiceTest(t)
		defer deps.db.Close()

		deps.reconciler.reconcileAllFn = func(ctx context.Context, today time.Time) (int, error) {
			return 0, errors.New("leave_requests table locked")
		}
		deps.repo.findAllFn = func(ctx context.Context, limit, offset int) ([]employee.Employee, int64, error) {
			return []employee.Employee{{ID: uuid.New(), Status: employee.StatusActive}}, 1, nil
		}

		rows, _, err := deps.service.GetAll(ctx, 20, 0)

		assert.NoError(t, err)
		assert.Len(t, rows, 1)
	})
}

func TestEmployeeService_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("success after single reconcile", func(t *testing.T) {
		deps := setupEmployeeServiceTest(t)
		defer deps.db.Close()

		id := uuid.New()
		reconciled := ""
		deps.reconciler.reconcileFn = func(ctx context.Context, employeeID string, today time.Time) error {
			reconciled = employeeID
			return nil
		}
		deps.repo.findByIDFn = func(ctx context.Context, eid string) (*employee.Employee, error) {
			return &employee.Employee{ID: id, EmployeeCode: "EMP-000007", Status: employee.StatusOnLeave}, nil
		}

		resp, err := deps.service.GetByID(ctx, id.String())

		assert.NoError(t, err)
		assert.Equal(t, id.String(), reconciled)
		assert.Equal(t, employee.StatusOnLeave, resp.Status)
	})

	t.Run("negative not found", func(t *testing.T) {
		deps := setupEmployeeServiceTest(t)
		defer deps.db.Close()

		deps.reconciler.reconcileFn = func(ctx context.Context, employeeID string, today time.Time) error {
			return employeeerrors.ErrEmployeeNotFound
		}

		_, err := deps.service.GetByID(ctx, uuid.New().String())

		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeNotFound)
	})
}

func TestEmployeeService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("partial update keeps untouched fields", func(t *testing.T) {
		deps := setupEmployeeServiceTest(t)
		defer deps.db.Close()

		id := uuid.New()
		expectTx(t, deps.sqlMock, true)
		deps.repo.findByIDFn = func(ctx context.Context, eid string) (*employee.Employee, error) {
			return &employee.Employee{
				ID:           id,
				EmployeeCode: "EMP-000003",
				FirstName:    "Budi",
				Position:     "Engineer",
				Status:       employee.StatusActive,
			}, nil
		}

		var saved employee.Employee
		deps.repo.updateFn = func(ctx context.Context, e *employee.Employee) error {
			saved = *e
			return nil
		}

		resp, err := deps.service.Update(ctx, id.String(), employee.UpdateEmployeeRequest{
			Position: strPtr("Senior Engineer"),
		})

		assert.NoError(t, err)
		assert.Equal(t, "Senior Engineer", resp.Position)
		assert.Equal(t, "Budi", saved.FirstName)
		assert.Equal(t, employee.StatusActive, saved.Status)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative unknown employee", func(t *testing.T) {
		deps := setupEmployeeServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)

		_, err := deps.service.Update(ctx, uuid.New().String(), employee.UpdateEmployeeRequest{})

		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeNotFound)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestEmployeeService_GetStats(t *testing.T) {
	ctx := context.Background()

	t.Run("aggregates the counts after a sweep", func(t *testing.T) {
		deps := setupEmployeeServiceTest(t)
		defer deps.db.Close()

		deps.repo.countByStatusFn = func(ctx context.Context) (map[string]int64, error) {
			return map[string]int64{
				employee.StatusActive:     8,
				employee.StatusOnLeave:    2,
				employee.StatusInactive:   1,
				employee.StatusTerminated: 3,
			}, nil
		}
		deps.repo.countPresentOnFn = func(ctx context.Context, day time.Time) (int64, error) {
			return 6, nil
		}

		stats, err := deps.service.GetStats(ctx)

		assert.NoError(t, err)
		assert.Equal(t, int64(14), stats.TotalEmployees)
		assert.Equal(t, int64(8), stats.ActiveToday)
		assert.Equal(t, int64(6), stats.PresentToday)
		assert.Equal(t, int64(2), stats.OnLeaveToday)
		assert.Equal(t, 1, deps.reconciler.sweeps)
	})
}
