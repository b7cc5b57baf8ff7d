package rbac_test

import (
	"errors"
	"testing"

	"go-hrm/internal/domain"
	"go-hrm/internal/rbac"
	"go-hrm/internal/rbac/infra"

	"github.com/stretchr/testify/assert"
)

type fakeRBACRepository struct {
	getEmployeeRolesFn   func() ([]rbac.EmployeeRoleRow, error)
	getRolePermissionsFn func() ([]rbac.RolePermissionRow, error)
}

func (f *fakeRBACRepository) GetEmployeeRoles() ([]rbac.EmployeeRoleRow, error) {
	if f.getEmployeeRolesFn != nil {
		return f.getEmployeeRolesFn()
	}
	return nil, nil
}

func (f *fakeRBACRepository) GetRolePermissions() ([]rbac.RolePermissionRow, error) {
	if f.getRolePermissionsFn != nil {
		return f.getRolePermissionsFn()
	}
	return nil, nil
}

func (f *fakeRBACRepository) ListRoles() ([]rbac.RoleRow, error)             { return nil, nil }
func (f *fakeRBACRepository) GetRoleByID(id string) (*rbac.RoleRow, error)   { return nil, nil }
func (f *fakeRBACRepository) GetRoleByName(name string) (*rbac.RoleRow, error) {
	return nil, nil
}
func (f *fakeRBACRepository) CreateRole(role *rbac.RoleRow) error { return nil }
func (f *fakeRBACRepository) UpdateRole(role *rbac.RoleRow) error { return nil }
func (f *fakeRBACRepository) DeleteRole(id string) error          { return nil }
func (f *fakeRBACRepository) ListPermissions() ([]rbac.PermissionRow, error) {
	return nil, nil
}
func (f *fakeRBACRepository) GetPermissionsByRoleID(roleID string) ([]rbac.PermissionRow, error) {
	return nil, nil
}
func (f *fakeRBACRepository) UpdateRolePermissions(roleID string, permIDs []string) error {
	return nil
}

func setupRBACServiceTest(t *testing.T, repo *fakeRBACRepository) rbac.Service {
	t.Helper()

	enforcer, err := infra.NewEnforcer("model.conf")
	assert.NoError(t, err)

	return rbac.NewService(repo, enforcer)
}

func TestRBACService_Enforce(t *testing.T) {
	repo := &fakeRBACRepository{
		getEmployeeRolesFn: func() ([]rbac.EmployeeRoleRow, error) {
			return []rbac.EmployeeRoleRow{
				{EmployeeID: "emp-1", RoleID: "role-hr"},
				{EmployeeID: "emp-2", RoleID: "role-staff"},
			}, nil
		},
		getRolePermissionsFn: func() ([]rbac.RolePermissionRow, error) {
			return []rbac.RolePermissionRow{
				{RoleID: "role-hr", Resource: "leave", Action: "decide"},
				{RoleID: "role-hr", Resource: "leave", Action: "read"},
				{RoleID: "role-staff", Resource: "leave", Action: "read"},
			}, nil
		},
	}
	service := setupRBACServiceTest(t, repo)

	t.Run("role grants the action", func(t *testing.T) {
		allowed, err := service.Enforce(domain.EnforceRequest{
			EmployeeID: "emp-1", Resource: "leave", Action: "decide",
		})

		assert.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("role without the action is denied", func(t *testing.T) {
		allowed, err := service.Enforce(domain.EnforceRequest{
			EmployeeID: "emp-2", Resource: "leave", Action: "decide",
		})

		assert.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("unknown employee is denied", func(t *testing.T) {
		allowed, err := service.Enforce(domain.EnforceRequest{
			EmployeeID: "emp-999", Resource: "leave", Action: "read",
		})

		assert.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("role change applies on the next enforce", func(t *testing.T) {
		allowed, err := service.Enforce(domain.EnforceRequest{
			EmployeeID: "emp-2", Resource: "leave", Action: "decide",
		})
		assert.NoError(t, err)
		assert.False(t, allowed)

		repo.getEmployeeRolesFn = func() ([]rbac.EmployeeRoleRow, error) {
			return []rbac.EmployeeRoleRow{
				{EmployeeID: "emp-2", RoleID: "role-hr"},
			}, nil
		}

		allowed, err = service.Enforce(domain.EnforceRequest{
			EmployeeID: "emp-2", Resource: "leave", Action: "decide",
		})
		assert.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("negative repository failure", func(t *testing.T) {
		failing := &fakeRBACRepository{
			getEmployeeRolesFn: func() ([]rbac.EmployeeRoleRow, error) {
				return nil, errors.New("employee_roles table missing")
			},
		}
		svc := setupRBACServiceTest(t, failing)

		allowed, err := svc.Enforce(domain.EnforceRequest{
			EmployeeID: "emp-1", Resource: "leave", Action: "read",
		})

		assert.Error(t, err)
		assert.False(t, allowed)
	})
}
