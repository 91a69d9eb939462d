package rbac_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/travel-commerce-api/internal/domain/rbac"
)

func TestPrincipal_HasPermissionEsPertenenciaExacta(t *testing.T) {
	p := rbac.NewPrincipal("u1", []string{"ADMIN"}, []string{rbac.PermBookingApprove})

	assert.True(t, p.HasPermission(rbac.PermBookingApprove))
	assert.False(t, p.HasPermission("booking:*"))
	assert.False(t, p.HasPermission("booking"))
	assert.True(t, p.HasAnyPermission(rbac.PermRoleAssign, rbac.PermBookingApprove))
	assert.False(t, p.IsSuperAdmin())
	assert.Equal(t, "u1", p.UserID())
}

func TestPrincipal_NoSeAlteraAlModificarLaEntrada(t *testing.T) {
	perms := []string{rbac.PermTripPublish}
	p := rbac.NewPrincipal("u1", nil, perms)
	perms[0] = rbac.PermRoleAssign

	assert.True(t, p.HasPermission(rbac.PermTripPublish))
	assert.False(t, p.HasPermission(rbac.PermRoleAssign))
}

func TestPrincipal_ListasOrdenadas(t *testing.T) {
	p := rbac.NewPrincipal("u1", []string{"USER", "ADMIN"}, []string{"trip:submit", "booking:create"})
	assert.Equal(t, []string{"ADMIN", "USER"}, p.Roles())
	assert.Equal(t, []string{"booking:create", "trip:submit"}, p.Permissions())
	assert.True(t, rbac.Principal{}.IsZero())
}

func TestNormalizeRoleName(t *testing.T) {
	assert.Equal(t, "SUPER_ADMIN", rbac.NormalizeRoleName(" super-admin "))
	assert.Equal(t, "USER", rbac.NormalizeRoleName("user"))
}

func TestSystemRoles_SoloSuperAdminAsignaSuperAdmin(t *testing.T) {
	for _, r := range rbac.SystemRoles() {
		has := false
		for _, k := range r.Permissions {
			if k == rbac.PermRoleAssign {
				has = true
			}
		}
		assert.Equal(t, r.Name == "SUPER_ADMIN", has, r.Name)
	}
	assert.Contains(t, rbac.AllPermissions(), rbac.PermTripRestore)
}
