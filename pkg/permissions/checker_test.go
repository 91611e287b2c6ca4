package permissions

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hcdash/hcdash-backend/pkg/tenant"
)

func TestHasPermission(t *testing.T) {
	tests := []struct {
		name     string
		perms    []string
		required string
		want     bool
	}{
		{"empty requirement", nil, "", true},
		{"full access", []string{"*"}, UsersDelete, true},
		{"exact", []string{CompaniesRead}, CompaniesRead, true},
		{"resource wildcard", []string{"stats.*"}, StatsDelete, true},
		{"wildcard does not leak", []string{"stats.*"}, "statsx.read", false},
		{"missing", []string{CompaniesRead}, CompaniesWrite, false},
		{"nil perms", nil, StatsRead, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasPermission(tt.perms, tt.required))
		})
	}
}

func TestRoleHas(t *testing.T) {
	assert.True(t, RoleHas(tenant.RoleSuperAdmin, CompaniesWrite))
	assert.False(t, RoleHas(tenant.RoleAdminHolding, CompaniesWrite))
	assert.True(t, RoleHas(tenant.RoleAdminHolding, UsersWrite))
	assert.True(t, RoleHas(tenant.RoleUserAnper, UploadsWrite))
	assert.True(t, RoleHas(tenant.RoleUserAnper, CompaniesRead))
	assert.False(t, RoleHas(tenant.RoleUserAnper, UsersRead))
	assert.False(t, RoleHas(tenant.Role("GUEST"), StatsRead))
}
