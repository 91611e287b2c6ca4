// Package permissions maps roles to dotted permission strings and checks them
// with wildcard support.
//
// Permission format:
//   - "*" grants everything
//   - "resource.*" grants every action on a resource (e.g. "stats.*")
//   - "resource.action" grants one action (e.g. "companies.read")
package permissions

import (
	"strings"

	"github.com/hcdash/hcdash-backend/pkg/tenant"
)

// Known permissions
const (
	StatsRead      = "stats.read"
	StatsWrite     = "stats.write"
	StatsDelete    = "stats.delete"
	UploadsWrite   = "uploads.write"
	CompaniesRead  = "companies.read"
	CompaniesWrite = "companies.write"
	UsersRead      = "users.read"
	UsersWrite     = "users.write"
	UsersDelete    = "users.delete"
)

var rolePermissions = map[tenant.Role][]string{
	tenant.RoleSuperAdmin:   {"*"},
	tenant.RoleAdminHolding: {"stats.*", "uploads.*", CompaniesRead, "users.*"},
	tenant.RoleUserAnper:    {"stats.*", "uploads.*", CompaniesRead},
}

// ForRole returns the permissions granted to role. Unknown roles get none.
func ForRole(role tenant.Role) []string {
	return rolePermissions[role]
}

// RoleHas reports whether role grants required
func RoleHas(role tenant.Role, required string) bool {
	return HasPermission(ForRole(role), required)
}

// HasPermission checks if userPerms include required, honoring wildcards
func HasPermission(userPerms []string, required string) bool {
	if required == "" {
		return true
	}

	for _, p := range userPerms {
		if p == "*" || p == required {
			return true
		}
		if strings.HasSuffix(p, ".*") {
			prefix := strings.TrimSuffix(p, ".*")
			if strings.HasPrefix(required, prefix+".") {
				return true
			}
		}
	}
	return false
}
