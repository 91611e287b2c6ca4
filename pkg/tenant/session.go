// Package tenant carries the authenticated session through request contexts
// and decides which company a request may see.
package tenant

import (
	"context"
	"errors"

	apperrors "github.com/hcdash/hcdash-backend/pkg/errors"
)

// Role is a user's access level
type Role string

const (
	// RoleUserAnper is a subsidiary (anak perusahaan) user pinned to its own company
	RoleUserAnper Role = "USER_ANPER"
	// RoleAdminHolding is a holding-level admin that may look at any company
	RoleAdminHolding Role = "ADMIN_HOLDING"
	// RoleSuperAdmin manages companies and users
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// Roles lists every known role, lowest privilege first
var Roles = []Role{RoleUserAnper, RoleAdminHolding, RoleSuperAdmin}

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

var (
	// ErrNoSession is returned when the context carries no authenticated session
	ErrNoSession = errors.New("no session in context")
	// ErrUnknownRole is returned when the session role is not recognized
	ErrUnknownRole = errors.New("unknown role")
)

// Session is the decoded login session
type Session struct {
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	CompanyID string `json:"companyId"`
}

type sessionKey struct{}

// WithSession stores the session in ctx
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the session stored in ctx, if any
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok && s != nil
}

// Require returns the session or ErrNoSession
func Require(ctx context.Context) (*Session, error) {
	s, ok := FromContext(ctx)
	if !ok {
		return nil, ErrNoSession
	}
	return s, nil
}

// UserID returns the session user id or an empty string
func UserID(ctx context.Context) string {
	if s, ok := FromContext(ctx); ok {
		return s.UserID
	}
	return ""
}

// CompanyFilter returns the company a read is scoped to.
// USER_ANPER is always pinned to its own company and requested is ignored.
// Holding admins and super admins get requested when set, otherwise their own company.
func CompanyFilter(ctx context.Context, requested string) (string, error) {
	s, ok := FromContext(ctx)
	if !ok {
		return "", ErrNoSession
	}

	switch s.Role {
	case RoleUserAnper:
		return s.CompanyID, nil
	case RoleAdminHolding, RoleSuperAdmin:
		if requested != "" {
			return requested, nil
		}
		return s.CompanyID, nil
	default:
		return "", ErrUnknownRole
	}
}

// ResolveCompany is CompanyFilter with its failures mapped to API errors
func ResolveCompany(ctx context.Context, requested string) (string, error) {
	companyID, err := CompanyFilter(ctx, requested)
	if err != nil {
		return "", ScopeError(err)
	}
	return companyID, nil
}

// AuthorizeCompany checks that the session may write data for companyID
func AuthorizeCompany(ctx context.Context, companyID string) error {
	s, ok := FromContext(ctx)
	if !ok {
		return ScopeError(ErrNoSession)
	}

	switch s.Role {
	case RoleUserAnper:
		if companyID != s.CompanyID {
			return apperrors.Forbidden("access to another company's data is not allowed")
		}
		return nil
	case RoleAdminHolding, RoleSuperAdmin:
		return nil
	default:
		return ScopeError(ErrUnknownRole)
	}
}

// ScopeError converts scoping failures into 401 or 500 responses
func ScopeError(err error) error {
	switch {
	case errors.Is(err, ErrNoSession):
		return apperrors.Unauthorized("authentication required")
	case errors.Is(err, ErrUnknownRole):
		return apperrors.Internal("session carries an unknown role")
	default:
		return err
	}
}
