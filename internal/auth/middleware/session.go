package middleware

import (
	"net/http"

	"github.com/hcdash/hcdash-backend/internal/auth/jwt"
	"github.com/hcdash/hcdash-backend/pkg/errors"
	"github.com/hcdash/hcdash-backend/pkg/httputil"
	"github.com/hcdash/hcdash-backend/pkg/logger"
	"github.com/hcdash/hcdash-backend/pkg/permissions"
	"github.com/hcdash/hcdash-backend/pkg/tenant"
)

// Authenticator decodes the session cookie into the request context
type Authenticator struct {
	manager    *jwt.Manager
	cookieName string
	logger     *logger.Logger
}

// NewAuthenticator creates a new authenticator reading cookieName
func NewAuthenticator(manager *jwt.Manager, cookieName string, log *logger.Logger) *Authenticator {
	return &Authenticator{
		manager:    manager,
		cookieName: cookieName,
		logger:     log.WithComponent("auth"),
	}
}

// Session attaches the cookie's session to the context. A missing or invalid
// cookie leaves the request anonymous; RequireSession decides what that means.
func (a *Authenticator) Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(a.cookieName)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		session, err := a.manager.Parse(cookie.Value)
		if err != nil {
			a.logger.Debug().Err(err).Str("request_id", httputil.GetRequestID(r.Context())).Msg("session cookie rejected")
			next.ServeHTTP(w, r)
			return
		}

		httputil.NoteSession(r.Context(), session)
		next.ServeHTTP(w, r.WithContext(tenant.WithSession(r.Context(), session)))
	})
}

// RequireSession answers 401 when the request carries no valid session
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := tenant.FromContext(r.Context()); !ok {
			httputil.ErrorLocalized(w, r, errors.Unauthorized("not authenticated"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePermission answers 403 when the session's role lacks permission
func RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := tenant.FromContext(r.Context())
			if !ok {
				httputil.ErrorLocalized(w, r, errors.Unauthorized("not authenticated"))
				return
			}
			if !permissions.RoleHas(session.Role, permission) {
				httputil.ErrorLocalized(w, r, errors.Forbidden("insufficient permissions"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
