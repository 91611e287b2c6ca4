package middleware

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hcdash/hcdash-backend/internal/auth/jwt"
	"github.com/hcdash/hcdash-backend/pkg/config"
	"github.com/hcdash/hcdash-backend/pkg/logger"
	"github.com/hcdash/hcdash-backend/pkg/permissions"
	"github.com/hcdash/hcdash-backend/pkg/tenant"
	"github.com/hcdash/hcdash-backend/pkg/testutil"
)

func newAuthenticator() (*Authenticator, *jwt.Manager) {
	manager := jwt.NewManager(&config.JWTConfig{Secret: "s", SessionExpiry: time.Hour, Issuer: "hcdash"})
	return NewAuthenticator(manager, "auth_token", logger.Nop()), manager
}

func echoSession(w http.ResponseWriter, r *http.Request) {
	if s, ok := tenant.FromContext(r.Context()); ok {
		w.Header().Set("X-Test-Role", string(s.Role))
	}
	w.WriteHeader(http.StatusOK)
}

func TestSession_DecodesCookie(t *testing.T) {
	a, manager := newAuthenticator()
	token, err := manager.Issue(testutil.Session(tenant.RoleAdminHolding))
	require.NoError(t, err)

	h := a.Session(RequireSession(http.HandlerFunc(echoSession)))
	req := testutil.WithSessionCookie(testutil.NewHTTPRequest(http.MethodGet, "/", nil), "auth_token", token.Value)
	rr := testutil.ExecuteRequest(h, req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, "ADMIN_HOLDING", rr.Header().Get("X-Test-Role"))
}

func TestSession_InvalidCookieIsAnonymous(t *testing.T) {
	a, _ := newAuthenticator()

	h := a.Session(http.HandlerFunc(echoSession))
	req := testutil.WithSessionCookie(testutil.NewHTTPRequest(http.MethodGet, "/", nil), "auth_token", "garbage")
	rr := testutil.ExecuteRequest(h, req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Empty(t, rr.Header().Get("X-Test-Role"))
}

func TestRequireSession_Unauthorized(t *testing.T) {
	a, _ := newAuthenticator()

	h := a.Session(RequireSession(http.HandlerFunc(echoSession)))
	rr := testutil.ExecuteRequest(h, testutil.NewHTTPRequest(http.MethodGet, "/", nil))

	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	testutil.AssertErrorCode(t, rr, "UNAUTHORIZED")
}

func TestRequirePermission(t *testing.T) {
	h := RequirePermission(permissions.UsersWrite)(http.HandlerFunc(echoSession))

	tests := []struct {
		role   tenant.Role
		status int
	}{
		{tenant.RoleUserAnper, http.StatusForbidden},
		{tenant.RoleAdminHolding, http.StatusOK},
		{tenant.RoleSuperAdmin, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			req := testutil.WithSession(testutil.NewHTTPRequest(http.MethodPost, "/", nil), testutil.Session(tt.role))
			rr := testutil.ExecuteRequest(h, req)
			testutil.AssertStatus(t, rr, tt.status)
		})
	}

	t.Run("anonymous", func(t *testing.T) {
		rr := testutil.ExecuteRequest(h, testutil.NewHTTPRequest(http.MethodPost, "/", nil))
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})
}
