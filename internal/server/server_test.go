package server

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hcdash/hcdash-backend/internal/auth/jwt"
	"github.com/hcdash/hcdash-backend/pkg/config"
	"github.com/hcdash/hcdash-backend/pkg/logger"
	"github.com/hcdash/hcdash-backend/pkg/messaging"
	"github.com/hcdash/hcdash-backend/pkg/tenant"
	"github.com/hcdash/hcdash-backend/pkg/testutil"
)

type fakeBroker map[string]string

func (b fakeBroker) Health() map[string]string { return b }

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Environment:    config.EnvDevelopment,
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		JWT: config.JWTConfig{
			Secret:        "test-secret",
			SessionExpiry: time.Hour,
			Issuer:        "hcdash",
			CookieName:    "auth_token",
		},
		Upload: config.UploadConfig{MaxFileSize: 1 << 20, BatchSize: 50},
	}
}

func newTestRouter(t *testing.T, broker HealthReporter) (http.Handler, *config.Config) {
	t.Helper()
	cfg := testConfig()
	mockDB := testutil.NewMockDB(t)
	srv := New(cfg, mockDB.DB, messaging.NopPublisher{}, broker, logger.Nop())
	return srv.Router(), cfg
}

func sessionCookie(t *testing.T, cfg *config.Config, role tenant.Role) string {
	t.Helper()
	token, err := jwt.NewManager(&cfg.JWT).Issue(testutil.Session(role))
	require.NoError(t, err)
	return token.Value
}

func TestRouter_Health(t *testing.T) {
	router, _ := newTestRouter(t, fakeBroker{"status": "up"})

	rr := testutil.ExecuteRequest(router, testutil.NewHTTPRequest(http.MethodGet, "/health", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var body map[string]interface{}
	testutil.ParseData(t, rr, &body)
	assert.Equal(t, "healthy", body["status"])
	assert.Contains(t, body, "database")
	assert.Equal(t, map[string]interface{}{"status": "up"}, body["rabbitmq"])
}

func TestRouter_HealthWithoutBroker(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	rr := testutil.ExecuteRequest(router, testutil.NewHTTPRequest(http.MethodGet, "/health", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var body map[string]interface{}
	testutil.ParseData(t, rr, &body)
	assert.NotContains(t, body, "rabbitmq")
}

func TestRouter_ProtectedRoutesRequireSession(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	paths := []string{
		"/api/companies",
		"/api/users",
		"/api/stats/headcount",
		"/api/division-stats",
		"/api/data-center/demography",
		"/api/uploads/headcount/template",
		"/api/dashboard/summary",
	}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			rr := testutil.ExecuteRequest(router, testutil.NewHTTPRequest(http.MethodGet, path, nil))
			testutil.AssertStatus(t, rr, http.StatusUnauthorized)
			testutil.AssertErrorCode(t, rr, "UNAUTHORIZED")
		})
	}
}

func TestRouter_InvalidCookieIsAnonymous(t *testing.T) {
	router, cfg := newTestRouter(t, nil)

	req := testutil.WithSessionCookie(testutil.NewHTTPRequest(http.MethodGet, "/api/stats", nil), cfg.JWT.CookieName, "garbage")
	rr := testutil.ExecuteRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
}

func TestRouter_PermissionChecks(t *testing.T) {
	router, cfg := newTestRouter(t, nil)

	tests := []struct {
		name   string
		role   tenant.Role
		method string
		path   string
	}{
		{"company user cannot list users", tenant.RoleUserAnper, http.MethodGet, "/api/users"},
		{"company user cannot create companies", tenant.RoleUserAnper, http.MethodPost, "/api/companies"},
		{"holding admin cannot delete companies", tenant.RoleAdminHolding, http.MethodDelete, "/api/companies/" + testutil.CompanyBID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.WithSessionCookie(testutil.NewHTTPRequest(tt.method, tt.path, nil), cfg.JWT.CookieName, sessionCookie(t, cfg, tt.role))
			rr := testutil.ExecuteRequest(router, req)

			testutil.AssertStatus(t, rr, http.StatusForbidden)
			testutil.AssertErrorCode(t, rr, "FORBIDDEN")
		})
	}
}

func TestRouter_MetricCatalogue(t *testing.T) {
	router, cfg := newTestRouter(t, nil)

	req := testutil.WithSessionCookie(testutil.NewHTTPRequest(http.MethodGet, "/api/stats", nil), cfg.JWT.CookieName, sessionCookie(t, cfg, tenant.RoleUserAnper))
	rr := testutil.ExecuteRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	var metrics []map[string]interface{}
	testutil.ParseData(t, rr, &metrics)
	assert.NotEmpty(t, metrics)
}

func TestRouter_CORSPreflight(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	req := testutil.NewHTTPRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := testutil.ExecuteRequest(router, req)

	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))
}
