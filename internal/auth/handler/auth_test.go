package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hcdash/hcdash-backend/internal/auth/jwt"
	"github.com/hcdash/hcdash-backend/internal/auth/service"
	"github.com/hcdash/hcdash-backend/internal/user/repository"
	"github.com/hcdash/hcdash-backend/pkg/config"
	"github.com/hcdash/hcdash-backend/pkg/logger"
	"github.com/hcdash/hcdash-backend/pkg/testutil"
)

func newRouter(t *testing.T, env string) (http.Handler, *testutil.MockDB) {
	t.Helper()
	mockDB := testutil.NewMockDB(t)
	cfg := &config.Config{
		Server: config.ServerConfig{Environment: env},
		JWT:    config.JWTConfig{Secret: "s", SessionExpiry: 8 * time.Hour, Issuer: "hcdash", CookieName: "auth_token"},
	}
	svc := service.NewAuthService(repository.NewUserRepository(mockDB.DB), jwt.NewManager(&cfg.JWT), logger.Nop())
	h := NewAuthHandler(svc, cfg, logger.Nop())

	r := chi.NewRouter()
	r.Post("/api/auth/login", h.Login)
	r.Post("/api/auth/logout", h.Logout)
	r.Get("/api/auth/me", h.Me)
	return r, mockDB
}

func expectUserByEmail(t *testing.T, mockDB *testutil.MockDB, email string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testutil.DefaultPassword), bcrypt.MinCost)
	require.NoError(t, err)
	now := time.Now()

	mockDB.ExpectQuery("WHERE LOWER(u.email) = LOWER($1)").
		WithArgs(email).
		WillReturnRows(testutil.MockRows("id", "name", "email", "password_hash", "role", "company_id", "company_name", "created_at", "updated_at").
			AddRow(testutil.UserID, "Sari", email, string(hash), "USER_ANPER", testutil.CompanyAID, "PT A", now, now))
}

func sessionCookie(rr *http.Response) *http.Cookie {
	for _, c := range rr.Cookies() {
		if c.Name == "auth_token" {
			return c
		}
	}
	return nil
}

func TestAuthHandler_Login_SetsCookie(t *testing.T) {
	router, mockDB := newRouter(t, "production")
	expectUserByEmail(t, mockDB, "sari@pta.co.id")

	req := testutil.NewHTTPRequest(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "Sari@PTA.co.id",
		"password": testutil.DefaultPassword,
	})
	rr := testutil.ExecuteRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.NotContains(t, rr.Body.String(), "password")

	cookie := sessionCookie(rr.Result())
	require.NotNil(t, cookie)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, "/", cookie.Path)
	assert.InDelta(t, (8 * time.Hour).Seconds(), cookie.MaxAge, 5)
	mockDB.ExpectationsWereMet(t)
}

func TestAuthHandler_Login_WrongPassword(t *testing.T) {
	router, mockDB := newRouter(t, "development")
	expectUserByEmail(t, mockDB, "sari@pta.co.id")

	req := testutil.NewHTTPRequest(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "sari@pta.co.id",
		"password": "salah-sekali",
	})
	rr := testutil.ExecuteRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	testutil.AssertErrorCode(t, rr, "INVALID_CREDENTIALS")
	assert.Nil(t, sessionCookie(rr.Result()))
}

func TestAuthHandler_Logout_ClearsCookie(t *testing.T) {
	router, _ := newRouter(t, "development")

	rr := testutil.ExecuteRequest(router, testutil.NewHTTPRequest(http.MethodPost, "/api/auth/logout", nil))

	testutil.AssertStatus(t, rr, http.StatusOK)
	cookie := sessionCookie(rr.Result())
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Equal(t, -1, cookie.MaxAge)
	assert.False(t, cookie.Secure)
}

func TestAuthHandler_Me_Anonymous(t *testing.T) {
	router, _ := newRouter(t, "development")

	rr := testutil.ExecuteRequest(router, testutil.NewHTTPRequest(http.MethodGet, "/api/auth/me", nil))

	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
}
