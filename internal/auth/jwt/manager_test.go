package jwt

import (
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hcdash/hcdash-backend/pkg/config"
	apperrors "github.com/hcdash/hcdash-backend/pkg/errors"
	"github.com/hcdash/hcdash-backend/pkg/tenant"
	"github.com/hcdash/hcdash-backend/pkg/testutil"
)

func newManager() *Manager {
	return NewManager(&config.JWTConfig{
		Secret:        "test-secret",
		SessionExpiry: 8 * time.Hour,
		Issuer:        "hcdash",
	})
}

func TestManager_IssueAndParse(t *testing.T) {
	m := newManager()
	session := testutil.Session(tenant.RoleAdminHolding)

	token, err := m.Issue(session)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(8*time.Hour), token.ExpiresAt, time.Minute)

	parsed, err := m.Parse(token.Value)
	require.NoError(t, err)
	assert.Equal(t, session, parsed)
}

func TestManager_Parse_Expired(t *testing.T) {
	m := newManager()
	m.now = func() time.Time { return time.Now().Add(-9 * time.Hour) }

	token, err := m.Issue(testutil.Session(tenant.RoleUserAnper))
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Parse(token.Value)
	var appErr *apperrors.AppError
	require.True(t, apperrors.As(err, &appErr))
	assert.Equal(t, "TOKEN_EXPIRED", appErr.Code)
}

func TestManager_Parse_WrongSecret(t *testing.T) {
	token, err := newManager().Issue(testutil.Session(tenant.RoleUserAnper))
	require.NoError(t, err)

	other := NewManager(&config.JWTConfig{Secret: "other", SessionExpiry: time.Hour, Issuer: "hcdash"})
	_, err = other.Parse(token.Value)
	assert.Equal(t, http.StatusUnauthorized, apperrors.StatusCode(err))
}

func TestManager_Parse_RejectsUnknownRoleAndAlgorithm(t *testing.T) {
	m := newManager()

	t.Run("unknown role", func(t *testing.T) {
		s := testutil.Session("JANITOR")
		token, err := m.Issue(s)
		require.NoError(t, err)
		_, err = m.Parse(token.Value)
		assert.Error(t, err)
	})

	t.Run("none algorithm", func(t *testing.T) {
		claims := Claims{
			RegisteredClaims: jwt.RegisteredClaims{Issuer: "hcdash", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
			UserID:           testutil.UserID,
			Role:             string(tenant.RoleSuperAdmin),
		}
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = m.Parse(unsigned)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.Parse("not.a.token")
		assert.Equal(t, http.StatusUnauthorized, apperrors.StatusCode(err))
	})
}
