package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hcdash/hcdash-backend/internal/auth/jwt"
	"github.com/hcdash/hcdash-backend/internal/user/domain"
	"github.com/hcdash/hcdash-backend/pkg/config"
	apperrors "github.com/hcdash/hcdash-backend/pkg/errors"
	"github.com/hcdash/hcdash-backend/pkg/logger"
	"github.com/hcdash/hcdash-backend/pkg/tenant"
	"github.com/hcdash/hcdash-backend/pkg/testutil"
)

type fakeUsers map[string]*domain.User

func (f fakeUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range f {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperrors.NotFound("user")
}

func (f fakeUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, apperrors.NotFound("user")
}

func newAuthService(t *testing.T) (*AuthService, *jwt.Manager) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("rahasia123"), bcrypt.MinCost)
	require.NoError(t, err)

	users := fakeUsers{
		testutil.UserID: {
			ID:           testutil.UserID,
			Name:         "Sari",
			Email:        "sari@pta.co.id",
			PasswordHash: string(hash),
			Role:         tenant.RoleUserAnper,
			CompanyID:    testutil.CompanyAID,
		},
	}
	manager := jwt.NewManager(&config.JWTConfig{Secret: "s", SessionExpiry: 8 * time.Hour, Issuer: "hcdash"})
	return NewAuthService(users, manager, logger.Nop()), manager
}

func TestAuthService_Login(t *testing.T) {
	svc, manager := newAuthService(t)

	result, err := svc.Login(context.Background(), &LoginRequest{Email: " SARI@pta.co.id", Password: "rahasia123"})
	require.NoError(t, err)
	assert.Equal(t, testutil.UserID, result.User.ID)

	session, err := manager.Parse(result.Token)
	require.NoError(t, err)
	assert.Equal(t, tenant.RoleUserAnper, session.Role)
	assert.Equal(t, testutil.CompanyAID, session.CompanyID)
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	svc, _ := newAuthService(t)

	tests := []struct {
		name  string
		email string
		pass  string
	}{
		{"wrong password", "sari@pta.co.id", "salah"},
		{"unknown email", "nobody@pta.co.id", "rahasia123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), &LoginRequest{Email: tt.email, Password: tt.pass})
			var appErr *apperrors.AppError
			require.True(t, apperrors.As(err, &appErr))
			assert.Equal(t, "INVALID_CREDENTIALS", appErr.Code)
			assert.Equal(t, http.StatusUnauthorized, appErr.StatusCode)
		})
	}
}

func TestAuthService_Me(t *testing.T) {
	svc, _ := newAuthService(t)

	me, err := svc.Me(testutil.SessionContext(tenant.RoleUserAnper))
	require.NoError(t, err)
	assert.Equal(t, "Sari", me.User.Name)

	_, err = svc.Me(context.Background())
	assert.Equal(t, http.StatusUnauthorized, apperrors.StatusCode(err))
}
