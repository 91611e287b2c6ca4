package service

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hcdash/hcdash-backend/internal/user/domain"
	"github.com/hcdash/hcdash-backend/internal/user/events"
	"github.com/hcdash/hcdash-backend/pkg/config"
	apperrors "github.com/hcdash/hcdash-backend/pkg/errors"
	"github.com/hcdash/hcdash-backend/pkg/logger"
	"github.com/hcdash/hcdash-backend/pkg/messaging"
	"github.com/hcdash/hcdash-backend/pkg/tenant"
	"github.com/hcdash/hcdash-backend/pkg/testutil"
)

type fakeRepo struct {
	users        map[string]*domain.User
	bootstrapped string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: map[string]*domain.User{
		"super": {ID: "super", Email: "root@holding.co.id", Role: tenant.RoleSuperAdmin, CompanyID: testutil.CompanyAID},
		"staff": {ID: "staff", Email: "staff@ptb.co.id", Role: tenant.RoleUserAnper, CompanyID: testutil.CompanyBID},
	}}
}

func (f *fakeRepo) List(_ context.Context, companyID string) ([]*domain.User, error) {
	var out []*domain.User
	for _, u := range f.users {
		if companyID == "" || u.CompanyID == companyID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperrors.NotFound("user")
	}
	cp := *u
	return &cp, nil
}

func (f *fakeRepo) Count(context.Context) (int, error) { return len(f.users), nil }

func (f *fakeRepo) Create(_ context.Context, u *domain.User) error {
	u.ID = "new"
	f.users[u.ID] = u
	return nil
}

func (f *fakeRepo) Update(_ context.Context, u *domain.User) error {
	f.users[u.ID] = u
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id string) error {
	delete(f.users, id)
	return nil
}

func (f *fakeRepo) Bootstrap(_ context.Context, companyName string, u *domain.User) error {
	f.bootstrapped = companyName
	u.ID = "boot"
	u.CompanyID = testutil.CompanyAID
	f.users[u.ID] = u
	return nil
}

type fakeCompanies map[string]bool

func (f fakeCompanies) Exists(_ context.Context, id string) (bool, error) { return f[id], nil }

func newService() (*UserService, *fakeRepo, *testutil.MockPublisher) {
	repo := newFakeRepo()
	pub := testutil.NewMockPublisher()
	companies := fakeCompanies{testutil.CompanyAID: true, testutil.CompanyBID: true}
	svc := NewUserService(repo, companies, events.NewUserEventPublisher(pub, logger.Nop()), logger.Nop())
	svc.bcryptCost = bcrypt.MinCost
	return svc, repo, pub
}

func TestUserService_Create(t *testing.T) {
	svc, repo, pub := newService()
	ctx := testutil.SessionContext(tenant.RoleAdminHolding)

	user, err := svc.Create(ctx, &CreateUserRequest{
		Name:      " Dewi ",
		Email:     " Dewi@PTB.co.id ",
		Password:  "rahasia123",
		Role:      "USER_ANPER",
		CompanyID: testutil.CompanyBID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Dewi", user.Name)
	assert.Equal(t, "dewi@ptb.co.id", user.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.users["new"].PasswordHash), []byte("rahasia123")))
	pub.AssertEventPublished(t, messaging.EventUserCreated)
}

func TestUserService_Create_UnknownCompany(t *testing.T) {
	svc, _, pub := newService()

	_, err := svc.Create(testutil.SessionContext(tenant.RoleSuperAdmin), &CreateUserRequest{
		Name:      "Dewi",
		Email:     "dewi@ptc.co.id",
		Password:  "rahasia123",
		Role:      "USER_ANPER",
		CompanyID: "44444444-4444-4444-4444-444444444444",
	})
	assert.Equal(t, http.StatusBadRequest, apperrors.StatusCode(err))
	pub.AssertNoEventsPublished(t)
}

func TestUserService_SuperAdminGuards(t *testing.T) {
	holding := testutil.SessionContext(tenant.RoleAdminHolding)

	t.Run("create", func(t *testing.T) {
		svc, _, _ := newService()
		_, err := svc.Create(holding, &CreateUserRequest{
			Name: "X", Email: "x@holding.co.id", Password: "rahasia123",
			Role: "SUPER_ADMIN", CompanyID: testutil.CompanyAID,
		})
		assert.Equal(t, http.StatusForbidden, apperrors.StatusCode(err))
	})

	t.Run("promote", func(t *testing.T) {
		svc, _, _ := newService()
		role := "SUPER_ADMIN"
		_, err := svc.Update(holding, "staff", &UpdateUserRequest{Role: &role})
		assert.Equal(t, http.StatusForbidden, apperrors.StatusCode(err))
	})

	t.Run("modify", func(t *testing.T) {
		svc, _, _ := newService()
		name := "Renamed"
		_, err := svc.Update(holding, "super", &UpdateUserRequest{Name: &name})
		assert.Equal(t, http.StatusForbidden, apperrors.StatusCode(err))
	})

	t.Run("delete", func(t *testing.T) {
		svc, repo, _ := newService()
		err := svc.Delete(holding, "super")
		assert.Equal(t, http.StatusForbidden, apperrors.StatusCode(err))
		assert.Contains(t, repo.users, "super")
	})

	t.Run("super admin may", func(t *testing.T) {
		svc, _, _ := newService()
		role := "SUPER_ADMIN"
		user, err := svc.Update(testutil.SessionContext(tenant.RoleSuperAdmin), "staff", &UpdateUserRequest{Role: &role})
		require.NoError(t, err)
		assert.Equal(t, tenant.RoleSuperAdmin, user.Role)
	})
}

func TestUserService_Update_PasswordAndCompany(t *testing.T) {
	svc, repo, pub := newService()
	password := "gantipassword"
	company := testutil.CompanyAID

	_, err := svc.Update(testutil.SessionContext(tenant.RoleAdminHolding), "staff", &UpdateUserRequest{
		Password:  &password,
		CompanyID: &company,
	})
	require.NoError(t, err)
	assert.Equal(t, testutil.CompanyAID, repo.users["staff"].CompanyID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.users["staff"].PasswordHash), []byte(password)))
	pub.AssertEventPublished(t, messaging.EventUserUpdated)
}

func TestUserService_PasswordLongerThanBcryptLimit(t *testing.T) {
	svc, repo, pub := newService()
	ctx := testutil.SessionContext(tenant.RoleAdminHolding)
	// 30 runes pass the validator but take 90 bytes
	password := strings.Repeat("密", 30)

	_, err := svc.Create(ctx, &CreateUserRequest{
		Name:      "Dewi",
		Email:     "dewi@ptb.co.id",
		Password:  password,
		Role:      "USER_ANPER",
		CompanyID: testutil.CompanyBID,
	})
	var appErr *apperrors.AppError
	require.True(t, apperrors.As(err, &appErr))
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	assert.Contains(t, appErr.Details, "password")
	assert.NotContains(t, repo.users, "new")

	_, err = svc.Update(ctx, "staff", &UpdateUserRequest{Password: &password})
	assert.Equal(t, http.StatusBadRequest, apperrors.StatusCode(err))
	pub.AssertNoEventsPublished(t)
}

func TestUserService_Delete_Self(t *testing.T) {
	svc, _, _ := newService()

	err := svc.Delete(testutil.SessionContext(tenant.RoleSuperAdmin), testutil.UserID)
	assert.Equal(t, http.StatusBadRequest, apperrors.StatusCode(err))
}

func TestUserService_Delete(t *testing.T) {
	svc, repo, pub := newService()

	require.NoError(t, svc.Delete(testutil.SessionContext(tenant.RoleAdminHolding), "staff"))
	assert.NotContains(t, repo.users, "staff")
	pub.AssertEventPublished(t, messaging.EventUserDeleted)
}

func TestUserService_EnsureBootstrapAdmin(t *testing.T) {
	cfg := &config.BootstrapConfig{
		CompanyName:   "Holding",
		AdminName:     "Super Admin",
		AdminEmail:    "Admin@HCDash.local",
		AdminPassword: "rahasia123",
	}

	t.Run("skips when users exist", func(t *testing.T) {
		svc, repo, _ := newService()
		require.NoError(t, svc.EnsureBootstrapAdmin(context.Background(), cfg))
		assert.Empty(t, repo.bootstrapped)
	})

	t.Run("seeds an empty database", func(t *testing.T) {
		svc, repo, _ := newService()
		repo.users = map[string]*domain.User{}

		require.NoError(t, svc.EnsureBootstrapAdmin(context.Background(), cfg))
		assert.Equal(t, "Holding", repo.bootstrapped)
		admin := repo.users["boot"]
		require.NotNil(t, admin)
		assert.Equal(t, "admin@hcdash.local", admin.Email)
		assert.Equal(t, tenant.RoleSuperAdmin, admin.Role)
	})

	t.Run("disabled without password", func(t *testing.T) {
		svc, repo, _ := newService()
		repo.users = map[string]*domain.User{}

		require.NoError(t, svc.EnsureBootstrapAdmin(context.Background(), &config.BootstrapConfig{AdminEmail: "a@b.c"}))
		assert.Empty(t, repo.users)
	})
}
