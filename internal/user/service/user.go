package service

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/hcdash/hcdash-backend/internal/user/domain"
	"github.com/hcdash/hcdash-backend/internal/user/events"
	"github.com/hcdash/hcdash-backend/pkg/config"
	"github.com/hcdash/hcdash-backend/pkg/errors"
	"github.com/hcdash/hcdash-backend/pkg/logger"
	"github.com/hcdash/hcdash-backend/pkg/tenant"
)

// Repository is the user persistence the service needs
type Repository interface {
	List(ctx context.Context, companyID string) ([]*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
	Bootstrap(ctx context.Context, companyName string, user *domain.User) error
}

// CompanyChecker confirms a company id refers to an existing company
type CompanyChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// UserService handles user business logic
type UserService struct {
	repo       Repository
	companies  CompanyChecker
	publisher  *events.UserEventPublisher
	logger     *logger.Logger
	bcryptCost int
}

// NewUserService creates a new user service
func NewUserService(repo Repository, companies CompanyChecker, publisher *events.UserEventPublisher, log *logger.Logger) *UserService {
	return &UserService{
		repo:       repo,
		companies:  companies,
		publisher:  publisher,
		logger:     log,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// CreateUserRequest is the body of POST /api/users
type CreateUserRequest struct {
	Name      string `json:"name" validate:"required,max=200"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	Role      string `json:"role" validate:"required,oneof=USER_ANPER ADMIN_HOLDING SUPER_ADMIN"`
	CompanyID string `json:"company_id" validate:"required,uuid"`
}

// UpdateUserRequest is the body of PUT /api/users/{id}; nil fields stay unchanged
type UpdateUserRequest struct {
	Name      *string `json:"name" validate:"omitempty,min=1,max=200"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Password  *string `json:"password" validate:"omitempty,min=8,max=72"`
	Role      *string `json:"role" validate:"omitempty,oneof=USER_ANPER ADMIN_HOLDING SUPER_ADMIN"`
	CompanyID *string `json:"company_id" validate:"omitempty,uuid"`
}

// List lists users, optionally filtered to one company
func (s *UserService) List(ctx context.Context, companyID string) ([]*domain.User, error) {
	return s.repo.List(ctx, companyID)
}

// GetByID gets a user by ID
func (s *UserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.GetByID(ctx, id)
}

// Create creates a user
func (s *UserService) Create(ctx context.Context, req *CreateUserRequest) (*domain.User, error) {
	role := tenant.Role(req.Role)
	if err := s.authorizeRole(ctx, role); err != nil {
		return nil, err
	}

	if err := s.ensureCompany(ctx, req.CompanyID); err != nil {
		return nil, err
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        domain.NormalizeEmail(req.Email),
		PasswordHash: hash,
		Role:         role,
		CompanyID:    req.CompanyID,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	created, err := s.repo.GetByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.publisher.PublishUserCreated(ctx, created)
	return created, nil
}

// Update updates a user
func (s *UserService) Update(ctx context.Context, id string, req *UpdateUserRequest) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeRole(ctx, user.Role); err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		user.Email = domain.NormalizeEmail(*req.Email)
	}
	if req.Role != nil {
		role := tenant.Role(*req.Role)
		if err := s.authorizeRole(ctx, role); err != nil {
			return nil, err
		}
		user.Role = role
	}
	if req.CompanyID != nil && *req.CompanyID != user.CompanyID {
		if err := s.ensureCompany(ctx, *req.CompanyID); err != nil {
			return nil, err
		}
		user.CompanyID = *req.CompanyID
	}
	if req.Password != nil {
		hash, err := s.hashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.publisher.PublishUserUpdated(ctx, updated)
	return updated, nil
}

// Delete deletes a user. Nobody can delete their own account.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if id == tenant.UserID(ctx) {
		return errors.BadRequest("you cannot delete your own account")
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.authorizeRole(ctx, user.Role); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.publisher.PublishUserDeleted(ctx, user)
	return nil
}

// EnsureBootstrapAdmin creates the configured super admin when no user exists yet
func (s *UserService) EnsureBootstrapAdmin(ctx context.Context, cfg *config.BootstrapConfig) error {
	if !cfg.Enabled() {
		return nil
	}

	count, err := s.repo.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := s.hashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}

	user := &domain.User{
		Name:         cfg.AdminName,
		Email:        domain.NormalizeEmail(cfg.AdminEmail),
		PasswordHash: hash,
		Role:         tenant.RoleSuperAdmin,
	}

	if err := s.repo.Bootstrap(ctx, cfg.CompanyName, user); err != nil {
		return err
	}

	s.logger.Info().Str("email", user.Email).Str("company_id", user.CompanyID).Msg("bootstrap super admin created")
	return nil
}

// authorizeRole stops holding admins from creating, promoting to, or touching super admins
func (s *UserService) authorizeRole(ctx context.Context, target tenant.Role) error {
	session, err := tenant.Require(ctx)
	if err != nil {
		return tenant.ScopeError(err)
	}

	if target == tenant.RoleSuperAdmin && session.Role != tenant.RoleSuperAdmin {
		return errors.Forbidden("only a super admin can manage super admin accounts")
	}
	return nil
}

func (s *UserService) ensureCompany(ctx context.Context, companyID string) error {
	exists, err := s.companies.Exists(ctx, companyID)
	if err != nil {
		return err
	}
	if !exists {
		return errors.BadRequest("company does not exist")
	}
	return nil
}

// maxPasswordBytes is the bcrypt input limit; the validator's max counts runes.
const maxPasswordBytes = 72

func (s *UserService) hashPassword(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", errors.Validation(map[string]string{"password": "must be at most 72 bytes"})
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", errors.Internal("failed to hash password")
	}
	return string(hash), nil
}
