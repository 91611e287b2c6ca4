package service

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hcdash/hcdash-backend/internal/auth/jwt"
	"github.com/hcdash/hcdash-backend/internal/user/domain"
	"github.com/hcdash/hcdash-backend/pkg/errors"
	"github.com/hcdash/hcdash-backend/pkg/logger"
	"github.com/hcdash/hcdash-backend/pkg/tenant"
)

// dummyHash keeps unknown-email logins as slow as wrong-password ones
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("hcdash-dummy-password"), bcrypt.DefaultCost)

// UserLookup finds accounts for authentication
type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// AuthService handles authentication logic
type AuthService struct {
	users      UserLookup
	jwtManager *jwt.Manager
	logger     *logger.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(users UserLookup, jwtManager *jwt.Manager, log *logger.Logger) *AuthService {
	return &AuthService{
		users:      users,
		jwtManager: jwtManager,
		logger:     log,
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is the signed token plus the authenticated user
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// MeResponse is the current session together with the stored account
type MeResponse struct {
	Session *tenant.Session `json:"session"`
	User    *domain.User    `json:"user"`
}

// Login verifies credentials and issues a session token.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(req.Password))
			return nil, errors.InvalidCredentials()
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Debug().Str("user_id", user.ID).Msg("password mismatch")
		return nil, errors.InvalidCredentials()
	}

	token, err := s.jwtManager.Issue(user.Session())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to sign session token")
		return nil, errors.Internal("failed to create session")
	}

	s.logger.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("user logged in")

	return &LoginResult{
		Token:     token.Value,
		ExpiresAt: token.ExpiresAt,
		User:      user,
	}, nil
}

// Me returns the caller's session and account
func (s *AuthService) Me(ctx context.Context) (*MeResponse, error) {
	session, err := tenant.Require(ctx)
	if err != nil {
		return nil, tenant.ScopeError(err)
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.Unauthorized("session user no longer exists")
		}
		return nil, err
	}

	return &MeResponse{Session: session, User: user}, nil
}
