package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hcdash/hcdash-backend/pkg/config"
	apperrors "github.com/hcdash/hcdash-backend/pkg/errors"
	"github.com/hcdash/hcdash-backend/pkg/tenant"
)

// Claims represents the session token claims
type Claims struct {
	jwt.RegisteredClaims
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CompanyID string `json:"company_id"`
}

// Session converts the claims to a tenant session
func (c *Claims) Session() *tenant.Session {
	return &tenant.Session{
		UserID:    c.UserID,
		Email:     c.Email,
		Role:      tenant.Role(c.Role),
		CompanyID: c.CompanyID,
	}
}

// Manager signs and verifies session tokens
type Manager struct {
	config *config.JWTConfig
	now    func() time.Time
}

// NewManager creates a new JWT manager
func NewManager(cfg *config.JWTConfig) *Manager {
	return &Manager{config: cfg, now: time.Now}
}

// Token is a signed session token and its expiry
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Issue signs a token for session
func (m *Manager) Issue(session *tenant.Session) (*Token, error) {
	now := m.now()
	expiresAt := now.Add(m.config.SessionExpiry)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   session.UserID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
		UserID:    session.UserID,
		Email:     session.Email,
		Role:      string(session.Role),
		CompanyID: session.CompanyID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.config.Secret))
	if err != nil {
		return nil, err
	}

	return &Token{Value: signed, ExpiresAt: expiresAt}, nil
}

// Parse verifies tokenString and returns the session it carries
func (m *Manager) Parse(tokenString string) (*tenant.Session, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperrors.TokenInvalid()
		}
		return []byte(m.config.Secret), nil
	},
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithTimeFunc(m.now),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.TokenExpired()
		}
		return nil, apperrors.TokenInvalid()
	}

	if !token.Valid || claims.UserID == "" || !tenant.Role(claims.Role).Valid() {
		return nil, apperrors.TokenInvalid()
	}

	return claims.Session(), nil
}
