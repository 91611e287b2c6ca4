package domain

import (
	"strings"
	"time"

	"github.com/hcdash/hcdash-backend/pkg/tenant"
)

// User is a dashboard account. PasswordHash never leaves the service.
type User struct {
	ID           string      `json:"id" db:"id"`
	Name         string      `json:"name" db:"name"`
	Email        string      `json:"email" db:"email"`
	PasswordHash string      `json:"-" db:"password_hash"`
	Role         tenant.Role `json:"role" db:"role"`
	CompanyID    string      `json:"company_id" db:"company_id"`
	CompanyName  *string     `json:"company_name,omitempty" db:"company_name"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}

// Session returns the login session for this user
func (u *User) Session() *tenant.Session {
	return &tenant.Session{
		UserID:    u.ID,
		Email:     u.Email,
		Role:      u.Role,
		CompanyID: u.CompanyID,
	}
}

// NormalizeEmail trims and lowercases an address for storage and lookup
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
