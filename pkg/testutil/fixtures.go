package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hcdash/hcdash-backend/pkg/database"
	"github.com/hcdash/hcdash-backend/pkg/tenant"
)

// DefaultPassword is the clear-text password of every fixture user
const DefaultPassword = "rahasia123"

// CompanyFixture is a company row created for a test
type CompanyFixture struct {
	ID   string
	Name string
	Code string
}

// UserFixture is a user row created for a test
type UserFixture struct {
	ID        string
	Name      string
	Email     string
	Password  string
	Role      tenant.Role
	CompanyID string
}

// Session returns the session this user would get after logging in
func (u *UserFixture) Session() *tenant.Session {
	return &tenant.Session{UserID: u.ID, Email: u.Email, Role: u.Role, CompanyID: u.CompanyID}
}

// FixtureFactory inserts rows with unique names
type FixtureFactory struct {
	db      *database.DB
	counter atomic.Int64
}

// NewFixtureFactory creates a factory writing to db
func NewFixtureFactory(db *database.DB) *FixtureFactory {
	return &FixtureFactory{db: db}
}

// Company inserts a company named name
func (f *FixtureFactory) Company(t *testing.T, ctx context.Context, name string) *CompanyFixture {
	t.Helper()

	c := &CompanyFixture{
		ID:   uuid.New().String(),
		Name: name,
		Code: fmt.Sprintf("C%03d", f.counter.Add(1)),
	}

	_, err := f.db.ExecContext(ctx,
		`INSERT INTO companies (id, name, code) VALUES ($1, $2, $3)`,
		c.ID, c.Name, c.Code,
	)
	if err != nil {
		t.Fatalf("failed to insert company fixture: %v", err)
	}
	return c
}

// User inserts a user with DefaultPassword
func (f *FixtureFactory) User(t *testing.T, ctx context.Context, role tenant.Role, companyID string) *UserFixture {
	t.Helper()

	n := f.counter.Add(1)
	u := &UserFixture{
		ID:        uuid.New().String(),
		Name:      fmt.Sprintf("User %d", n),
		Email:     fmt.Sprintf("user%d@hcdash.test", n),
		Password:  DefaultPassword,
		Role:      role,
		CompanyID: companyID,
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash fixture password: %v", err)
	}

	_, err = f.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, role, company_id) VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Name, u.Email, string(hash), string(u.Role), u.CompanyID,
	)
	if err != nil {
		t.Fatalf("failed to insert user fixture: %v", err)
	}
	return u
}
