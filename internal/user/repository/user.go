package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hcdash/hcdash-backend/internal/user/domain"
	"github.com/hcdash/hcdash-backend/pkg/database"
	apperrors "github.com/hcdash/hcdash-backend/pkg/errors"
)

const userSelect = `
	SELECT u.id, u.name, u.email, u.password_hash, u.role, u.company_id, c.name AS company_name,
	       u.created_at, u.updated_at
	FROM users u
	LEFT JOIN companies c ON c.id = u.company_id
`

// UserRepository handles user persistence
type UserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// List returns users ordered by name, optionally limited to one company
func (r *UserRepository) List(ctx context.Context, companyID string) ([]*domain.User, error) {
	users := []*domain.User{}
	query := userSelect + ` WHERE ($1 = '' OR u.company_id::text = $1) ORDER BY u.name`
	if err := r.db.SelectContext(ctx, &users, query, companyID); err != nil {
		return nil, err
	}
	return users, nil
}

// GetByID gets a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	err := r.db.GetContext(ctx, &user, userSelect+` WHERE u.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("user")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail gets a user by email, case-insensitively
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.GetContext(ctx, &user, userSelect+` WHERE LOWER(u.email) = LOWER($1)`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("user")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Count returns the number of users
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`)
	return count, err
}

// Create inserts a user. Duplicate emails yield 409, unknown companies 400.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	return r.create(ctx, r.db, user)
}

func (r *UserRepository) create(ctx context.Context, q database.Querier, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	query := `
		INSERT INTO users (id, name, email, password_hash, role, company_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err := q.QueryRowxContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		user.CompanyID,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	return database.MapError(err)
}

// Update saves every mutable column
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET name = $2, email = $3, password_hash = $4, role = $5, company_id = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		user.CompanyID,
	).Scan(&user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound("user")
	}
	return database.MapError(err)
}

// Delete removes a user
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return database.MapError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperrors.NotFound("user")
	}
	return nil
}

// Bootstrap creates (or reuses) the named company and inserts user into it,
// both in one transaction.
func (r *UserRepository) Bootstrap(ctx context.Context, companyName string, user *domain.User) error {
	return r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, `
			INSERT INTO companies (name) VALUES ($1)
			ON CONFLICT (LOWER(name)) DO UPDATE SET updated_at = companies.updated_at
			RETURNING id
		`, companyName).Scan(&user.CompanyID)
		if err != nil {
			return err
		}
		return r.create(ctx, tx, user)
	})
}
