package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/hcdash/hcdash-backend/internal/company/domain"
	"github.com/hcdash/hcdash-backend/pkg/database"
	apperrors "github.com/hcdash/hcdash-backend/pkg/errors"
)

const companyColumns = `id, name, code, created_at, updated_at`

// CompanyRepository handles company persistence
type CompanyRepository struct {
	db *database.DB
}

// NewCompanyRepository creates a new company repository
func NewCompanyRepository(db *database.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// List returns every company ordered by name
func (r *CompanyRepository) List(ctx context.Context) ([]*domain.Company, error) {
	companies := []*domain.Company{}
	query := `SELECT ` + companyColumns + ` FROM companies ORDER BY name`
	if err := r.db.SelectContext(ctx, &companies, query); err != nil {
		return nil, err
	}
	return companies, nil
}

// GetByID returns a company or a 404 AppError
func (r *CompanyRepository) GetByID(ctx context.Context, id string) (*domain.Company, error) {
	var company domain.Company
	query := `SELECT ` + companyColumns + ` FROM companies WHERE id = $1`
	err := r.db.GetContext(ctx, &company, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("company")
	}
	if err != nil {
		return nil, err
	}
	return &company, nil
}

// Exists reports whether a company with id exists
func (r *CompanyRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM companies WHERE id = $1)`, id)
	return exists, err
}

// Create inserts a company, assigning its id
func (r *CompanyRepository) Create(ctx context.Context, company *domain.Company) error {
	if company.ID == "" {
		company.ID = uuid.New().String()
	}

	query := `
		INSERT INTO companies (id, name, code)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query, company.ID, company.Name, company.Code).
		Scan(&company.CreatedAt, &company.UpdatedAt)
	return database.MapError(err)
}

// Update saves name and code
func (r *CompanyRepository) Update(ctx context.Context, company *domain.Company) error {
	query := `
		UPDATE companies SET name = $2, code = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query, company.ID, company.Name, company.Code).
		Scan(&company.CreatedAt, &company.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound("company")
	}
	return database.MapError(err)
}

// Delete removes a company. Companies still referenced by users or stats yield a 409.
func (r *CompanyRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM companies WHERE id = $1`, id)
	if err != nil {
		return database.MapError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperrors.NotFound("company")
	}
	return nil
}
