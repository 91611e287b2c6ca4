package database

import (
	"errors"
	"net/http"
	"strings"

	"github.com/lib/pq"

	apperrors "github.com/hcdash/hcdash-backend/pkg/errors"
)

// PostgreSQL error codes the API distinguishes
const (
	CodeUniqueViolation     = "23505"
	CodeForeignKeyViolation = "23503"
	CodeNotNullViolation    = "23502"
	CodeCheckViolation      = "23514"
	CodeNumericOutOfRange   = "22003"
	CodeInvalidTextFormat   = "22P02"
)

// MapPQError converts a PostgreSQL error to an AppError.
// Returns nil if err is not a *pq.Error or its code is not mapped.
func MapPQError(err error) *apperrors.AppError {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return nil
	}

	switch string(pqErr.Code) {
	case CodeCheckViolation:
		return mapCheckConstraint(pqErr)

	case CodeUniqueViolation:
		return apperrors.Conflict(uniqueMessage(pqErr))

	case CodeForeignKeyViolation:
		// A delete blocked by dependants is a conflict; a write pointing at nothing is bad input
		if strings.Contains(pqErr.Message, "update or delete") {
			return apperrors.Conflict("record is still referenced by other data")
		}
		if strings.Contains(pqErr.Constraint, "company") {
			return apperrors.BadRequest("company does not exist")
		}
		return apperrors.BadRequest("referenced record does not exist")

	case CodeNumericOutOfRange:
		return apperrors.Wrap(pqErr, "BAD_REQUEST", "value is out of range", http.StatusBadRequest).
			WithKey("errors.out_of_range", nil)

	case CodeInvalidTextFormat:
		return apperrors.Wrap(pqErr, "BAD_REQUEST", "value has an invalid format", http.StatusBadRequest).
			WithKey("errors.invalid_format", nil)

	case CodeNotNullViolation:
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return apperrors.Validation(map[string]string{
			col: "must not be empty",
		})

	default:
		return nil
	}
}

// MapError returns the mapped AppError for PostgreSQL errors and err unchanged otherwise
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if appErr := MapPQError(err); appErr != nil {
		return appErr
	}
	return err
}

func mapCheckConstraint(pqErr *pq.Error) *apperrors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "role"):
		return apperrors.Validation(map[string]string{
			"role": "must be one of: USER_ANPER, ADMIN_HOLDING, SUPER_ADMIN",
		})
	case strings.Contains(constraint, "year"):
		return apperrors.Validation(map[string]string{
			"year": "must be between 2000 and 2100",
		})
	case strings.Contains(constraint, "month"):
		return apperrors.Validation(map[string]string{
			"month": "must be between 1 and 12",
		})
	case strings.Contains(constraint, "quarter"):
		return apperrors.Validation(map[string]string{
			"quarter": "must be between 1 and 4",
		})
	default:
		return apperrors.BadRequest("data validation failed: " + constraint)
	}
}

func uniqueMessage(pqErr *pq.Error) string {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "email"):
		return "a user with this email already exists"
	case strings.Contains(constraint, "companies_name"):
		return "a company with this name already exists"
	case strings.Contains(constraint, "companies_code"):
		return "a company with this code already exists"
	default:
		return "a record with these values already exists"
	}
}
