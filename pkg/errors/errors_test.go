package errors

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hcdash/hcdash-backend/pkg/i18n"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
		target error
	}{
		{"not found", NotFound("company"), "NOT_FOUND", http.StatusNotFound, ErrNotFound},
		{"unauthorized", Unauthorized("no session"), "UNAUTHORIZED", http.StatusUnauthorized, ErrUnauthorized},
		{"forbidden", Forbidden("foreign company"), "FORBIDDEN", http.StatusForbidden, ErrForbidden},
		{"bad request", BadRequest("bad year"), "BAD_REQUEST", http.StatusBadRequest, ErrBadRequest},
		{"conflict", Conflict("duplicate"), "CONFLICT", http.StatusConflict, ErrConflict},
		{"internal", Internal("db down"), "INTERNAL_ERROR", http.StatusInternalServerError, ErrInternal},
		{"validation", Validation(map[string]string{"email": "required"}), "VALIDATION_ERROR", http.StatusBadRequest, ErrValidation},
		{"credentials", InvalidCredentials(), "INVALID_CREDENTIALS", http.StatusUnauthorized, ErrInvalidCredentials},
		{"expired", TokenExpired(), "TOKEN_EXPIRED", http.StatusUnauthorized, ErrTokenExpired},
		{"invalid token", TokenInvalid(), "TOKEN_INVALID", http.StatusUnauthorized, ErrTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.StatusCode)
			assert.True(t, Is(tt.err, tt.target))
		})
	}
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusConflict, StatusCode(fmt.Errorf("wrapped: %w", Conflict("dup"))))
	assert.Equal(t, http.StatusInternalServerError, StatusCode(fmt.Errorf("plain")))
}

func TestLocalize(t *testing.T) {
	err := NotFound("metric")

	en := err.Localize(i18n.WithLocale(context.Background(), i18n.LocaleEnglish))
	id := err.Localize(i18n.WithLocale(context.Background(), i18n.LocaleIndonesian))

	assert.Equal(t, "metric not found", en)
	assert.Equal(t, "metric tidak ditemukan", id)
}

func TestLocalize_LiteralMessage(t *testing.T) {
	err := BadRequest("year must be between 2000 and 2100")
	assert.Equal(t, "year must be between 2000 and 2100", err.Localize(context.Background()))
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(cause, "DB_ERROR", "database unavailable", http.StatusServiceUnavailable)

	assert.Equal(t, "database unavailable: connection refused", err.Error())
	assert.True(t, Is(err, cause))
}
