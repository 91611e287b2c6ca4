package httputil

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/hcdash/hcdash-backend/pkg/errors"
)

// QueryInt reads an optional integer query parameter. Zero means absent.
func QueryInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.BadRequest(name + " must be a number")
	}
	return n, nil
}

// QueryUUID reads an optional UUID query parameter
func QueryUUID(r *http.Request, name string) (string, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return "", nil
	}
	if _, err := uuid.Parse(raw); err != nil {
		return "", errors.BadRequest(name + " must be a valid UUID")
	}
	return raw, nil
}

// ParseUUID validates a path identifier
func ParseUUID(raw string, resource string) (string, error) {
	if _, err := uuid.Parse(raw); err != nil {
		return "", errors.NotFound(resource)
	}
	return raw, nil
}
