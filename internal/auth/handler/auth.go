package handler

import (
	"net/http"
	"time"

	"github.com/hcdash/hcdash-backend/internal/auth/service"
	"github.com/hcdash/hcdash-backend/pkg/config"
	"github.com/hcdash/hcdash-backend/pkg/httputil"
	"github.com/hcdash/hcdash-backend/pkg/i18n"
	"github.com/hcdash/hcdash-backend/pkg/logger"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	service    *service.AuthService
	cookieName string
	secure     bool
	logger     *logger.Logger
}

// NewAuthHandler creates a new auth handler. Cookies are marked Secure
// everywhere except development.
func NewAuthHandler(svc *service.AuthService, cfg *config.Config, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		service:    svc,
		cookieName: cfg.JWT.CookieName,
		secure:     !cfg.Server.IsDevelopment(),
		logger:     log.WithComponent("auth"),
	}
}

// Login verifies credentials and sets the session cookie
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}

	if err := httputil.Validate(&req); err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}

	result, err := h.service.Login(r.Context(), &req)
	if err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    result.Token,
		Path:     "/",
		Expires:  result.ExpiresAt,
		MaxAge:   int(time.Until(result.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	httputil.JSON(w, http.StatusOK, result.User)
}

// Logout clears the session cookie. Tokens are not revoked server side.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	httputil.JSON(w, http.StatusOK, map[string]string{
		"message": i18n.TFromContext(r.Context(), "auth.logged_out"),
	})
}

// Me returns the current session and account
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	me, err := h.service.Me(r.Context())
	if err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, me)
}
