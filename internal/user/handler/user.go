package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hcdash/hcdash-backend/internal/user/service"
	"github.com/hcdash/hcdash-backend/pkg/httputil"
	"github.com/hcdash/hcdash-backend/pkg/logger"
)

// UserHandler handles user administration endpoints
type UserHandler struct {
	service *service.UserService
	logger  *logger.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(svc *service.UserService, log *logger.Logger) *UserHandler {
	return &UserHandler{
		service: svc,
		logger:  log.WithComponent("users"),
	}
}

// List lists users, optionally filtered by ?companyId=
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	companyID, err := httputil.QueryUUID(r, "companyId")
	if err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}

	users, err := h.service.List(r.Context(), companyID)
	if err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, users, &httputil.Meta{Total: len(users), CompanyID: companyID})
}

// Get returns one user
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParseUUID(chi.URLParam(r, "id"), "user")
	if err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}

	user, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, user)
}

// Create creates a user
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateUserRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}

	if err := httputil.Validate(&req); err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}

	user, err := h.service.Create(r.Context(), &req)
	if err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}

	httputil.Created(w, user)
}

// Update updates a user
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParseUUID(chi.URLParam(r, "id"), "user")
	if err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}

	var req service.UpdateUserRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}

	if err := httputil.Validate(&req); err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}

	user, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, user)
}

// Delete deletes a user
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParseUUID(chi.URLParam(r, "id"), "user")
	if err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}

	httputil.NoContent(w)
}
