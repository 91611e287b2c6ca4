package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hcdash/hcdash-backend/internal/company/service"
	"github.com/hcdash/hcdash-backend/pkg/httputil"
	"github.com/hcdash/hcdash-backend/pkg/logger"
)

// CompanyHandler handles company endpoints
type CompanyHandler struct {
	service *service.CompanyService
	logger  *logger.Logger
}

// NewCompanyHandler creates a new company handler
func NewCompanyHandler(svc *service.CompanyService, log *logger.Logger) *CompanyHandler {
	return &CompanyHandler{
		service: svc,
		logger:  log.WithComponent("companies"),
	}
}

// List lists the companies visible to the caller
func (h *CompanyHandler) List(w http.ResponseWriter, r *http.Request) {
	companies, err := h.service.List(r.Context())
	if err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, companies, &httputil.Meta{Total: len(companies)})
}

// Get returns one company
func (h *CompanyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParseUUID(chi.URLParam(r, "id"), "company")
	if err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}

	company, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, company)
}

// Create creates a company
func (h *CompanyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateCompanyRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}

	if err := httputil.Validate(&req); err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}

	company, err := h.service.Create(r.Context(), &req)
	if err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}

	httputil.Created(w, company)
}

// Update updates a company
func (h *CompanyHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParseUUID(chi.URLParam(r, "id"), "company")
	if err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}

	var req service.UpdateCompanyRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}

	if err := httputil.Validate(&req); err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}

	company, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, company)
}

// Delete deletes a company
func (h *CompanyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParseUUID(chi.URLParam(r, "id"), "company")
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
