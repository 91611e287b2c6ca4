package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hcdash/hcdash-backend/internal/dashboard/service"
	"github.com/hcdash/hcdash-backend/pkg/httputil"
	"github.com/hcdash/hcdash-backend/pkg/logger"
)

// DashboardHandler serves the overview page aggregates
type DashboardHandler struct {
	service *service.DashboardService
	logger  *logger.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(svc *service.DashboardService, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: svc,
		logger:  log.WithComponent("dashboard"),
	}
}

// Summary handles GET /api/dashboard/summary
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	var (
		q   service.SummaryQuery
		err error
	)
	if q.Year, err = httputil.QueryInt(r, "year"); err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}
	if q.Month, err = httputil.QueryInt(r, "month"); err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}
	if q.CompanyID, err = httputil.QueryUUID(r, "companyId"); err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}

	summary, err := h.service.Summary(r.Context(), q)
	if err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, summary)
}

// Trend handles GET /api/dashboard/trend/{metric}
func (h *DashboardHandler) Trend(w http.ResponseWriter, r *http.Request) {
	var (
		q   service.TrendQuery
		err error
	)
	if q.Year, err = httputil.QueryInt(r, "year"); err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}
	if q.CompanyID, err = httputil.QueryUUID(r, "companyId"); err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}
	q.Field = strings.TrimSpace(r.URL.Query().Get("field"))

	trend, err := h.service.Trend(r.Context(), chi.URLParam(r, "metric"), q)
	if err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, trend)
}
