package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hcdash/hcdash-backend/internal/stats/domain"
	"github.com/hcdash/hcdash-backend/internal/stats/service"
	"github.com/hcdash/hcdash-backend/pkg/httputil"
	"github.com/hcdash/hcdash-backend/pkg/i18n"
	"github.com/hcdash/hcdash-backend/pkg/logger"
)

// DivisionSlug is the metric served by the /api/division-stats aliases
const DivisionSlug = "division"

// StatsHandler handles the generic metric endpoints
type StatsHandler struct {
	service *service.StatsService
	logger  *logger.Logger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(svc *service.StatsService, log *logger.Logger) *StatsHandler {
	return &StatsHandler{
		service: svc,
		logger:  log.WithComponent("stats"),
	}
}

// MetricView is a metric definition with its label in the request locale
type MetricView struct {
	*domain.Metric
	Label string `json:"label"`
}

// Metrics lists every metric definition
func (h *StatsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	metrics := h.service.Metrics()
	views := make([]MetricView, len(metrics))
	for i, m := range metrics {
		views[i] = MetricView{Metric: m, Label: i18n.TFromContext(r.Context(), m.LabelKey())}
	}

	httputil.JSONWithMeta(w, http.StatusOK, views, &httputil.Meta{Total: len(views)})
}

// List handles GET /api/stats/{metric}
func (h *StatsHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, chi.URLParam(r, "metric"))
}

// Upsert handles POST /api/stats/{metric}
func (h *StatsHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	h.upsert(w, r, chi.URLParam(r, "metric"))
}

// Delete handles DELETE /api/stats/{metric}/{id}
func (h *StatsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, chi.URLParam(r, "metric"))
}

// ListDivisions handles GET /api/division-stats
func (h *StatsHandler) ListDivisions(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, DivisionSlug)
}

// UpsertDivision handles POST /api/division-stats
func (h *StatsHandler) UpsertDivision(w http.ResponseWriter, r *http.Request) {
	h.upsert(w, r, DivisionSlug)
}

// DeleteDivision handles DELETE /api/division-stats/{id}
func (h *StatsHandler) DeleteDivision(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, DivisionSlug)
}

// GetDemography handles GET /api/data-center/demography
func (h *StatsHandler) GetDemography(w http.ResponseWriter, r *http.Request) {
	year, err := httputil.QueryInt(r, "year")
	if err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}
	month, err := httputil.QueryInt(r, "month")
	if err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}
	companyID, err := httputil.QueryUUID(r, "companyId")
	if err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}

	demography, err := h.service.GetDemography(r.Context(), service.DemographyQuery{
		Year:      year,
		Month:     month,
		CompanyID: companyID,
	})
	if err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, demography)
}

// SaveDemography handles POST /api/data-center/demography
func (h *StatsHandler) SaveDemography(w http.ResponseWriter, r *http.Request) {
	var body map[string]json.RawMessage
	if err := httputil.DecodeJSON(r, &body); err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}

	demography, err := h.service.SaveDemography(r.Context(), body)
	if err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, demography)
}

func (h *StatsHandler) list(w http.ResponseWriter, r *http.Request, slug string) {
	q, err := parseListQuery(r)
	if err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}

	records, companyID, err := h.service.List(r.Context(), slug, q)
	if err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, records, &httputil.Meta{
		Total:     len(records),
		CompanyID: companyID,
		Year:      q.Year,
		Month:     q.Month,
		Quarter:   q.Quarter,
	})
}

func (h *StatsHandler) upsert(w http.ResponseWriter, r *http.Request, slug string) {
	var body map[string]json.RawMessage
	if err := httputil.DecodeJSON(r, &body); err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}

	record, err := h.service.Upsert(r.Context(), slug, body)
	if err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, record)
}

func (h *StatsHandler) delete(w http.ResponseWriter, r *http.Request, slug string) {
	id, err := httputil.ParseUUID(chi.URLParam(r, "id"), "record")
	if err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}

	if err := h.service.Delete(r.Context(), slug, id); err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}

	httputil.NoContent(w)
}

func parseListQuery(r *http.Request) (service.ListQuery, error) {
	var (
		q   service.ListQuery
		err error
	)
	if q.Year, err = httputil.QueryInt(r, "year"); err != nil {
		return q, err
	}
	if q.Month, err = httputil.QueryInt(r, "month"); err != nil {
		return q, err
	}
	if q.Quarter, err = httputil.QueryInt(r, "quarter"); err != nil {
		return q, err
	}
	if q.CompanyID, err = httputil.QueryUUID(r, "companyId"); err != nil {
		return q, err
	}
	q.Category = strings.TrimSpace(r.URL.Query().Get("category"))
	return q, nil
}
