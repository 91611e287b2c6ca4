package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/hcdash/hcdash-backend/internal/dashboard/domain"
	statsdomain "github.com/hcdash/hcdash-backend/internal/stats/domain"
	"github.com/hcdash/hcdash-backend/internal/stats/repository"
	"github.com/hcdash/hcdash-backend/pkg/errors"
	"github.com/hcdash/hcdash-backend/pkg/logger"
	"github.com/hcdash/hcdash-backend/pkg/tenant"
)

// Reader is the read side of the fact tables
type Reader interface {
	List(ctx context.Context, m *statsdomain.Metric, f repository.Filter) ([]*statsdomain.Record, error)
	ListMany(ctx context.Context, metrics []*statsdomain.Metric, f repository.Filter) (map[string][]*statsdomain.Record, error)
}

// monthlyInputs are read together for the summary month
var monthlyInputs = []string{"headcount", "employee-status", "turnover", "productivity", "employee-cost"}

// DashboardService aggregates stat records for the overview page
type DashboardService struct {
	registry *statsdomain.Registry
	reader   Reader
	logger   *logger.Logger
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(registry *statsdomain.Registry, reader Reader, log *logger.Logger) *DashboardService {
	return &DashboardService{
		registry: registry,
		reader:   reader,
		logger:   log,
	}
}

// SummaryQuery is the filter of GET /api/dashboard/summary
type SummaryQuery struct {
	Year      int
	Month     int
	CompanyID string
}

// TrendQuery is the filter of GET /api/dashboard/trend/{metric}
type TrendQuery struct {
	Year      int
	CompanyID string
	Field     string
}

// Summary computes the headline figures of one company month
func (s *DashboardService) Summary(ctx context.Context, q SummaryQuery) (*domain.Summary, error) {
	period := statsdomain.Period{Year: q.Year, Month: q.Month}
	if details := period.Validate(statsdomain.PeriodMonthly); details != nil {
		return nil, errors.Validation(details)
	}

	companyID, err := tenant.ResolveCompany(ctx, q.CompanyID)
	if err != nil {
		return nil, err
	}

	metrics := make([]*statsdomain.Metric, 0, len(monthlyInputs))
	for _, slug := range monthlyInputs {
		m, err := s.registry.Lookup(slug)
		if err != nil {
			return nil, err
		}
		metrics = append(metrics, m)
	}

	bySlug, err := s.reader.ListMany(ctx, metrics, repository.Filter{CompanyID: companyID, Year: q.Year, Month: q.Month})
	if err != nil {
		return nil, err
	}

	productivity, err := s.registry.Lookup("productivity")
	if err != nil {
		return nil, err
	}
	yearRevenue, err := s.reader.List(ctx, productivity, repository.Filter{CompanyID: companyID, Year: q.Year})
	if err != nil {
		return nil, err
	}
	ytd := decimal.Zero
	for _, rec := range yearRevenue {
		if rec.Month <= q.Month {
			ytd = ytd.Add(rec.Values["revenue"])
		}
	}

	rkap, err := s.registry.Lookup("rkap-target")
	if err != nil {
		return nil, err
	}
	targets, err := s.reader.List(ctx, rkap, repository.Filter{CompanyID: companyID, Year: q.Year})
	if err != nil {
		return nil, err
	}

	return domain.BuildSummary(q.Year, q.Month, companyID, domain.Inputs{
		Headcount:    first(bySlug["headcount"]),
		Status:       first(bySlug["employee-status"]),
		Turnover:     first(bySlug["turnover"]),
		Productivity: first(bySlug["productivity"]),
		EmployeeCost: first(bySlug["employee-cost"]),
		Target:       first(targets),
		RevenueYTD:   ytd,
	}), nil
}

// Trend returns one field of a metric for every month or quarter of a year
func (s *DashboardService) Trend(ctx context.Context, slug string, q TrendQuery) (*domain.Trend, error) {
	m, err := s.registry.Lookup(slug)
	if err != nil {
		return nil, err
	}

	details := map[string]string{}
	if q.Year < statsdomain.MinYear || q.Year > statsdomain.MaxYear {
		details["year"] = "must be a valid year"
	}
	field := q.Field
	if field == "" {
		field = m.Fields[0].Name
	}
	if _, ok := m.Field(field); !ok {
		details["field"] = "unknown field for this metric"
	}
	if len(details) > 0 {
		return nil, errors.Validation(details)
	}

	companyID, err := tenant.ResolveCompany(ctx, q.CompanyID)
	if err != nil {
		return nil, err
	}

	records, err := s.reader.List(ctx, m, repository.Filter{CompanyID: companyID, Year: q.Year})
	if err != nil {
		return nil, err
	}

	return domain.BuildTrend(m, field, q.Year, companyID, records), nil
}

func first(records []*statsdomain.Record) *statsdomain.Record {
	if len(records) == 0 {
		return nil
	}
	return records[0]
}
