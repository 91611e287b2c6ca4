package service

import (
	"context"
	"encoding/json"

	"github.com/hcdash/hcdash-backend/internal/stats/domain"
	"github.com/hcdash/hcdash-backend/internal/stats/repository"
	"github.com/hcdash/hcdash-backend/pkg/errors"
	"github.com/hcdash/hcdash-backend/pkg/tenant"
)

// DemographySections maps the composite form's sections to metric slugs
var DemographySections = []struct {
	Key  string
	Slug string
}{
	{"headcount", "headcount"},
	{"employee_status", "employee-status"},
	{"education", "education"},
	{"level", "level"},
	{"age", "age"},
	{"length_of_service", "length-of-service"},
}

// DemographyQuery addresses one month of one company
type DemographyQuery struct {
	Year      int
	Month     int
	CompanyID string
}

// Demography is the composite data-center view. Sections without a row are nil.
type Demography struct {
	Year      int                       `json:"year"`
	Month     int                       `json:"month"`
	CompanyID string                    `json:"company_id"`
	Sections  map[string]*domain.Record `json:"sections"`
}

// GetDemography reads every demography section of one month in one snapshot
func (s *StatsService) GetDemography(ctx context.Context, q DemographyQuery) (*Demography, error) {
	period := domain.Period{Year: q.Year, Month: q.Month}
	if details := period.Validate(domain.PeriodMonthly); details != nil {
		return nil, errors.Validation(details)
	}

	companyID, err := tenant.ResolveCompany(ctx, q.CompanyID)
	if err != nil {
		return nil, err
	}

	metrics, err := s.demographyMetrics()
	if err != nil {
		return nil, err
	}

	bySlug, err := s.repo.ListMany(ctx, metrics, repository.Filter{CompanyID: companyID, Year: q.Year, Month: q.Month})
	if err != nil {
		return nil, err
	}

	out := &Demography{Year: q.Year, Month: q.Month, CompanyID: companyID, Sections: map[string]*domain.Record{}}
	for _, sec := range DemographySections {
		out.Sections[sec.Key] = nil
		if records := bySlug[sec.Slug]; len(records) > 0 {
			out.Sections[sec.Key] = records[0]
		}
	}
	return out, nil
}

// SaveDemography upserts every section present in body in one transaction.
// Top-level year, month and companyId apply to all sections.
func (s *StatsService) SaveDemography(ctx context.Context, body map[string]json.RawMessage) (*Demography, error) {
	shared := map[string]json.RawMessage{}
	for _, key := range []string{"year", "month", "companyId", "company_id"} {
		if v, ok := body[key]; ok {
			shared[key] = v
		}
	}

	var (
		records []*domain.Record
		details = map[string]string{}
		company string
	)

	for _, sec := range DemographySections {
		raw, ok := body[sec.Key]
		if !ok || string(raw) == "null" {
			continue
		}

		m, err := s.registry.Lookup(sec.Slug)
		if err != nil {
			return nil, err
		}

		var section map[string]json.RawMessage
		if err := json.Unmarshal(raw, &section); err != nil {
			details[sec.Key] = "must be an object"
			continue
		}
		for k, v := range shared {
			section[k] = v
		}

		rec, requested, errs := domain.ParseInput(m, section)
		for field, msg := range errs {
			details[sec.Key+"."+field] = msg
		}
		if rec != nil {
			company = requested
			records = append(records, rec)
		}
	}

	if len(details) > 0 {
		return nil, errors.Validation(details)
	}
	if len(records) == 0 {
		return nil, errors.BadRequest("at least one demography section is required")
	}

	companyID, err := s.writeScope(ctx, company)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		rec.CompanyID = companyID
	}

	if err := s.repo.UpsertAll(ctx, records); err != nil {
		return nil, err
	}

	out := &Demography{Year: records[0].Year, Month: records[0].Month, CompanyID: companyID, Sections: map[string]*domain.Record{}}
	for _, rec := range records {
		s.publishUpsert(ctx, rec)
		for _, sec := range DemographySections {
			if sec.Slug == rec.Metric().Slug {
				out.Sections[sec.Key] = rec
			}
		}
	}
	return out, nil
}

func (s *StatsService) demographyMetrics() ([]*domain.Metric, error) {
	metrics := make([]*domain.Metric, 0, len(DemographySections))
	for _, sec := range DemographySections {
		m, err := s.registry.Lookup(sec.Slug)
		if err != nil {
			return nil, err
		}
		metrics = append(metrics, m)
	}
	return metrics, nil
}
