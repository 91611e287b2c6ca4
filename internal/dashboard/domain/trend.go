package domain

import (
	"github.com/shopspring/decimal"

	statsdomain "github.com/hcdash/hcdash-backend/internal/stats/domain"
)

// Point is one month or quarter of a trend
type Point struct {
	Period int   `json:"period"`
	Value  Value `json:"value"`
}

// Trend is one field of a metric across a year
type Trend struct {
	Metric    string  `json:"metric"`
	Field     string  `json:"field"`
	Period    string  `json:"period"`
	Year      int     `json:"year"`
	CompanyID string  `json:"company_id"`
	Points    []Point `json:"points"`
}

// BuildTrend sums field per slot. Slots without records are zero and
// categorized rows of the same slot are added together.
func BuildTrend(m *statsdomain.Metric, field string, year int, companyID string, records []*statsdomain.Record) *Trend {
	slots := m.Period.Slots()
	totals := make([]decimal.Decimal, slots)
	for _, rec := range records {
		idx := rec.Slot(m.Period) - 1
		if m.Period == statsdomain.PeriodAnnual {
			idx = 0
		}
		if idx < 0 || idx >= slots {
			continue
		}
		totals[idx] = totals[idx].Add(rec.Values[field])
	}

	t := &Trend{
		Metric:    m.Slug,
		Field:     field,
		Period:    string(m.Period),
		Year:      year,
		CompanyID: companyID,
		Points:    make([]Point, slots),
	}
	for i, total := range totals {
		t.Points[i] = Point{Period: i + 1, Value: Known(total)}
	}
	return t
}
