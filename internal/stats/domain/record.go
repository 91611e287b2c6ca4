package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Year bounds enforced by the fact tables
const (
	MinYear = 2000
	MaxYear = 2100
)

// Period addresses one slot of a metric. Month and Quarter are zero when the
// metric's PeriodKind does not use them.
type Period struct {
	Year    int `json:"year"`
	Month   int `json:"month,omitempty"`
	Quarter int `json:"quarter,omitempty"`
}

// Slot returns the month or quarter, whichever the kind uses
func (p Period) Slot(kind PeriodKind) int {
	switch kind {
	case PeriodMonthly:
		return p.Month
	case PeriodQuarterly:
		return p.Quarter
	default:
		return 0
	}
}

// Validate checks the period is complete for kind
func (p Period) Validate(kind PeriodKind) map[string]string {
	details := map[string]string{}
	if p.Year < MinYear || p.Year > MaxYear {
		details["year"] = fmt.Sprintf("must be between %d and %d", MinYear, MaxYear)
	}
	switch kind {
	case PeriodMonthly:
		if p.Month < 1 || p.Month > 12 {
			details["month"] = "must be between 1 and 12"
		}
	case PeriodQuarterly:
		if p.Quarter < 1 || p.Quarter > 4 {
			details["quarter"] = "must be between 1 and 4"
		}
	}
	if len(details) == 0 {
		return nil
	}
	return details
}

// Record is one row of a fact table
type Record struct {
	ID          string
	CompanyID   string
	CompanyName string
	Period
	Category  string
	Values    map[string]decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time

	metric *Metric
}

// NewRecord creates an empty record of metric m
func NewRecord(m *Metric) *Record {
	return &Record{metric: m, Values: make(map[string]decimal.Decimal, len(m.Fields))}
}

// Metric returns the definition the record belongs to
func (r *Record) Metric() *Metric {
	return r.metric
}

// Key identifies the record's natural key within one import
func (r *Record) Key() string {
	return fmt.Sprintf("%d|%d|%d|%s|%s", r.Year, r.Month, r.Quarter, r.CompanyID, strings.ToLower(r.Category))
}

// Add accumulates v into field name
func (r *Record) Add(name string, v decimal.Decimal) {
	r.Values[name] = r.Values[name].Add(v)
}

// Prepare fills missing values with zero and applies the metric's derive hook
func (r *Record) Prepare() {
	for _, f := range r.metric.Fields {
		if _, ok := r.Values[f.Name]; !ok {
			r.Values[f.Name] = decimal.Zero
		}
	}
	if r.metric.Derive != nil {
		r.metric.Derive(r.Values)
	}
}

// MarshalJSON flattens values next to the key columns so charts can read
// record.male_count directly. Counts render as integers, the rest as
// decimals with two places.
func (r *Record) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{
		"id":         r.ID,
		"company_id": r.CompanyID,
		"year":       r.Year,
		"created_at": r.CreatedAt,
		"updated_at": r.UpdatedAt,
	}
	if r.CompanyName != "" {
		out["company_name"] = r.CompanyName
	}

	m := r.metric
	if col := m.Period.Column(); col != "" {
		out[col] = r.Slot(m.Period)
	}
	if col := m.CategoryColumn(); col != "" {
		out[col] = r.Category
	}

	for _, f := range m.Fields {
		v := r.Values[f.Name]
		if f.Kind == KindCount {
			out[f.Name] = v.IntPart()
		} else {
			out[f.Name] = json.Number(v.StringFixed(2))
		}
	}

	return json.Marshal(out)
}

// Largest magnitudes the fact table columns hold: INTEGER for counts,
// NUMERIC(20,2) for amounts and NUMERIC(10,2) for scores.
var kindLimits = map[FieldKind]decimal.Decimal{
	KindCount:  decimal.NewFromInt(math.MaxInt32),
	KindAmount: decimal.RequireFromString("999999999999999999.99"),
	KindScore:  decimal.RequireFromString("99999999.99"),
}

// CheckValue validates v against the field's kind
func CheckValue(f Field, v decimal.Decimal) error {
	if v.IsNegative() && !f.Signed {
		return fmt.Errorf("%s must not be negative", f.Name)
	}
	if f.Kind == KindCount && !v.Equal(v.Truncate(0)) {
		return fmt.Errorf("%s must be a whole number", f.Name)
	}
	if limit, ok := kindLimits[f.Kind]; ok && v.Round(2).Abs().GreaterThan(limit) {
		return fmt.Errorf("%s must not exceed %s", f.Name, limit.String())
	}
	return nil
}

// Check validates every value after Prepare, derived totals included.
// It returns the first offending field.
func (r *Record) Check() (Field, error) {
	for _, f := range r.metric.Fields {
		if err := CheckValue(f, r.Values[f.Name]); err != nil {
			return f, err
		}
	}
	return Field{}, nil
}
