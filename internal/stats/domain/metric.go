// Package domain describes the dashboard metrics: which table each one lives
// in, how its rows are keyed by period, and which value columns it carries.
package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PeriodKind is the granularity of a metric's natural key
type PeriodKind string

const (
	PeriodMonthly   PeriodKind = "monthly"
	PeriodQuarterly PeriodKind = "quarterly"
	PeriodAnnual    PeriodKind = "annual"
)

// Column returns the period column below year, or "" for annual metrics
func (p PeriodKind) Column() string {
	switch p {
	case PeriodMonthly:
		return "month"
	case PeriodQuarterly:
		return "quarter"
	default:
		return ""
	}
}

// Slots is the number of sub-periods in a year
func (p PeriodKind) Slots() int {
	switch p {
	case PeriodMonthly:
		return 12
	case PeriodQuarterly:
		return 4
	default:
		return 1
	}
}

// FieldKind decides how a value is parsed and rendered
type FieldKind string

const (
	// KindCount is a non-negative whole number of people or events
	KindCount FieldKind = "count"
	// KindAmount is money with two decimals
	KindAmount FieldKind = "amount"
	// KindScore is an assessment score or percentage
	KindScore FieldKind = "score"
)

// Field is one value column of a metric
type Field struct {
	Name    string    `json:"name"`
	Kind    FieldKind `json:"kind"`
	Signed  bool      `json:"signed,omitempty"`
	Headers []string  `json:"headers"`
}

// Category is the optional text column that splits a period into several rows
type Category struct {
	Column  string   `json:"column"`
	Headers []string `json:"headers"`
}

// Pivot reads long-format sheets where one column names the target field
// and another holds the amount, e.g. Status=Tetap, Jumlah=120.
type Pivot struct {
	KeyHeaders   []string          `json:"key_headers"`
	ValueHeaders []string          `json:"value_headers"`
	Values       map[string]string `json:"-"`
}

// Field returns the field a pivot key selects
func (p *Pivot) Field(key string) (string, bool) {
	name, ok := p.Values[NormalizeHeader(key)]
	return name, ok
}

// Metric defines one fact table
type Metric struct {
	Slug     string     `json:"slug"`
	Table    string     `json:"-"`
	Period   PeriodKind `json:"period"`
	Category *Category  `json:"category,omitempty"`
	Fields   []Field    `json:"fields"`
	Pivot    *Pivot     `json:"pivot,omitempty"`

	// CarryOver copies the previous month's rows into an empty month on read,
	// zeroing the ResetOnCarry fields.
	CarryOver    bool     `json:"carry_over"`
	ResetOnCarry []string `json:"-"`
	Deletable    bool     `json:"deletable"`

	// Derive fills computed values before a record is stored
	Derive func(values map[string]decimal.Decimal) `json:"-"`
}

// Field looks up a value column by name
func (m *Metric) Field(name string) (Field, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FieldNames returns the value columns in declaration order
func (m *Metric) FieldNames() []string {
	names := make([]string, len(m.Fields))
	for i, f := range m.Fields {
		names[i] = f.Name
	}
	return names
}

// CategoryColumn returns the category column or ""
func (m *Metric) CategoryColumn() string {
	if m.Category == nil {
		return ""
	}
	return m.Category.Column
}

// KeyColumns returns the natural key in unique index order
func (m *Metric) KeyColumns() []string {
	cols := []string{"year"}
	if c := m.Period.Column(); c != "" {
		cols = append(cols, c)
	}
	cols = append(cols, "company_id")
	if c := m.CategoryColumn(); c != "" {
		cols = append(cols, c)
	}
	return cols
}

// ConflictTarget matches the unique index of the fact table. Categories
// compare case-insensitively, so the index is on LOWER(category).
func (m *Metric) ConflictTarget() []string {
	cols := m.KeyColumns()
	if c := m.CategoryColumn(); c != "" {
		cols[len(cols)-1] = "LOWER(" + c + ")"
	}
	return cols
}

// LabelKey is the i18n key of the metric's human name
func (m *Metric) LabelKey() string {
	return "metrics." + m.Slug
}

// NormalizeHeader lowercases a spreadsheet header and strips all whitespace
func NormalizeHeader(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}
