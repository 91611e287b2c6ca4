// Package domain computes the dashboard's headline figures from stat records.
// Ratios are computed with decimal arithmetic and are null whenever an input
// is missing or a divisor is zero.
package domain

import (
	"github.com/shopspring/decimal"

	statsdomain "github.com/hcdash/hcdash-backend/internal/stats/domain"
)

var hundred = decimal.NewFromInt(100)

// Value is a two-decimal figure that renders as JSON null when unknown
type Value struct {
	decimal.NullDecimal
}

// Known wraps d rounded to two places
func Known(d decimal.Decimal) Value {
	return Value{NullDecimal: decimal.NewNullDecimal(d.Round(2))}
}

// Unknown is a figure that cannot be computed
func Unknown() Value {
	return Value{}
}

// MarshalJSON renders a bare number so charts need no parsing
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return []byte(v.Decimal.StringFixed(2)), nil
}

// Ratio returns num/den*scale, or Unknown when den is zero
func Ratio(num, den, scale decimal.Decimal) Value {
	if den.IsZero() {
		return Unknown()
	}
	return Known(num.Mul(scale).Div(den))
}

// Inputs are the records a summary is computed from. Any of them may be nil.
type Inputs struct {
	Headcount    *statsdomain.Record
	Status       *statsdomain.Record
	Turnover     *statsdomain.Record
	Productivity *statsdomain.Record
	EmployeeCost *statsdomain.Record
	Target       *statsdomain.Record

	// RevenueYTD is the revenue summed from January through the summary month
	RevenueYTD decimal.Decimal
}

// Summary is the body of GET /api/dashboard/summary
type Summary struct {
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	CompanyID string `json:"company_id"`

	Headcount      int64 `json:"headcount"`
	PermanentCount int64 `json:"permanent_count"`
	ContractCount  int64 `json:"contract_count"`
	TurnoverCount  int64 `json:"turnover_count"`
	TurnoverRate   Value `json:"turnover_rate"`

	Revenue            Value `json:"revenue"`
	RevenuePerEmployee Value `json:"revenue_per_employee"`
	EmployeeCost       Value `json:"employee_cost"`
	CostPerEmployee    Value `json:"cost_per_employee"`

	RevenueYTD         Value `json:"revenue_ytd"`
	RevenueTarget      Value `json:"revenue_target"`
	RevenueAchievement Value `json:"revenue_achievement"`
}

// BuildSummary derives the headline figures of one company month
func BuildSummary(year, month int, companyID string, in Inputs) *Summary {
	s := &Summary{
		Year:               year,
		Month:              month,
		CompanyID:          companyID,
		TurnoverRate:       Unknown(),
		Revenue:            Unknown(),
		RevenuePerEmployee: Unknown(),
		EmployeeCost:       Unknown(),
		CostPerEmployee:    Unknown(),
		RevenueYTD:         Known(in.RevenueYTD),
		RevenueTarget:      Unknown(),
		RevenueAchievement: Unknown(),
	}

	headcount := value(in.Headcount, "total_count")
	s.Headcount = headcount.IntPart()
	s.PermanentCount = value(in.Status, "permanent_count").IntPart()
	s.ContractCount = value(in.Status, "contract_count").IntPart()

	if in.Turnover != nil {
		leavers := sum(in.Turnover)
		s.TurnoverCount = leavers.IntPart()
		s.TurnoverRate = Ratio(leavers, headcount, hundred)
	}

	if in.Productivity != nil {
		revenue := value(in.Productivity, "revenue")
		s.Revenue = Known(revenue)
		s.RevenuePerEmployee = Ratio(revenue, headcount, decimal.NewFromInt(1))
	}

	if in.EmployeeCost != nil {
		cost := value(in.EmployeeCost, "total_cost")
		s.EmployeeCost = Known(cost)
		s.CostPerEmployee = Ratio(cost, headcount, decimal.NewFromInt(1))
	}

	if in.Target != nil {
		target := value(in.Target, "revenue_target")
		s.RevenueTarget = Known(target)
		s.RevenueAchievement = Ratio(in.RevenueYTD, target, hundred)
	}

	return s
}

func value(rec *statsdomain.Record, field string) decimal.Decimal {
	if rec == nil {
		return decimal.Zero
	}
	return rec.Values[field]
}

func sum(rec *statsdomain.Record) decimal.Decimal {
	total := decimal.Zero
	for _, v := range rec.Values {
		total = total.Add(v)
	}
	return total
}
