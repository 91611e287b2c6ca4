package domain

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ignoredInputKeys are response-only members a client may send back unchanged
var ignoredInputKeys = map[string]bool{
	"id":           true,
	"company_name": true,
	"created_at":   true,
	"updated_at":   true,
}

// ParseInput builds a record from a JSON form body. Missing values are zero.
// The company is returned separately because the caller scopes it.
func ParseInput(m *Metric, body map[string]json.RawMessage) (*Record, string, map[string]string) {
	rec := NewRecord(m)
	details := map[string]string{}
	var companyID string

	for key, raw := range body {
		switch {
		case key == "year":
			rec.Year = readInt(raw, key, details)
		case key == "month" && m.Period == PeriodMonthly:
			rec.Month = readInt(raw, key, details)
		case key == "quarter" && m.Period == PeriodQuarterly:
			rec.Quarter = readInt(raw, key, details)
		case key == "companyId" || key == "company_id":
			companyID = readString(raw, key, details)
		case m.Category != nil && (key == m.Category.Column || key == "category"):
			rec.Category = strings.TrimSpace(readString(raw, key, details))
		case ignoredInputKeys[key]:
		default:
			f, ok := m.Field(key)
			if !ok {
				details[key] = "unknown field"
				continue
			}
			v, err := readDecimal(raw)
			if err != nil {
				details[key] = "must be a number"
				continue
			}
			if err := CheckValue(f, v); err != nil {
				details[key] = err.Error()
				continue
			}
			rec.Values[f.Name] = v
		}
	}

	for k, v := range rec.Period.Validate(m.Period) {
		if _, seen := details[k]; !seen {
			details[k] = v
		}
	}
	if m.Category != nil && rec.Category == "" {
		details[m.Category.Column] = "this field is required"
	}

	if len(details) > 0 {
		return nil, "", details
	}

	rec.Prepare()
	if f, err := rec.Check(); err != nil {
		return nil, "", map[string]string{f.Name: err.Error()}
	}
	return rec, strings.TrimSpace(companyID), nil
}

func readInt(raw json.RawMessage, key string, details map[string]string) int {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if i, err := strconv.Atoi(n.String()); err == nil {
			return i
		}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i
		}
	}
	details[key] = "must be a whole number"
	return 0
}

func readString(raw json.RawMessage, key string, details map[string]string) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		details[key] = "must be a string"
	}
	return s
}

func readDecimal(raw json.RawMessage) (decimal.Decimal, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return ParseNumber(s)
	}
	var d decimal.Decimal
	if err := json.Unmarshal(raw, &d); err != nil {
		return decimal.Zero, err
	}
	if err := checkExponent(d, string(raw)); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}
