package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// maxExponent bounds scientific notation such as 1e12 so rounding stays cheap
const maxExponent = 30

// ParseNumber reads a spreadsheet or form number. Empty means zero.
// With both separators present the comma groups thousands (1,234.50);
// a lone comma is a decimal comma (12,5). Dots followed by exactly three
// digits more than once are Indonesian thousands grouping (1.234.567).
func ParseNumber(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "Rp")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	if s == "" || s == "-" {
		return decimal.Zero, nil
	}

	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")

	switch {
	case hasComma && hasDot:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			// 1.234,50
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasComma:
		if strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case hasDot && strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q is not a number", raw)
	}
	return d, checkExponent(d, raw)
}

func checkExponent(d decimal.Decimal, raw string) error {
	if exp := d.Exponent(); exp > maxExponent || exp < -maxExponent {
		return fmt.Errorf("%q is out of range", raw)
	}
	return nil
}
