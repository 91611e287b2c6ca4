package domain

import (
	"strings"

	"github.com/shopspring/decimal"

	statsdomain "github.com/hcdash/hcdash-backend/internal/stats/domain"
)

// monthNames maps Indonesian and English names and abbreviations to 1-12
var monthNames = map[string]int{
	"januari": 1, "january": 1, "jan": 1,
	"februari": 2, "february": 2, "feb": 2, "pebruari": 2,
	"maret": 3, "march": 3, "mar": 3,
	"april": 4, "apr": 4,
	"mei": 5, "may": 5,
	"juni": 6, "june": 6, "jun": 6,
	"juli": 7, "july": 7, "jul": 7,
	"agustus": 8, "august": 8, "aug": 8, "agu": 8, "agt": 8, "ags": 8,
	"september": 9, "sep": 9, "sept": 9,
	"oktober": 10, "october": 10, "okt": 10, "oct": 10,
	"november": 11, "nov": 11, "nop": 11,
	"desember": 12, "december": 12, "des": 12, "dec": 12,
}

var romanQuarters = map[string]int{"i": 1, "ii": 2, "iii": 3, "iv": 4}

// quarterPrefixes are stripped before a quarter is read, longest first
var quarterPrefixes = []string{"triwulan", "kuartal", "quarter", "tw", "q"}

// ParseMonth reads a month name, abbreviation or numeral
func ParseMonth(raw string) (int, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return 0, false
	}
	if m, ok := monthNames[strings.TrimSuffix(s, ".")]; ok {
		return m, true
	}
	return wholeNumber(s, 1, 12)
}

// ParseQuarter reads Q1, TW 2, Triwulan III, Kuartal 4 or a bare 1-4
func ParseQuarter(raw string) (int, bool) {
	s := statsdomain.NormalizeHeader(raw)
	if s == "" {
		return 0, false
	}
	for _, prefix := range quarterPrefixes {
		if strings.HasPrefix(s, prefix) && len(s) > len(prefix) {
			s = s[len(prefix):]
			break
		}
	}
	if q, ok := romanQuarters[s]; ok {
		return q, true
	}
	return wholeNumber(s, 1, 4)
}

// ParseYear reads a year within the range the fact tables accept
func ParseYear(raw string) (int, bool) {
	return wholeNumber(strings.TrimSpace(raw), statsdomain.MinYear, statsdomain.MaxYear)
}

// wholeNumber accepts spreadsheet renderings such as "3" or "3.0"
func wholeNumber(s string, min, max int) (int, bool) {
	if s == "" {
		return 0, false
	}
	d, err := statsdomain.ParseNumber(s)
	if err != nil || !d.Equal(d.Truncate(0)) {
		return 0, false
	}
	// compare before converting so huge numerals cannot wrap into range
	if d.LessThan(decimal.NewFromInt(int64(min))) || d.GreaterThan(decimal.NewFromInt(int64(max))) {
		return 0, false
	}
	return int(d.IntPart()), true
}
