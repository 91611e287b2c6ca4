// Package domain turns spreadsheet rows into stat records: header matching,
// period and company resolution, and per-row skip reporting.
package domain

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	statsdomain "github.com/hcdash/hcdash-backend/internal/stats/domain"
	"github.com/hcdash/hcdash-backend/pkg/i18n"
)

// Period and company header aliases, matched after NormalizeHeader
var (
	YearHeaders    = []string{"Year", "Tahun"}
	MonthHeaders   = []string{"Month", "Bulan"}
	QuarterHeaders = []string{"Quarter", "Kuartal", "Triwulan", "TW"}
	CompanyHeaders = []string{"Company", "Perusahaan", "Nama Perusahaan", "Anak Perusahaan", "Company Name"}
)

// CompanyResolver maps a name or code written in a sheet to a company id
type CompanyResolver interface {
	Resolve(nameOrCode string) (string, bool)
}

// SkippedRow reports a data row that was not imported. Row is the 1-based
// sheet row, so the header is row 1.
type SkippedRow struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ParseResult is the outcome of reading one sheet
type ParseResult struct {
	Records   []*statsdomain.Record
	Skipped   []SkippedRow
	Companies []string
}

// layout holds the column index of every recognized header, -1 when absent
type layout struct {
	year, slot, company, category int
	pivotKey, pivotValue          int
	fields                        []column
}

type column struct {
	index int
	field string
}

// Parser reads sheets of one metric
type Parser struct {
	metric     *statsdomain.Metric
	companies  CompanyResolver
	ownCompany string
	localizer  *i18n.Localizer
}

// NewParser creates a parser. A non-empty ownCompany rejects rows of any
// other company.
func NewParser(m *statsdomain.Metric, companies CompanyResolver, ownCompany string, localizer *i18n.Localizer) *Parser {
	return &Parser{
		metric:     m,
		companies:  companies,
		ownCompany: ownCompany,
		localizer:  localizer,
	}
}

// Parse reads rows with the header in rows[0]. It fails only when required
// headers are missing; bad data rows end up in Skipped.
func (p *Parser) Parse(rows [][]string) (*ParseResult, []string) {
	if len(rows) == 0 {
		return nil, p.requiredHeaders()
	}

	l, missing := p.resolveLayout(rows[0])
	if len(missing) > 0 {
		return nil, missing
	}

	result := &ParseResult{}
	byKey := map[string]*statsdomain.Record{}
	lastRow := map[string]int{}
	var order []string

	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		rowNum := i + 2

		rec, reason := p.parseRow(l, row)
		if reason != "" {
			result.Skipped = append(result.Skipped, SkippedRow{Row: rowNum, Reason: reason})
			continue
		}

		key := rec.Key()
		existing, seen := byKey[key]
		switch {
		case !seen:
			byKey[key] = rec
			order = append(order, key)
		case p.metric.Pivot != nil && l.pivotKey >= 0:
			for name, v := range rec.Values {
				existing.Add(name, v)
			}
		default:
			// a later row for the same key replaces the earlier one
			byKey[key] = rec
		}
		lastRow[key] = rowNum
	}

	companies := map[string]bool{}
	for _, key := range order {
		rec := byKey[key]
		rec.Prepare()
		// sums and derived totals can leave the column range
		if f, err := rec.Check(); err != nil {
			result.Skipped = append(result.Skipped, SkippedRow{
				Row:    lastRow[key],
				Reason: p.reason("invalid_value", f.Headers[0]+" = "+rec.Values[f.Name].String()),
			})
			continue
		}
		result.Records = append(result.Records, rec)
		companies[rec.CompanyID] = true
	}
	sort.SliceStable(result.Skipped, func(i, j int) bool { return result.Skipped[i].Row < result.Skipped[j].Row })
	for id := range companies {
		result.Companies = append(result.Companies, id)
	}
	sort.Strings(result.Companies)

	return result, nil
}

func (p *Parser) parseRow(l *layout, row []string) (*statsdomain.Record, string) {
	m := p.metric
	rec := statsdomain.NewRecord(m)

	year, ok := ParseYear(cell(row, l.year))
	if !ok {
		return nil, p.reason("invalid_year", cell(row, l.year))
	}
	rec.Year = year

	switch m.Period {
	case statsdomain.PeriodMonthly:
		month, ok := ParseMonth(cell(row, l.slot))
		if !ok {
			return nil, p.reason("invalid_month", cell(row, l.slot))
		}
		rec.Month = month
	case statsdomain.PeriodQuarterly:
		quarter, ok := ParseQuarter(cell(row, l.slot))
		if !ok {
			return nil, p.reason("invalid_quarter", cell(row, l.slot))
		}
		rec.Quarter = quarter
	}

	name := cell(row, l.company)
	companyID, ok := p.companies.Resolve(name)
	if !ok {
		return nil, p.reason("unknown_company", name)
	}
	if p.ownCompany != "" && companyID != p.ownCompany {
		return nil, p.reason("foreign_company", name)
	}
	rec.CompanyID = companyID

	if m.Category != nil {
		rec.Category = cell(row, l.category)
		if rec.Category == "" {
			return nil, p.reason("missing_category", m.Category.Headers[0])
		}
	}

	if l.pivotKey >= 0 {
		status := cell(row, l.pivotKey)
		field, ok := m.Pivot.Field(status)
		if !ok {
			return nil, p.reason("unknown_status", status)
		}
		v, reason := p.value(field, cell(row, l.pivotValue))
		if reason != "" {
			return nil, reason
		}
		rec.Values[field] = v
		return rec, ""
	}

	for _, c := range l.fields {
		v, reason := p.value(c.field, cell(row, c.index))
		if reason != "" {
			return nil, reason
		}
		rec.Values[c.field] = v
	}
	return rec, ""
}

func (p *Parser) value(name, raw string) (decimal.Decimal, string) {
	f, _ := p.metric.Field(name)
	d, err := statsdomain.ParseNumber(raw)
	if err != nil {
		return d, p.reason("invalid_value", f.Headers[0]+" = "+raw)
	}
	if err := statsdomain.CheckValue(f, d); err != nil {
		return d, p.reason("invalid_value", f.Headers[0]+" = "+raw)
	}
	return d, ""
}

func (p *Parser) reason(key, value string) string {
	return p.localizer.T("upload.reason."+key, map[string]string{"value": value})
}

func (p *Parser) resolveLayout(header []string) (*layout, []string) {
	m := p.metric
	index := map[string]int{}
	for i, h := range header {
		key := statsdomain.NormalizeHeader(h)
		if _, dup := index[key]; !dup && key != "" {
			index[key] = i
		}
	}
	find := func(aliases []string) int {
		for _, a := range aliases {
			if i, ok := index[statsdomain.NormalizeHeader(a)]; ok {
				return i
			}
		}
		return -1
	}

	l := &layout{
		year:       find(YearHeaders),
		slot:       -1,
		company:    find(CompanyHeaders),
		category:   -1,
		pivotKey:   -1,
		pivotValue: -1,
	}

	var missing []string
	if l.year < 0 {
		missing = append(missing, YearHeaders[0])
	}
	switch m.Period {
	case statsdomain.PeriodMonthly:
		if l.slot = find(MonthHeaders); l.slot < 0 {
			missing = append(missing, MonthHeaders[0])
		}
	case statsdomain.PeriodQuarterly:
		if l.slot = find(QuarterHeaders); l.slot < 0 {
			missing = append(missing, QuarterHeaders[0])
		}
	}
	if l.company < 0 {
		missing = append(missing, CompanyHeaders[0])
	}
	if m.Category != nil {
		if l.category = find(m.Category.Headers); l.category < 0 {
			missing = append(missing, m.Category.Headers[0])
		}
	}

	if m.Pivot != nil {
		l.pivotKey = find(m.Pivot.KeyHeaders)
		l.pivotValue = find(m.Pivot.ValueHeaders)
		if l.pivotKey >= 0 && l.pivotValue < 0 {
			missing = append(missing, m.Pivot.ValueHeaders[0])
		}
	}

	if l.pivotKey < 0 {
		for _, f := range m.Fields {
			if i := find(f.Headers); i >= 0 {
				l.fields = append(l.fields, column{index: i, field: f.Name})
			}
		}
		if len(l.fields) == 0 {
			missing = append(missing, m.Fields[0].Headers[0])
		}
	}

	return l, missing
}

func (p *Parser) requiredHeaders() []string {
	m := p.metric
	headers := []string{YearHeaders[0]}
	switch m.Period {
	case statsdomain.PeriodMonthly:
		headers = append(headers, MonthHeaders[0])
	case statsdomain.PeriodQuarterly:
		headers = append(headers, QuarterHeaders[0])
	}
	headers = append(headers, CompanyHeaders[0])
	if m.Category != nil {
		headers = append(headers, m.Category.Headers[0])
	}
	return headers
}

// TemplateHeaders is the header row of a blank import sheet
func TemplateHeaders(m *statsdomain.Metric) []string {
	headers := (&Parser{metric: m}).requiredHeaders()
	for _, f := range m.Fields {
		headers = append(headers, f.Headers[0])
	}
	return headers
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
