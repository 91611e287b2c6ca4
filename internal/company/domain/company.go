package domain

import (
	"strings"
	"time"
)

// Company is a subsidiary (anak perusahaan) or the holding itself
type Company struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Code      *string   `json:"code" db:"code"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// LookupKeys returns the normalized strings a spreadsheet may use to name this company
func (c *Company) LookupKeys() []string {
	keys := []string{NormalizeName(c.Name)}
	if c.Code != nil && strings.TrimSpace(*c.Code) != "" {
		keys = append(keys, NormalizeName(*c.Code))
	}
	return keys
}

// NormalizeName lowercases, trims and collapses inner whitespace
func NormalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Directory resolves company names and codes to ids, case-insensitively
type Directory struct {
	byKey map[string]string
	names map[string]string
}

// NewDirectory indexes companies by name and code
func NewDirectory(companies []*Company) *Directory {
	d := &Directory{
		byKey: make(map[string]string, len(companies)*2),
		names: make(map[string]string, len(companies)),
	}
	for _, c := range companies {
		for _, key := range c.LookupKeys() {
			d.byKey[key] = c.ID
		}
		d.names[c.ID] = c.Name
	}
	return d
}

// Resolve returns the id for a name or code as written in a sheet
func (d *Directory) Resolve(nameOrCode string) (string, bool) {
	id, ok := d.byKey[NormalizeName(nameOrCode)]
	return id, ok
}

// Name returns the display name for id
func (d *Directory) Name(id string) string {
	return d.names[id]
}
