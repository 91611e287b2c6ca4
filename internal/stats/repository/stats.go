package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/hcdash/hcdash-backend/internal/stats/domain"
	"github.com/hcdash/hcdash-backend/pkg/database"
	apperrors "github.com/hcdash/hcdash-backend/pkg/errors"
)

// Filter narrows a list query. Zero values match everything.
type Filter struct {
	CompanyID string
	Year      int
	Month     int
	Quarter   int
	Category  string
}

// StatsRepository reads and writes every fact table through the metric
// definitions. Table and column names only ever come from the registry.
type StatsRepository struct {
	db *database.DB
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db *database.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// List returns the records matching f ordered by period, company and category
func (r *StatsRepository) List(ctx context.Context, m *domain.Metric, f Filter) ([]*domain.Record, error) {
	return r.list(ctx, r.db, m, f)
}

// ListMany reads several metrics for the same filter inside one transaction
// so the result is a consistent snapshot.
func (r *StatsRepository) ListMany(ctx context.Context, metrics []*domain.Metric, f Filter) (map[string][]*domain.Record, error) {
	out := make(map[string][]*domain.Record, len(metrics))
	err := r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		for _, m := range metrics {
			records, err := r.list(ctx, tx, m, f)
			if err != nil {
				return err
			}
			out[m.Slug] = records
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID returns one record
func (r *StatsRepository) GetByID(ctx context.Context, m *domain.Metric, id string) (*domain.Record, error) {
	query := selectClause(m) + ` WHERE t.id = $1`
	records, err := r.query(ctx, r.db, m, query, id)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apperrors.NotFound("record")
	}
	return records[0], nil
}

// Upsert inserts rec or overwrites the values of the row with the same natural key
func (r *StatsRepository) Upsert(ctx context.Context, rec *domain.Record) error {
	return r.upsert(ctx, r.db, rec)
}

// UpsertAll writes every record in one transaction
func (r *StatsRepository) UpsertAll(ctx context.Context, records []*domain.Record) error {
	return r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		for _, rec := range records {
			if err := r.upsert(ctx, tx, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes a record. A non-empty companyID restricts the delete to
// that company so scoped callers cannot remove foreign rows.
func (r *StatsRepository) Delete(ctx context.Context, m *domain.Metric, id, companyID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND ($2 = '' OR company_id::text = $2)`, m.Table)
	result, err := r.db.ExecContext(ctx, query, id, companyID)
	if err != nil {
		return database.MapError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperrors.NotFound("record")
	}
	return nil
}

// CarryOver copies the previous month's rows into (year, month) for companyID
// when that month has no rows at all. The emptiness check and the copy are a
// single statement and conflicting rows are skipped, so concurrent readers
// cannot create duplicates. Returns the number of rows copied.
func (r *StatsRepository) CarryOver(ctx context.Context, m *domain.Metric, companyID string, year, month int) (int64, error) {
	if m.Period != domain.PeriodMonthly || !m.CarryOver || month <= 1 {
		return 0, nil
	}

	var copied int64
	err := r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, carryOverStatement(m), companyID, year, month, month-1)
		if err != nil {
			return database.MapError(err)
		}
		copied, err = result.RowsAffected()
		return err
	})
	return copied, err
}

func (r *StatsRepository) list(ctx context.Context, q database.Querier, m *domain.Metric, f Filter) ([]*domain.Record, error) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.CompanyID != "" {
		add("t.company_id = $%d", f.CompanyID)
	}
	if f.Year != 0 {
		add("t.year = $%d", f.Year)
	}
	switch m.Period {
	case domain.PeriodMonthly:
		if f.Month != 0 {
			add("t.month = $%d", f.Month)
		}
	case domain.PeriodQuarterly:
		if f.Quarter != 0 {
			add("t.quarter = $%d", f.Quarter)
		}
	}
	if col := m.CategoryColumn(); col != "" && f.Category != "" {
		add("LOWER(t."+col+") = LOWER($%d)", f.Category)
	}

	query := selectClause(m)
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " " + orderClause(m)

	return r.query(ctx, q, m, query, args...)
}

func (r *StatsRepository) query(ctx context.Context, q database.Querier, m *domain.Metric, query string, args ...interface{}) ([]*domain.Record, error) {
	rows, err := q.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []*domain.Record{}
	for rows.Next() {
		rec := domain.NewRecord(m)
		var (
			slot      int
			companyNm sql.NullString
			created   time.Time
			updated   time.Time
		)
		values := make([]decimal.Decimal, len(m.Fields))

		dest := []interface{}{&rec.ID, &rec.CompanyID, &companyNm, &rec.Year, &slot, &rec.Category}
		for i := range values {
			dest = append(dest, &values[i])
		}
		dest = append(dest, &created, &updated)

		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		switch m.Period {
		case domain.PeriodMonthly:
			rec.Month = slot
		case domain.PeriodQuarterly:
			rec.Quarter = slot
		}
		rec.CompanyName = companyNm.String
		rec.CreatedAt, rec.UpdatedAt = created, updated
		for i, f := range m.Fields {
			rec.Values[f.Name] = values[i]
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *StatsRepository) upsert(ctx context.Context, q database.Querier, rec *domain.Record) error {
	m := rec.Metric()

	cols := []string{"id", "company_id", "year"}
	args := []interface{}{uuid.New().String(), rec.CompanyID, rec.Year}
	if col := m.Period.Column(); col != "" {
		cols = append(cols, col)
		args = append(args, rec.Slot(m.Period))
	}
	updates := make([]string, 0, len(m.Fields)+2)
	if col := m.CategoryColumn(); col != "" {
		cols = append(cols, col)
		args = append(args, rec.Category)
		// the latest spelling of a category wins
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}

	for _, f := range m.Fields {
		cols = append(cols, f.Name)
		args = append(args, columnValue(f, rec.Values[f.Name]))
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", f.Name, f.Name))
	}
	updates = append(updates, "updated_at = NOW()")

	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(
		`INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s RETURNING id, created_at, updated_at`,
		m.Table,
		strings.Join(cols, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(m.ConflictTarget(), ", "),
		strings.Join(updates, ", "),
	)

	err := q.QueryRowxContext(ctx, query, args...).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.Internal("upsert returned no row")
	}
	return database.MapError(err)
}

func columnValue(f domain.Field, v decimal.Decimal) interface{} {
	if f.Kind == domain.KindCount {
		return v.IntPart()
	}
	return v
}

func selectClause(m *domain.Metric) string {
	cols := []string{"t.id", "t.company_id", "c.name", "t.year"}
	if col := m.Period.Column(); col != "" {
		cols = append(cols, "t."+col)
	} else {
		cols = append(cols, "0")
	}
	if col := m.CategoryColumn(); col != "" {
		cols = append(cols, "t."+col)
	} else {
		cols = append(cols, "''")
	}
	for _, f := range m.Fields {
		cols = append(cols, "t."+f.Name)
	}
	cols = append(cols, "t.created_at", "t.updated_at")

	return fmt.Sprintf(`SELECT %s FROM %s t JOIN companies c ON c.id = t.company_id`, strings.Join(cols, ", "), m.Table)
}

func orderClause(m *domain.Metric) string {
	order := []string{"t.year"}
	if col := m.Period.Column(); col != "" {
		order = append(order, "t."+col)
	}
	order = append(order, "c.name")
	if col := m.CategoryColumn(); col != "" {
		order = append(order, "t."+col)
	}
	return "ORDER BY " + strings.Join(order, ", ")
}

func carryOverStatement(m *domain.Metric) string {
	reset := make(map[string]bool, len(m.ResetOnCarry))
	for _, name := range m.ResetOnCarry {
		reset[name] = true
	}

	cols := []string{"id", "company_id", "year", "month"}
	sel := []string{"gen_random_uuid()", "p.company_id", "p.year", "$3"}
	if col := m.CategoryColumn(); col != "" {
		cols = append(cols, col)
		sel = append(sel, "p."+col)
	}
	for _, f := range m.Fields {
		cols = append(cols, f.Name)
		if reset[f.Name] {
			sel = append(sel, "0")
		} else {
			sel = append(sel, "p."+f.Name)
		}
	}

	return fmt.Sprintf(`INSERT INTO %[1]s (%[2]s)
		SELECT %[3]s FROM %[1]s p
		WHERE p.company_id = $1 AND p.year = $2 AND p.month = $4
		  AND NOT EXISTS (SELECT 1 FROM %[1]s c WHERE c.company_id = $1 AND c.year = $2 AND c.month = $3)
		ON CONFLICT (%[4]s) DO NOTHING`,
		m.Table,
		strings.Join(cols, ", "),
		strings.Join(sel, ", "),
		strings.Join(m.ConflictTarget(), ", "),
	)
}
