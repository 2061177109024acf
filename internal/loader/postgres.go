package loader

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/wonny/fairaudit/internal/contracts"
)

// Querier is the subset of *pgxpool.Pool the loader needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// columnHinter is implemented by filters that read extra columns.
type columnHinter interface {
	Columns() []string
}

// Columns lists the raw columns ProPublicaFilter inspects.
func (ProPublicaFilter) Columns() []string {
	return []string{"days_b_screening_arrest", "is_recid", "c_charge_degree", "score_text"}
}

// PostgresLoader reads a labeled dataset from a table.
// 모든 컬럼은 text로 캐스팅 후 CSV와 동일한 변환 경로를 탐
type PostgresLoader struct {
	db      Querier
	Table   string // optionally schema-qualified: "public.compas"
	Columns Columns
	Filter  RowFilter
	log     zerolog.Logger
}

// NewPostgresLoader creates a postgres loader
func NewPostgresLoader(db Querier, table string, cols Columns, filter RowFilter, log zerolog.Logger) *PostgresLoader {
	return &PostgresLoader{
		db:      db,
		Table:   table,
		Columns: cols,
		Filter:  filter,
		log:     log.With().Str("component", "loader.postgres").Logger(),
	}
}

// selectColumns returns the deduplicated column list in query order.
func (l *PostgresLoader) selectColumns() []string {
	cols := l.Columns.required()
	if h, ok := l.Filter.(columnHinter); ok {
		cols = append(cols, h.Columns()...)
	}

	seen := make(map[string]bool, len(cols))
	out := cols[:0:0]
	for _, c := range cols {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// Query builds the SELECT statement. Identifiers are quoted with pgx.Identifier.
func (l *PostgresLoader) Query() (string, []string, error) {
	if l.Table == "" {
		return "", nil, fmt.Errorf("postgres loader: table is required")
	}
	if err := l.Columns.Validate(); err != nil {
		return "", nil, err
	}

	cols := l.selectColumns()
	exprs := make([]string, len(cols))
	for i, c := range cols {
		exprs[i] = pgx.Identifier{c}.Sanitize() + "::text"
	}

	table := pgx.Identifier(strings.Split(l.Table, ".")).Sanitize()
	order := ""
	if l.Columns.ID != "" {
		order = " ORDER BY " + pgx.Identifier{l.Columns.ID}.Sanitize()
	}

	return fmt.Sprintf("SELECT %s FROM %s%s", strings.Join(exprs, ", "), table, order), cols, nil
}

// Load implements contracts.DatasetLoader.
func (l *PostgresLoader) Load(ctx context.Context) (*contracts.Dataset, error) {
	query, cols, err := l.Query()
	if err != nil {
		return nil, err
	}

	rows, err := l.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", l.Table, err)
	}
	defer rows.Close()

	var records []contracts.Record
	total, dropped := 0, 0
	required := make(map[string]bool)
	for _, c := range l.Columns.required() {
		required[c] = true
	}
	vals := make([]*string, len(cols))
	dest := make([]any, len(cols))
	for i := range vals {
		dest[i] = &vals[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan row %d: %w", total, err)
		}

		// 필수 컬럼의 NULL은 키를 누락시켜 MissingFieldError로 이어짐
		row := make(map[string]string, len(cols))
		for i, c := range cols {
			switch {
			case vals[i] != nil:
				row[c] = *vals[i]
			case !required[c]:
				row[c] = ""
			}
		}

		index := total
		total++

		if l.Filter != nil {
			keep, err := l.Filter.Keep(row)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", index, err)
			}
			if !keep {
				dropped++
				continue
			}
		}

		rec, err := RowToRecord(row, l.Columns, index)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", l.Table, err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("table %s yielded no records: %w", l.Table, contracts.ErrEmptyDataset)
	}

	l.log.Info().
		Str("table", l.Table).
		Int("rows", total).
		Int("dropped", dropped).
		Int("records", len(records)).
		Msg("dataset loaded")

	return contracts.NewDataset(l.Table, records), nil
}
