package loader

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog"

	"github.com/wonny/fairaudit/internal/contracts"
)

// Columns maps dataset columns onto Record fields.
type Columns struct {
	ID          string   `yaml:"id" json:"id"`
	Protected   []string `yaml:"protected" json:"protected"`
	Score       string   `yaml:"score" json:"score"`
	GroundTruth string   `yaml:"ground_truth" json:"ground_truth"`
}

// DefaultColumns matches compas-scores-two-years.csv.
func DefaultColumns() Columns {
	return Columns{
		ID:          "id",
		Protected:   []string{"race", "sex"},
		Score:       "decile_score",
		GroundTruth: "two_year_recid",
	}
}

// required lists the columns every row must carry.
func (c Columns) required() []string {
	cols := make([]string, 0, len(c.Protected)+3)
	if c.ID != "" {
		cols = append(cols, c.ID)
	}
	cols = append(cols, c.Protected...)
	return append(cols, c.Score, c.GroundTruth)
}

// Validate checks the mapping itself, not the data.
func (c Columns) Validate() error {
	if c.Score == "" {
		return fmt.Errorf("columns: score column is required")
	}
	if c.GroundTruth == "" {
		return fmt.Errorf("columns: ground_truth column is required")
	}
	if len(c.Protected) == 0 {
		return fmt.Errorf("columns: at least one protected attribute is required")
	}
	return nil
}

// CSVLoader reads a labeled dataset from a CSV file.
type CSVLoader struct {
	Path    string
	Columns Columns
	Filter  RowFilter // nil keeps every row
	log     zerolog.Logger
}

// NewCSVLoader creates a CSV loader
func NewCSVLoader(path string, cols Columns, filter RowFilter, log zerolog.Logger) *CSVLoader {
	return &CSVLoader{
		Path:    path,
		Columns: cols,
		Filter:  filter,
		log:     log.With().Str("component", "loader.csv").Logger(),
	}
}

// Load implements contracts.DatasetLoader.
func (l *CSVLoader) Load(ctx context.Context) (*contracts.Dataset, error) {
	f, err := os.Open(l.Path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	ds, err := l.Read(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", l.Path, err)
	}
	return ds, nil
}

// Read parses CSV from r. The dataset is named after l.Path.
func (l *CSVLoader) Read(ctx context.Context, r io.Reader) (*contracts.Dataset, error) {
	if err := l.Columns.Validate(); err != nil {
		return nil, err
	}

	rows, err := gocsv.CSVToMaps(r)
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, contracts.ErrEmptyDataset
	}

	records := make([]contracts.Record, 0, len(rows))
	dropped := 0
	for i, row := range rows {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		if l.Filter != nil {
			keep, err := l.Filter.Keep(row)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			if !keep {
				dropped++
				continue
			}
		}

		rec, err := RowToRecord(row, l.Columns, i)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("all %d rows filtered out: %w", len(rows), contracts.ErrEmptyDataset)
	}

	l.log.Info().
		Str("path", l.Path).
		Int("rows", len(rows)).
		Int("dropped", dropped).
		Int("records", len(records)).
		Msg("dataset loaded")

	return contracts.NewDataset(l.Path, records), nil
}

// RowToRecord converts one row (column → raw value) into a Record.
// index is the zero-based row position used in error messages.
func RowToRecord(row map[string]string, cols Columns, index int) (contracts.Record, error) {
	for _, c := range cols.required() {
		if _, ok := row[c]; !ok {
			return contracts.Record{}, &contracts.MissingFieldError{Field: c, Index: index}
		}
	}

	score, err := strconv.ParseFloat(strings.TrimSpace(row[cols.Score]), 64)
	if err != nil {
		return contracts.Record{}, fmt.Errorf("row %d: column %q: %w", index, cols.Score, err)
	}

	label, err := parseLabel(row[cols.GroundTruth])
	if err != nil {
		return contracts.Record{}, fmt.Errorf("row %d: column %q: %w", index, cols.GroundTruth, err)
	}

	attrs := make(map[string]string, len(cols.Protected))
	for _, p := range cols.Protected {
		attrs[p] = strings.TrimSpace(row[p])
	}

	id := strconv.Itoa(index)
	if cols.ID != "" {
		id = strings.TrimSpace(row[cols.ID])
	}

	return contracts.Record{
		ID:          id,
		Attributes:  attrs,
		Score:       score,
		GroundTruth: label,
	}, nil
}

// parseLabel accepts 0/1 and true/false.
func parseLabel(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "1.0", "true", "yes":
		return true, nil
	case "0", "0.0", "false", "no":
		return false, nil
	}
	return false, fmt.Errorf("invalid binary label %q", raw)
}
