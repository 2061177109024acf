package loader

import (
	"fmt"
	"strconv"
	"strings"
)

// RowFilter decides whether a raw row enters the dataset.
type RowFilter interface {
	Keep(row map[string]string) (bool, error)
}

// RowFilterFunc adapts a function to RowFilter.
type RowFilterFunc func(row map[string]string) (bool, error)

// Keep implements RowFilter.
func (f RowFilterFunc) Keep(row map[string]string) (bool, error) {
	return f(row)
}

// ProPublicaFilter reproduces the cleaning ProPublica applied to the
// two-year COMPAS file:
//   - screening within 30 days of arrest
//   - is_recid known (not -1)
//   - no ordinary traffic offences (c_charge_degree "O")
//   - a score_text was assigned
type ProPublicaFilter struct {
	MaxScreeningDays int // default 30
}

// Keep implements RowFilter. Rows without the filter columns are an error;
// an empty days_b_screening_arrest drops the row.
func (f ProPublicaFilter) Keep(row map[string]string) (bool, error) {
	maxDays := f.MaxScreeningDays
	if maxDays <= 0 {
		maxDays = 30
	}

	for _, c := range []string{"days_b_screening_arrest", "is_recid", "c_charge_degree", "score_text"} {
		if _, ok := row[c]; !ok {
			return false, fmt.Errorf("propublica filter: missing column %q", c)
		}
	}

	raw := strings.TrimSpace(row["days_b_screening_arrest"])
	if raw == "" {
		return false, nil
	}
	days, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return false, fmt.Errorf("propublica filter: days_b_screening_arrest %q: %w", raw, err)
	}
	if days > float64(maxDays) || days < -float64(maxDays) {
		return false, nil
	}

	if strings.TrimSpace(row["is_recid"]) == "-1" {
		return false, nil
	}
	if strings.TrimSpace(row["c_charge_degree"]) == "O" {
		return false, nil
	}
	if strings.TrimSpace(row["score_text"]) == "N/A" {
		return false, nil
	}
	return true, nil
}
