package describe

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/wonny/fairaudit/internal/contracts"
)

// Field is a numeric record field that can be averaged per group.
type Field string

const (
	FieldScore       Field = "score"
	FieldGroundTruth Field = "ground_truth" // mean = recidivism rate
	FieldPredicted   Field = "predicted"    // mean = predicted high-risk rate
)

// DefaultFields are the fields reported by the exploratory analysis.
var DefaultFields = []Field{FieldGroundTruth, FieldScore}

// GroupStats holds the count and per-field means for one group value.
type GroupStats struct {
	Value string            `json:"value"`
	Count int               `json:"count"`
	Means map[Field]float64 `json:"means"`
}

// Summary is the result of Aggregate.
type Summary struct {
	Attribute string            `json:"attribute"`
	Total     int               `json:"total"`
	Groups    []GroupStats      `json:"groups"`  // count descending
	Overall   map[Field]float64 `json:"overall"` // means over all aggregated records
}

// Group returns the stats for a value, if observed.
func (s *Summary) Group(value string) (GroupStats, bool) {
	for _, g := range s.Groups {
		if g.Value == value {
			return g, true
		}
	}
	return GroupStats{}, false
}

// RankBy returns the groups sorted by the mean of field, highest first.
func (s *Summary) RankBy(field Field) []GroupStats {
	ranked := make([]GroupStats, len(s.Groups))
	copy(ranked, s.Groups)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Means[field] > ranked[j].Means[field]
	})
	return ranked
}

// Aggregate groups records by a protected attribute and averages the given
// fields. A nil filter keeps every record. Groups left without records by the
// filter are omitted rather than reported as NaN. Only records the filter
// keeps must carry the attribute.
func Aggregate(ds *contracts.Dataset, attribute string, fields []Field, filter func(contracts.Record) bool) (*Summary, error) {
	if ds.Len() == 0 {
		return nil, contracts.ErrEmptyDataset
	}
	for _, f := range fields {
		if err := requireField(ds, f); err != nil {
			return nil, err
		}
	}

	order := make([]string, 0)
	counts := make(map[string]int)
	values := make(map[string]map[Field][]float64)
	overall := make(map[Field][]float64)
	total := 0

	for i := 0; i < ds.Len(); i++ {
		r := ds.Record(i)
		if filter != nil && !filter(r) {
			continue
		}
		v, ok := r.Attribute(attribute)
		if !ok {
			return nil, &contracts.MissingFieldError{Field: attribute, Index: i}
		}
		total++

		if _, ok := values[v]; !ok {
			values[v] = make(map[Field][]float64)
			order = append(order, v)
		}
		counts[v]++
		for _, f := range fields {
			x := fieldValue(r, f)
			values[v][f] = append(values[v][f], x)
			overall[f] = append(overall[f], x)
		}
	}

	summary := &Summary{
		Attribute: attribute,
		Total:     total,
		Groups:    make([]GroupStats, 0, len(order)),
		Overall:   make(map[Field]float64, len(fields)),
	}

	for _, v := range order {
		gs := GroupStats{Value: v, Count: counts[v], Means: make(map[Field]float64, len(fields))}
		for _, f := range fields {
			mean, err := stats.Mean(values[v][f])
			if err != nil {
				return nil, fmt.Errorf("mean of %s for %s=%s: %w", f, attribute, v, err)
			}
			gs.Means[f] = mean
		}
		summary.Groups = append(summary.Groups, gs)
	}

	for _, f := range fields {
		if len(overall[f]) == 0 {
			continue
		}
		mean, err := stats.Mean(overall[f])
		if err != nil {
			return nil, fmt.Errorf("overall mean of %s: %w", f, err)
		}
		summary.Overall[f] = mean
	}

	// value_counts 순서: count 내림차순, 동률이면 값 오름차순
	sort.SliceStable(summary.Groups, func(i, j int) bool {
		if summary.Groups[i].Count != summary.Groups[j].Count {
			return summary.Groups[i].Count > summary.Groups[j].Count
		}
		return summary.Groups[i].Value < summary.Groups[j].Value
	})

	return summary, nil
}

// =============================================================================
// Score Distribution
// =============================================================================

// Distribution is a histogram of integer scores for one group.
type Distribution struct {
	Group  contracts.Group `json:"group"`
	Min    int             `json:"min"`
	Max    int             `json:"max"`
	Counts []int           `json:"counts"` // Counts[i] = records with score Min+i
	Median float64         `json:"median"`
	StdDev float64         `json:"std_dev"`
}

// Count returns the number of records with the given score.
func (d *Distribution) Count(score int) int {
	if score < d.Min || score > d.Max {
		return 0
	}
	return d.Counts[score-d.Min]
}

// ScoreDistribution builds a histogram of rounded scores in [lo, hi] for g.
// Scores outside the range are clamped to the nearest bucket.
func ScoreDistribution(ds *contracts.Dataset, g contracts.Group, lo, hi int) (*Distribution, error) {
	if hi < lo {
		return nil, fmt.Errorf("invalid score range [%d, %d]", lo, hi)
	}

	dist := &Distribution{Group: g, Min: lo, Max: hi, Counts: make([]int, hi-lo+1)}
	var scores []float64

	for i := 0; i < ds.Len(); i++ {
		r := ds.Record(i)
		if !g.Matches(r) {
			continue
		}
		scores = append(scores, r.Score)

		bucket := int(math.Round(r.Score))
		if bucket < lo {
			bucket = lo
		}
		if bucket > hi {
			bucket = hi
		}
		dist.Counts[bucket-lo]++
	}

	if len(scores) == 0 {
		return nil, &contracts.EmptyGroupError{Group: g}
	}

	median, err := stats.Median(scores)
	if err != nil {
		return nil, fmt.Errorf("median score for %s: %w", g, err)
	}
	dist.Median = median

	stdDev, err := stats.StandardDeviation(scores)
	if err != nil {
		return nil, fmt.Errorf("score std dev for %s: %w", g, err)
	}
	dist.StdDev = stdDev

	return dist, nil
}

// =============================================================================
// Internal
// =============================================================================

func requireField(ds *contracts.Dataset, f Field) error {
	switch f {
	case FieldScore, FieldGroundTruth:
		return nil
	case FieldPredicted:
		return ds.RequireOutcome(contracts.OutcomePredicted)
	default:
		return &contracts.MissingFieldError{Field: string(f), Index: -1}
	}
}

func fieldValue(r contracts.Record, f Field) float64 {
	switch f {
	case FieldScore:
		return r.Score
	case FieldGroundTruth:
		return boolToFloat(r.GroundTruth)
	case FieldPredicted:
		return boolToFloat(r.Predicted)
	}
	return 0
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
