package contracts

import (
	"fmt"
	"math"
)

// Outcome selects which binary label a metric consumes.
// ⭐ SSOT: predicted vs ground truth는 항상 명시적으로 전달 (컬럼명 추론 금지)
type Outcome string

const (
	// OutcomePredicted is the score-derived decision (score >= threshold).
	OutcomePredicted Outcome = "predicted"
	// OutcomeGroundTruth is the observed outcome (recidivated within the follow-up window).
	OutcomeGroundTruth Outcome = "ground_truth"
)

// Valid reports whether o is a known outcome selector.
func (o Outcome) Valid() bool {
	return o == OutcomePredicted || o == OutcomeGroundTruth
}

// Record is one individual in the audited population.
type Record struct {
	ID          string            `json:"id"`
	Attributes  map[string]string `json:"attributes"`   // protected attributes (race, sex, ...)
	Score       float64           `json:"score"`        // risk score (decile 1-10 for COMPAS)
	Predicted   bool              `json:"predicted"`    // valid only when Dataset.HasPredictions()
	GroundTruth bool              `json:"ground_truth"` // two_year_recid == 1
}

// Attribute returns the value of a protected attribute.
func (r Record) Attribute(name string) (string, bool) {
	v, ok := r.Attributes[name]
	return v, ok
}

// Label returns the binary label selected by o.
func (r Record) Label(o Outcome) bool {
	if o == OutcomePredicted {
		return r.Predicted
	}
	return r.GroundTruth
}

// Dataset is an immutable, ordered collection of records with per-record
// instance weights. Every transform returns a new Dataset.
type Dataset struct {
	name        string
	records     []Record
	weights     []float64 // nil = uniform weight 1.0
	predictions bool
	threshold   float64
}

// NewDataset creates a dataset from records. The slice is copied.
func NewDataset(name string, records []Record) *Dataset {
	cp := make([]Record, len(records))
	copy(cp, records)
	return &Dataset{name: name, records: cp}
}

// Name returns the dataset name (source path, table, ...).
func (d *Dataset) Name() string { return d.name }

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.records) }

// Record returns the i-th record.
func (d *Dataset) Record(i int) Record { return d.records[i] }

// Records returns a copy of all records.
func (d *Dataset) Records() []Record {
	cp := make([]Record, len(d.records))
	copy(cp, d.records)
	return cp
}

// Weight returns the instance weight of the i-th record.
func (d *Dataset) Weight(i int) float64 {
	if d.weights == nil {
		return 1.0
	}
	return d.weights[i]
}

// Weights returns a copy of the instance weights.
func (d *Dataset) Weights() []float64 {
	w := make([]float64, len(d.records))
	for i := range w {
		w[i] = d.Weight(i)
	}
	return w
}

// IsWeighted reports whether instance weights were set explicitly.
func (d *Dataset) IsWeighted() bool { return d.weights != nil }

// HasPredictions reports whether Record.Predicted has been populated.
func (d *Dataset) HasPredictions() bool { return d.predictions }

// Threshold returns the cutoff used by WithPredictions.
func (d *Dataset) Threshold() float64 { return d.threshold }

// WithPredictions returns a new dataset where Predicted = Score >= threshold.
func (d *Dataset) WithPredictions(threshold float64) *Dataset {
	out := d.clone()
	for i := range out.records {
		out.records[i].Predicted = out.records[i].Score >= threshold
	}
	out.predictions = true
	out.threshold = threshold
	return out
}

// WithWeights returns a new dataset with the same records and the given
// instance weights. Weights must be finite and non-negative.
func (d *Dataset) WithWeights(weights []float64) (*Dataset, error) {
	if len(weights) != len(d.records) {
		return nil, fmt.Errorf("weights length %d does not match dataset length %d", len(weights), len(d.records))
	}
	for i, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("invalid weight %v at index %d", w, i)
		}
	}

	out := d.clone()
	out.weights = make([]float64, len(weights))
	copy(out.weights, weights)
	return out, nil
}

// Filter returns a new dataset with the records for which keep returns true.
// Weights and prediction state are carried over.
func (d *Dataset) Filter(keep func(Record) bool) *Dataset {
	out := &Dataset{
		name:        d.name,
		predictions: d.predictions,
		threshold:   d.threshold,
	}
	for i, r := range d.records {
		if !keep(r) {
			continue
		}
		out.records = append(out.records, r)
		if d.weights != nil {
			out.weights = append(out.weights, d.weights[i])
		}
	}
	return out
}

// Subset returns the records belonging to g.
func (d *Dataset) Subset(g Group) *Dataset {
	return d.Filter(g.Matches)
}

// Count returns the number of records in g.
func (d *Dataset) Count(g Group) int {
	n := 0
	for _, r := range d.records {
		if g.Matches(r) {
			n++
		}
	}
	return n
}

// RequireAttribute fails with MissingFieldError if any record lacks the
// protected attribute.
func (d *Dataset) RequireAttribute(name string) error {
	for i, r := range d.records {
		if _, ok := r.Attributes[name]; !ok {
			return &MissingFieldError{Field: name, Index: i}
		}
	}
	return nil
}

// RequireOutcome fails with MissingFieldError when o cannot be read from
// this dataset (predictions not populated).
func (d *Dataset) RequireOutcome(o Outcome) error {
	switch o {
	case OutcomeGroundTruth:
		return nil
	case OutcomePredicted:
		if !d.predictions {
			return &MissingFieldError{Field: string(OutcomePredicted), Index: -1}
		}
		return nil
	default:
		return fmt.Errorf("unknown outcome %q", o)
	}
}

// AttributeValues returns the distinct values of a protected attribute in
// first-seen order.
func (d *Dataset) AttributeValues(name string) []string {
	seen := make(map[string]bool)
	var values []string
	for _, r := range d.records {
		v, ok := r.Attributes[name]
		if !ok || seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	return values
}

func (d *Dataset) clone() *Dataset {
	out := &Dataset{
		name:        d.name,
		records:     make([]Record, len(d.records)),
		predictions: d.predictions,
		threshold:   d.threshold,
	}
	copy(out.records, d.records)
	if d.weights != nil {
		out.weights = make([]float64, len(d.weights))
		copy(out.weights, d.weights)
	}
	return out
}
