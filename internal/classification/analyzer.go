package classification

import (
	"fmt"
	"math"

	"github.com/wonny/fairaudit/internal/contracts"
)

// ConfusionMatrix holds unweighted counts for a binary decision against the
// ground truth.
type ConfusionMatrix struct {
	TP int `json:"tp"`
	FP int `json:"fp"`
	TN int `json:"tn"`
	FN int `json:"fn"`
}

// Total returns TP+FP+TN+FN.
func (m ConfusionMatrix) Total() int { return m.TP + m.FP + m.TN + m.FN }

// Add tallies one decision.
func (m *ConfusionMatrix) Add(predicted, actual bool) {
	switch {
	case predicted && actual:
		m.TP++
	case predicted && !actual:
		m.FP++
	case !predicted && !actual:
		m.TN++
	default:
		m.FN++
	}
}

// GroupMetrics is the error-rate breakdown for one protected group.
type GroupMetrics struct {
	Group     contracts.Group `json:"group"`
	Threshold float64         `json:"threshold"`
	Total     int             `json:"total"`
	ConfusionMatrix

	FalsePositiveRate float64 `json:"false_positive_rate"` // FP / (FP+TN), 비재범자 중 고위험 판정
	FalseNegativeRate float64 `json:"false_negative_rate"` // FN / (FN+TP), 재범자 중 저위험 판정
	Precision         float64 `json:"precision"`           // TP / (TP+FP)
	Recall            float64 `json:"recall"`              // TP / (TP+FN)
	Accuracy          float64 `json:"accuracy"`            // (TP+TN) / total
}

// SafeRatio returns num/den, and 0 when den is 0.
//
// Zero-denominator policy: a rate over an empty population (e.g. FPR for a
// group with no ground-truth negatives) is reported as 0. This is a defined
// convention of the analyzer, not NaN coercion; callers can detect the case
// from the confusion-matrix counts.
func SafeRatio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// NewGroupMetrics derives the rates from a confusion matrix.
func NewGroupMetrics(g contracts.Group, threshold float64, m ConfusionMatrix) GroupMetrics {
	return GroupMetrics{
		Group:             g,
		Threshold:         threshold,
		Total:             m.Total(),
		ConfusionMatrix:   m,
		FalsePositiveRate: SafeRatio(m.FP, m.FP+m.TN),
		FalseNegativeRate: SafeRatio(m.FN, m.FN+m.TP),
		Precision:         SafeRatio(m.TP, m.TP+m.FP),
		Recall:            SafeRatio(m.TP, m.TP+m.FN),
		Accuracy:          SafeRatio(m.TP+m.TN, m.Total()),
	}
}

// =============================================================================
// Analyzer
// =============================================================================

// Analyzer computes per-group confusion-matrix rates at a decision threshold.
// The threshold is always supplied by the caller.
type Analyzer struct {
	Threshold float64
}

// NewAnalyzer creates an analyzer with the given threshold.
func NewAnalyzer(threshold float64) *Analyzer {
	return &Analyzer{Threshold: threshold}
}

// MidpointThreshold returns the default cutoff for an integer ordinal score
// range [lo, hi]: floor((lo+hi)/2). For COMPAS deciles 1-10 this is 5, so
// medium and high risk (5-10) count as predicted high risk.
func MidpointThreshold(lo, hi int) float64 {
	return math.Floor(float64(lo+hi) / 2)
}

// Analyze thresholds the score (score >= Threshold is predicted positive) and
// returns metrics for each group, in the order given.
func (a *Analyzer) Analyze(ds *contracts.Dataset, groups ...contracts.Group) ([]GroupMetrics, error) {
	if len(groups) == 0 {
		return nil, fmt.Errorf("at least one group is required")
	}

	predicted := ds.WithPredictions(a.Threshold)

	results := make([]GroupMetrics, 0, len(groups))
	for _, g := range groups {
		var m ConfusionMatrix
		for i := 0; i < predicted.Len(); i++ {
			r := predicted.Record(i)
			if g.Matches(r) {
				m.Add(r.Predicted, r.GroundTruth)
			}
		}
		if m.Total() == 0 {
			return nil, &contracts.EmptyGroupError{Group: g}
		}
		results = append(results, NewGroupMetrics(g, a.Threshold, m))
	}
	return results, nil
}

// AnalyzePair analyzes the privileged and unprivileged groups and compares them.
func (a *Analyzer) AnalyzePair(ds *contracts.Dataset, pair contracts.GroupPair) (*PairResult, error) {
	metrics, err := a.Analyze(ds, pair.Privileged, pair.Unprivileged)
	if err != nil {
		return nil, err
	}
	return &PairResult{
		Privileged:   metrics[0],
		Unprivileged: metrics[1],
		Disparity:    Compare(metrics[0], metrics[1]),
	}, nil
}

// PairResult bundles both groups and their disparity.
type PairResult struct {
	Privileged   GroupMetrics `json:"privileged"`
	Unprivileged GroupMetrics `json:"unprivileged"`
	Disparity    Disparity    `json:"disparity"`
}

// Groups returns privileged then unprivileged metrics.
func (p *PairResult) Groups() []GroupMetrics {
	return []GroupMetrics{p.Privileged, p.Unprivileged}
}

// Disparity holds between-group error-rate differences (unprivileged minus
// privileged).
type Disparity struct {
	FalsePositiveRateDifference float64 `json:"fpr_difference"`
	FalseNegativeRateDifference float64 `json:"fnr_difference"`
	EqualOpportunityDifference  float64 `json:"equal_opportunity_difference"` // TPR difference
	AverageOddsDifference       float64 `json:"average_odds_difference"`      // mean of FPR and TPR differences
	FalsePositiveRateRatio      float64 `json:"fpr_ratio"`                    // 0 when privileged FPR is 0
}

// Compare computes the disparity between two groups.
func Compare(privileged, unprivileged GroupMetrics) Disparity {
	fprDiff := unprivileged.FalsePositiveRate - privileged.FalsePositiveRate
	tprDiff := unprivileged.Recall - privileged.Recall

	var fprRatio float64
	if privileged.FalsePositiveRate > 0 {
		fprRatio = unprivileged.FalsePositiveRate / privileged.FalsePositiveRate
	}

	return Disparity{
		FalsePositiveRateDifference: fprDiff,
		FalseNegativeRateDifference: unprivileged.FalseNegativeRate - privileged.FalseNegativeRate,
		EqualOpportunityDifference:  tprDiff,
		AverageOddsDifference:       (fprDiff + tprDiff) / 2,
		FalsePositiveRateRatio:      fprRatio,
	}
}
