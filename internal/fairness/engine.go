package fairness

import (
	"fmt"

	"github.com/wonny/fairaudit/internal/contracts"
)

// DisparateImpactThreshold is the four-fifths rule: DI below 0.8 is
// considered significant adverse impact.
const DisparateImpactThreshold = 0.8

// =============================================================================
// Calculator Interface
// =============================================================================

// Calculator computes group-fairness metrics over a privileged/unprivileged
// pair. Engine is the built-in implementation; a library-backed one can be
// substituted.
type Calculator interface {
	StatisticalParityDifference(ds *contracts.Dataset, privileged, unprivileged contracts.Group) (float64, error)
	DisparateImpact(ds *contracts.Dataset, privileged, unprivileged contracts.Group) (float64, error)
	Summarize(ds *contracts.Dataset, pair contracts.GroupPair) (*Summary, error)
}

// =============================================================================
// Engine - 순수 계산기
// =============================================================================

// Engine computes weighted group-conditioned rates.
// ⭐ SSOT: 어떤 라벨(predicted / ground truth)을 쓰는지는 Engine 생성 시 명시
type Engine struct {
	outcome   contracts.Outcome
	favorable bool
}

// NewEngine creates an engine reading the given outcome, with true as the
// favorable (positive) label.
func NewEngine(outcome contracts.Outcome) *Engine {
	return &Engine{outcome: outcome, favorable: true}
}

// WithFavorable returns a copy of the engine that counts label == favorable
// as the positive outcome.
func (e *Engine) WithFavorable(favorable bool) *Engine {
	return &Engine{outcome: e.outcome, favorable: favorable}
}

// Outcome returns the label the engine consumes.
func (e *Engine) Outcome() contracts.Outcome { return e.outcome }

// Favorable returns the label value counted as positive.
func (e *Engine) Favorable() bool { return e.favorable }

// PositiveRate returns the weighted fraction of records in g whose selected
// outcome equals the favorable label.
func (e *Engine) PositiveRate(ds *contracts.Dataset, g contracts.Group) (float64, error) {
	if err := ds.RequireOutcome(e.outcome); err != nil {
		return 0, err
	}
	return groupRate(ds, g, e.outcome, e.favorable)
}

// BaseRate returns the weighted fraction of records in g whose ground-truth
// outcome equals the favorable label. Predictions are never consulted.
func (e *Engine) BaseRate(ds *contracts.Dataset, g contracts.Group) (float64, error) {
	return groupRate(ds, g, contracts.OutcomeGroundTruth, e.favorable)
}

// StatisticalParityDifference returns rate(unprivileged) - rate(privileged).
// 0 = parity, negative = the unprivileged group receives the positive
// outcome less often.
func (e *Engine) StatisticalParityDifference(ds *contracts.Dataset, privileged, unprivileged contracts.Group) (float64, error) {
	priv, unpriv, err := e.pairRates(ds, privileged, unprivileged)
	if err != nil {
		return 0, err
	}
	return unpriv - priv, nil
}

// DisparateImpact returns rate(unprivileged) / rate(privileged). It fails
// with DivisionUndefinedError when the privileged rate is exactly zero.
func (e *Engine) DisparateImpact(ds *contracts.Dataset, privileged, unprivileged contracts.Group) (float64, error) {
	priv, unpriv, err := e.pairRates(ds, privileged, unprivileged)
	if err != nil {
		return 0, err
	}
	return ratio(unpriv, priv, privileged)
}

// BaseRateDifference returns baseRate(unprivileged) - baseRate(privileged).
func (e *Engine) BaseRateDifference(ds *contracts.Dataset, privileged, unprivileged contracts.Group) (float64, error) {
	priv, err := e.BaseRate(ds, privileged)
	if err != nil {
		return 0, err
	}
	unpriv, err := e.BaseRate(ds, unprivileged)
	if err != nil {
		return 0, err
	}
	return unpriv - priv, nil
}

// Summarize computes the full metric set for a pair. Either every metric is
// defined or the first violated precondition is returned.
func (e *Engine) Summarize(ds *contracts.Dataset, pair contracts.GroupPair) (*Summary, error) {
	if err := pair.Validate(); err != nil {
		return nil, err
	}
	for _, attr := range pairAttributes(pair) {
		if err := ds.RequireAttribute(attr); err != nil {
			return nil, err
		}
	}

	privRate, unprivRate, err := e.pairRates(ds, pair.Privileged, pair.Unprivileged)
	if err != nil {
		return nil, err
	}

	di, err := ratio(unprivRate, privRate, pair.Privileged)
	if err != nil {
		return nil, err
	}

	privBase, err := e.BaseRate(ds, pair.Privileged)
	if err != nil {
		return nil, err
	}
	unprivBase, err := e.BaseRate(ds, pair.Unprivileged)
	if err != nil {
		return nil, err
	}

	return &Summary{
		Pair:                        pair,
		Outcome:                     e.outcome,
		Favorable:                   e.favorable,
		Weighted:                    ds.IsWeighted(),
		PrivilegedCount:             ds.Count(pair.Privileged),
		UnprivilegedCount:           ds.Count(pair.Unprivileged),
		PrivilegedRate:              privRate,
		UnprivilegedRate:            unprivRate,
		StatisticalParityDifference: unprivRate - privRate,
		DisparateImpact:             di,
		PrivilegedBaseRate:          privBase,
		UnprivilegedBaseRate:        unprivBase,
		BaseRateDifference:          unprivBase - privBase,
	}, nil
}

// IsSignificantBias reports whether disparateImpact falls below threshold.
// A non-positive threshold means the four-fifths rule.
func IsSignificantBias(disparateImpact, threshold float64) bool {
	if threshold <= 0 {
		threshold = DisparateImpactThreshold
	}
	return disparateImpact < threshold
}

// =============================================================================
// Internal
// =============================================================================

func pairAttributes(pair contracts.GroupPair) []string {
	if pair.Privileged.Attribute == pair.Unprivileged.Attribute {
		return []string{pair.Privileged.Attribute}
	}
	return []string{pair.Privileged.Attribute, pair.Unprivileged.Attribute}
}

func (e *Engine) pairRates(ds *contracts.Dataset, privileged, unprivileged contracts.Group) (float64, float64, error) {
	priv, err := e.PositiveRate(ds, privileged)
	if err != nil {
		return 0, 0, fmt.Errorf("privileged rate: %w", err)
	}
	unpriv, err := e.PositiveRate(ds, unprivileged)
	if err != nil {
		return 0, 0, fmt.Errorf("unprivileged rate: %w", err)
	}
	return priv, unpriv, nil
}

func groupRate(ds *contracts.Dataset, g contracts.Group, outcome contracts.Outcome, favorable bool) (float64, error) {
	var count int
	var total, positive float64

	for i := 0; i < ds.Len(); i++ {
		r := ds.Record(i)
		if !g.Matches(r) {
			continue
		}
		count++
		w := ds.Weight(i)
		total += w
		if r.Label(outcome) == favorable {
			positive += w
		}
	}

	if count == 0 {
		return 0, &contracts.EmptyGroupError{Group: g}
	}
	if total == 0 {
		return 0, &contracts.DivisionUndefinedError{
			Metric: "positive_rate",
			Reason: fmt.Sprintf("group %s has zero total instance weight", g),
		}
	}
	return positive / total, nil
}

func ratio(unpriv, priv float64, privileged contracts.Group) (float64, error) {
	if priv == 0 {
		return 0, &contracts.DivisionUndefinedError{
			Metric: "disparate_impact",
			Reason: fmt.Sprintf("privileged group %s has a positive rate of zero", privileged),
		}
	}
	return unpriv / priv, nil
}
