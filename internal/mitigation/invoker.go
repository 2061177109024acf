package mitigation

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/wonny/fairaudit/internal/contracts"
	"github.com/wonny/fairaudit/internal/fairness"
)

// Result is the before/after comparison of a mitigation run.
type Result struct {
	Before      *fairness.Summary  `json:"before"`
	After       *fairness.Summary  `json:"after"`
	Weights     *CellWeights       `json:"weights,omitempty"` // set when the reweigher exposes them
	Improved    bool               `json:"improved"`          // |DI_after-1| < |DI_before-1|
	Transformed *contracts.Dataset `json:"-"`
}

// SPDChange returns After.SPD - Before.SPD.
func (r *Result) SPDChange() float64 {
	return r.After.StatisticalParityDifference - r.Before.StatisticalParityDifference
}

// DIChange returns After.DI - Before.DI.
func (r *Result) DIChange() float64 {
	return r.After.DisparateImpact - r.Before.DisparateImpact
}

// Invoker runs a Reweigher and re-evaluates the fairness metrics.
// ⭐ 재가중 알고리즘 자체는 Reweigher 구현체 책임, Invoker는 비교만 담당
type Invoker struct {
	reweigher Reweigher
	engine    *fairness.Engine
	log       zerolog.Logger
}

// NewInvoker creates an invoker.
func NewInvoker(reweigher Reweigher, engine *fairness.Engine, log zerolog.Logger) *Invoker {
	return &Invoker{
		reweigher: reweigher,
		engine:    engine,
		log:       log.With().Str("component", "mitigation.invoker").Logger(),
	}
}

// Mitigate summarizes the original dataset, reweighs it on the engine's
// outcome, and summarizes the transformed dataset. The input is not modified.
func (iv *Invoker) Mitigate(ds *contracts.Dataset, pair contracts.GroupPair) (*Result, error) {
	before, err := iv.engine.Summarize(ds, pair)
	if err != nil {
		return nil, fmt.Errorf("metrics before mitigation: %w", err)
	}

	result := &Result{Before: before}

	result.Transformed, result.Weights, err = iv.reweigh(ds, pair)
	if err != nil {
		return nil, err
	}

	if result.Transformed.Len() != ds.Len() {
		return nil, fmt.Errorf("reweigher changed record count: %d -> %d", ds.Len(), result.Transformed.Len())
	}

	after, err := iv.engine.Summarize(result.Transformed, pair)
	if err != nil {
		return nil, fmt.Errorf("metrics after mitigation: %w", err)
	}
	result.After = after
	result.Improved = after.DistanceFromParity() < before.DistanceFromParity()

	iv.log.Info().
		Str("privileged", pair.Privileged.String()).
		Str("unprivileged", pair.Unprivileged.String()).
		Float64("di_before", before.DisparateImpact).
		Float64("di_after", after.DisparateImpact).
		Float64("spd_before", before.StatisticalParityDifference).
		Float64("spd_after", after.StatisticalParityDifference).
		Bool("improved", result.Improved).
		Msg("mitigation completed")

	return result, nil
}

// reweigh runs the reweigher, keeping the cell weights when it exposes them.
func (iv *Invoker) reweigh(ds *contracts.Dataset, pair contracts.GroupPair) (*contracts.Dataset, *CellWeights, error) {
	outcome := iv.engine.Outcome()

	cw, ok := iv.reweigher.(CellWeigher)
	if !ok {
		out, err := iv.reweigher.Reweigh(ds, pair, outcome)
		if err != nil {
			return nil, nil, fmt.Errorf("reweigh: %w", err)
		}
		return out, nil, nil
	}

	weights, err := cw.Fit(ds, pair, outcome)
	if err != nil {
		return nil, nil, fmt.Errorf("fit cell weights: %w", err)
	}
	out, err := cw.Transform(ds, pair, outcome, weights)
	if err != nil {
		return nil, nil, fmt.Errorf("apply cell weights: %w", err)
	}
	return out, weights, nil
}
