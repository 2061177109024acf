package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wonny/fairaudit/internal/auditconfig"
	"github.com/wonny/fairaudit/internal/classification"
	"github.com/wonny/fairaudit/internal/contracts"
	"github.com/wonny/fairaudit/internal/describe"
	"github.com/wonny/fairaudit/internal/fairness"
	"github.com/wonny/fairaudit/internal/mitigation"
)

// =============================================================================
// Auditor - A0~A5 오케스트레이터
// =============================================================================

// Auditor runs the audit pipeline for one policy.
// ⭐ SSOT: 단계 순서와 단계별 로깅은 여기서만
type Auditor struct {
	loader   contracts.DatasetLoader
	policy   *auditconfig.Config
	engine   *fairness.Engine
	analyzer *classification.Analyzer
	invoker  *mitigation.Invoker
	log      zerolog.Logger
}

// NewAuditor wires the engine, analyzer and reweighing invoker from the policy.
func NewAuditor(loader contracts.DatasetLoader, policy *auditconfig.Config, log zerolog.Logger) *Auditor {
	engine := fairness.NewEngine(policy.Metrics.Outcome).WithFavorable(policy.Metrics.FavorableLabel)
	return &Auditor{
		loader:   loader,
		policy:   policy,
		engine:   engine,
		analyzer: classification.NewAnalyzer(policy.Prediction.EffectiveThreshold()),
		invoker:  mitigation.NewInvoker(mitigation.NewReweighing(), engine, log),
		log:      log.With().Str("component", "audit.auditor").Logger(),
	}
}

// Policy returns the policy the auditor was built from.
func (a *Auditor) Policy() *auditconfig.Config { return a.policy }

// =============================================================================
// Stages
// =============================================================================

// Load reads the dataset and thresholds the score into predictions.
func (a *Auditor) Load(ctx context.Context) (*contracts.Dataset, error) {
	ds, err := a.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	return ds.WithPredictions(a.analyzer.Threshold), nil
}

// Describe aggregates the dataset by the pair's attribute and builds score
// histograms for every configured group.
func (a *Auditor) Describe(ds *contracts.Dataset) (*describe.Summary, []*describe.Distribution, error) {
	fields := append([]describe.Field{}, describe.DefaultFields...)
	if ds.HasPredictions() {
		fields = append(fields, describe.FieldPredicted)
	}

	summary, err := describe.Aggregate(ds, a.policy.Groups.Privileged.Attribute, fields, nil)
	if err != nil {
		return nil, nil, err
	}

	groups := a.policy.Groups.All()
	dists := make([]*describe.Distribution, 0, len(groups))
	for _, g := range groups {
		d, err := describe.ScoreDistribution(ds, g, a.policy.Prediction.ScoreMin, a.policy.Prediction.ScoreMax)
		if err != nil {
			return nil, nil, err
		}
		dists = append(dists, d)
	}
	return summary, dists, nil
}

// Fairness computes the pair summary on the configured outcome.
func (a *Auditor) Fairness(ds *contracts.Dataset) (*fairness.Summary, error) {
	return a.engine.Summarize(ds, a.policy.Groups.Pair())
}

// ErrorRates analyzes every configured group; the disparity compares the pair.
func (a *Auditor) ErrorRates(ds *contracts.Dataset) ([]classification.GroupMetrics, *classification.Disparity, error) {
	metrics, err := a.analyzer.Analyze(ds, a.policy.Groups.All()...)
	if err != nil {
		return nil, nil, err
	}
	// All()은 항상 privileged, unprivileged 순서로 시작
	d := classification.Compare(metrics[0], metrics[1])
	return metrics, &d, nil
}

// Mitigate reweighs the dataset and compares fairness before and after.
func (a *Auditor) Mitigate(ds *contracts.Dataset) (*mitigation.Result, error) {
	return a.invoker.Mitigate(ds, a.policy.Groups.Pair())
}

// =============================================================================
// Run
// =============================================================================

// Run executes A0 through A5 and returns the report. The first failing stage
// aborts the run; no partial report is returned.
func (a *Auditor) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now(),
	}
	log := a.log.With().Str("run_id", report.RunID).Logger()

	var ds *contracts.Dataset

	steps := []struct {
		stage contracts.Stage
		run   func() (int, error)
	}{
		{contracts.StageLoad, func() (int, error) {
			var err error
			ds, err = a.Load(ctx)
			if err != nil {
				return 0, err
			}
			return ds.Len(), nil
		}},
		{contracts.StageDescribe, func() (int, error) {
			var err error
			report.Descriptive, report.Distributions, err = a.Describe(ds)
			return ds.Len(), err
		}},
		{contracts.StageFairness, func() (int, error) {
			var err error
			report.Fairness, err = a.Fairness(ds)
			if err != nil {
				return 0, err
			}
			return report.Fairness.PrivilegedCount + report.Fairness.UnprivilegedCount, nil
		}},
		{contracts.StageErrorRates, func() (int, error) {
			var err error
			report.ErrorRates, report.Disparity, err = a.ErrorRates(ds)
			total := 0
			for _, m := range report.ErrorRates {
				total += m.Total
			}
			return total, err
		}},
		{contracts.StageMitigation, func() (int, error) {
			if !a.policy.Mitigation.Enabled {
				log.Info().Msg("mitigation disabled by policy")
				return 0, nil
			}
			var err error
			report.Mitigation, err = a.Mitigate(ds)
			return ds.Len(), err
		}},
		{contracts.StageReport, func() (int, error) {
			return ds.Len(), a.fillMetadata(report, ds)
		}},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		records, err := step.run()
		result := contracts.StageResult{
			Stage:    step.stage,
			Success:  err == nil,
			Records:  records,
			Duration: time.Since(start).Milliseconds(),
		}
		if err != nil {
			result.Error = err.Error()
		}
		report.Stages = append(report.Stages, result)

		if err != nil {
			log.Error().Err(err).Str("stage", step.stage.String()).Msg("audit stage failed")
			return nil, fmt.Errorf("%s %s: %w", step.stage.ShortName(), step.stage.Description(), err)
		}

		log.Info().
			Str("stage", step.stage.String()).
			Int("records", records).
			Int64("duration_ms", result.Duration).
			Msg(step.stage.Description())
	}

	diThreshold := a.policy.Metrics.DisparateImpactThreshold
	if report.Fairness.SignificantBias(diThreshold) {
		log.Warn().
			Float64("disparate_impact", report.Fairness.DisparateImpact).
			Float64("threshold", diThreshold).
			Msg("disparate impact below threshold")
	}

	return report, nil
}

func (a *Auditor) fillMetadata(report *Report, ds *contracts.Dataset) error {
	hash, err := auditconfig.Hash(a.policy)
	if err != nil {
		return fmt.Errorf("hash policy: %w", err)
	}

	report.Dataset = DatasetInfo{
		Name:      ds.Name(),
		Records:   ds.Len(),
		Threshold: a.analyzer.Threshold,
		Outcome:   a.engine.Outcome(),
		Favorable: a.engine.Favorable(),
	}
	report.Metadata = ReportMetadata{
		PolicyID:                 a.policy.Meta.AuditID,
		PolicyHash:               hash,
		DisparateImpactThreshold: a.policy.Metrics.DisparateImpactThreshold,
	}
	for _, w := range auditconfig.Warn(a.policy) {
		report.Metadata.Warnings = append(report.Metadata.Warnings, fmt.Sprintf("[%s] %s", w.Code, w.Message))
	}
	return nil
}
