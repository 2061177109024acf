package auditconfig

import (
	"fmt"
	"math"

	"github.com/wonny/fairaudit/internal/contracts"
)

// ValidationError 검증 실패 (감사 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.AuditID == "" {
		return ValidationError{"meta.audit_id", "required"}
	}

	// === Dataset ===
	switch cfg.Dataset.Source {
	case SourceCSV:
		if cfg.Dataset.Path == "" {
			return ValidationError{"dataset.path", "required for csv source"}
		}
	case SourcePostgres:
		if cfg.Dataset.Table == "" {
			return ValidationError{"dataset.table", "required for postgres source"}
		}
	default:
		return ValidationError{"dataset.source", fmt.Sprintf("must be %q or %q", SourceCSV, SourcePostgres)}
	}
	if err := cfg.Dataset.Columns.Validate(); err != nil {
		return ValidationError{"dataset.columns", err.Error()}
	}

	// === Groups ===
	if err := cfg.Groups.Pair().Validate(); err != nil {
		return ValidationError{"groups", err.Error()}
	}
	for i, g := range cfg.Groups.All() {
		if !protected(cfg, g.Attribute) {
			return ValidationError{
				fmt.Sprintf("groups[%d].attribute", i),
				fmt.Sprintf("%q is not listed in dataset.columns.protected", g.Attribute),
			}
		}
	}

	// === Prediction ===
	if cfg.Prediction.ScoreMin >= cfg.Prediction.ScoreMax {
		return ValidationError{"prediction", "score_min must be < score_max"}
	}
	if th := cfg.Prediction.Threshold; th != nil && (math.IsNaN(*th) || math.IsInf(*th, 0)) {
		return ValidationError{"prediction.threshold", "must be finite"}
	}

	// === Metrics ===
	if !cfg.Metrics.Outcome.Valid() {
		return ValidationError{"metrics.outcome", fmt.Sprintf("must be %q or %q",
			contracts.OutcomePredicted, contracts.OutcomeGroundTruth)}
	}
	if di := cfg.Metrics.DisparateImpactThreshold; di <= 0 || di > 1 {
		return ValidationError{"metrics.disparate_impact_threshold", "must be in (0, 1]"}
	}

	// === Mitigation ===
	if cfg.Mitigation.Enabled && cfg.Mitigation.Method != "reweighing" {
		return ValidationError{"mitigation.method", "only \"reweighing\" is supported"}
	}

	// === Report ===
	if cfg.Report.OutputDir == "" {
		return ValidationError{"report.output_dir", "required"}
	}

	return nil
}

// Warn reports settings that are legal but likely unintended.
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	th := cfg.Prediction.EffectiveThreshold()
	if th <= float64(cfg.Prediction.ScoreMin) || th > float64(cfg.Prediction.ScoreMax) {
		warnings = append(warnings, Warning{
			Code:    "THRESHOLD_OUT_OF_RANGE",
			Message: fmt.Sprintf("threshold %.2f predicts every record the same way for scores in [%d, %d]", th, cfg.Prediction.ScoreMin, cfg.Prediction.ScoreMax),
		})
	}

	if cfg.Metrics.Outcome == contracts.OutcomeGroundTruth && cfg.Mitigation.Enabled {
		warnings = append(warnings, Warning{
			Code:    "MITIGATION_ON_LABELS",
			Message: "reweighing on ground truth only changes base rates; the classifier is not retrained",
		})
	}

	if !cfg.Dataset.ProPublicaFilter && cfg.Dataset.Columns.Score == "decile_score" {
		warnings = append(warnings, Warning{
			Code:    "UNFILTERED_COMPAS",
			Message: "propublica_filter is off; results will not match published COMPAS figures",
		})
	}

	return warnings
}

func protected(cfg *Config, attribute string) bool {
	for _, p := range cfg.Dataset.Columns.Protected {
		if p == attribute {
			return true
		}
	}
	return false
}
