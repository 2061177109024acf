package auditconfig

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fairaudit/internal/contracts"
)

func TestLoad(t *testing.T) {
	path := "../../config/audit/compas_race.yaml"

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("config file not found")
	}

	cfg, yamlData, err := Load(path)
	require.NoError(t, err)
	assert.NotEmpty(t, yamlData)

	assert.Equal(t, "compas_race", cfg.Meta.AuditID)
	assert.Equal(t, []string{"race", "sex", "age_cat"}, cfg.Dataset.Columns.Protected)
	assert.Equal(t, "African-American", cfg.Groups.Unprivileged.Value)
	assert.Len(t, cfg.Groups.All(), 3)
	assert.Equal(t, 5.0, cfg.Prediction.EffectiveThreshold())
	assert.Equal(t, contracts.OutcomePredicted, cfg.Metrics.Outcome)

	hash, err := Hash(cfg)
	require.NoError(t, err)
	assert.Len(t, hash, 64)

	// 동일 설정 → 동일 해시
	hash2, _ := Hash(cfg)
	assert.Equal(t, hash, hash2)
}

func TestParse_OverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
meta:
  audit_id: compas_sex
groups:
  privileged: {attribute: sex, value: Female}
  unprivileged: {attribute: sex, value: Male}
prediction:
  threshold: 7
  score_min: 1
  score_max: 10
metrics:
  outcome: ground_truth
  favorable_label: false
  disparate_impact_threshold: 0.8
`))
	require.NoError(t, err)

	assert.Equal(t, "compas_sex", cfg.Meta.AuditID)
	assert.Equal(t, "sex", cfg.Groups.Pair().Privileged.Attribute)
	assert.Equal(t, 7.0, cfg.Prediction.EffectiveThreshold())
	assert.Equal(t, contracts.OutcomeGroundTruth, cfg.Metrics.Outcome)
	assert.False(t, cfg.Metrics.FavorableLabel)

	// untouched sections keep defaults
	assert.Equal(t, SourceCSV, cfg.Dataset.Source)
	assert.True(t, cfg.Mitigation.Enabled)
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte("meta:\n  audit_idd: typo\n"))
	assert.Error(t, err)
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))
	assert.Equal(t, 5.0, cfg.Prediction.EffectiveThreshold())
	assert.Empty(t, Warn(cfg))
}

func TestValidate(t *testing.T) {
	nan := math.NaN()

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"audit id", func(c *Config) { c.Meta.AuditID = "" }, "meta.audit_id"},
		{"source", func(c *Config) { c.Dataset.Source = "parquet" }, "dataset.source"},
		{"csv path", func(c *Config) { c.Dataset.Path = "" }, "dataset.path"},
		{"postgres table", func(c *Config) { c.Dataset.Source = SourcePostgres }, "dataset.table"},
		{"columns", func(c *Config) { c.Dataset.Columns.Score = "" }, "dataset.columns"},
		{"same groups", func(c *Config) { c.Groups.Unprivileged = c.Groups.Privileged }, "groups"},
		{"unprotected attribute", func(c *Config) {
			c.Groups.Additional = []contracts.Group{{Attribute: "zip", Value: "33101"}}
		}, "groups[2].attribute"},
		{"score range", func(c *Config) { c.Prediction.ScoreMax = 1 }, "prediction"},
		{"threshold nan", func(c *Config) { c.Prediction.Threshold = &nan }, "prediction.threshold"},
		{"outcome", func(c *Config) { c.Metrics.Outcome = "label" }, "metrics.outcome"},
		{"di threshold", func(c *Config) { c.Metrics.DisparateImpactThreshold = 1.2 }, "metrics.disparate_impact_threshold"},
		{"method", func(c *Config) { c.Mitigation.Method = "adversarial" }, "mitigation.method"},
		{"output dir", func(c *Config) { c.Report.OutputDir = "" }, "report.output_dir"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			var ve ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestValidate_MitigationDisabledIgnoresMethod(t *testing.T) {
	cfg := Default()
	cfg.Mitigation.Enabled = false
	cfg.Mitigation.Method = ""
	assert.NoError(t, Validate(cfg))
}

func TestWarn(t *testing.T) {
	cfg := Default()
	th := 11.0
	cfg.Prediction.Threshold = &th
	cfg.Metrics.Outcome = contracts.OutcomeGroundTruth
	cfg.Dataset.ProPublicaFilter = false

	var codes []string
	for _, w := range Warn(cfg) {
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []string{"THRESHOLD_OUT_OF_RANGE", "MITIGATION_ON_LABELS", "UNFILTERED_COMPAS"}, codes)
}

func TestHash_ChangesWithPolicy(t *testing.T) {
	a := Default()
	b := Default()
	b.Groups.Privileged.Value = "Asian"

	ha, err := Hash(a)
	require.NoError(t, err)
	hb, err := Hash(b)
	require.NoError(t, err)
	assert.NotEqual(t, ha, hb)
}

func TestLoad_Missing(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
