package auditconfig

import (
	"github.com/wonny/fairaudit/internal/classification"
	"github.com/wonny/fairaudit/internal/contracts"
	"github.com/wonny/fairaudit/internal/loader"
)

// Config는 공정성 감사 1회 실행의 전체 정책
type Config struct {
	Meta       Meta       `yaml:"meta" json:"meta"`
	Dataset    Dataset    `yaml:"dataset" json:"dataset"`
	Groups     Groups     `yaml:"groups" json:"groups"`
	Prediction Prediction `yaml:"prediction" json:"prediction"`
	Metrics    Metrics    `yaml:"metrics" json:"metrics"`
	Mitigation Mitigation `yaml:"mitigation" json:"mitigation"`
	Report     Report     `yaml:"report" json:"report"`
}

// Meta 메타 정보
type Meta struct {
	AuditID     string `yaml:"audit_id" json:"audit_id"`
	Version     string `yaml:"version" json:"version"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Source selects the dataset backend.
type Source string

const (
	SourceCSV      Source = "csv"
	SourcePostgres Source = "postgres"
)

// Dataset A0: 데이터 소스
type Dataset struct {
	Source           Source         `yaml:"source" json:"source"`
	Path             string         `yaml:"path,omitempty" json:"path,omitempty"`   // csv
	Table            string         `yaml:"table,omitempty" json:"table,omitempty"` // postgres
	ProPublicaFilter bool           `yaml:"propublica_filter" json:"propublica_filter"`
	Columns          loader.Columns `yaml:"columns" json:"columns"`
}

// Groups A2: 비교 대상 그룹
type Groups struct {
	Privileged   contracts.Group `yaml:"privileged" json:"privileged"`
	Unprivileged contracts.Group `yaml:"unprivileged" json:"unprivileged"`

	// Additional groups get error rates and score distributions but no pairwise metrics.
	Additional []contracts.Group `yaml:"additional,omitempty" json:"additional,omitempty"`
}

// Pair returns the privileged/unprivileged pair.
func (g Groups) Pair() contracts.GroupPair {
	return contracts.GroupPair{Privileged: g.Privileged, Unprivileged: g.Unprivileged}
}

// All returns the pair followed by the additional groups.
func (g Groups) All() []contracts.Group {
	return append([]contracts.Group{g.Privileged, g.Unprivileged}, g.Additional...)
}

// Prediction A3: 점수 → 예측 변환
type Prediction struct {
	Threshold *float64 `yaml:"threshold,omitempty" json:"threshold,omitempty"` // nil: midpoint of the score range
	ScoreMin  int      `yaml:"score_min" json:"score_min"`
	ScoreMax  int      `yaml:"score_max" json:"score_max"`
}

// EffectiveThreshold returns the configured threshold or the midpoint default.
func (p Prediction) EffectiveThreshold() float64 {
	if p.Threshold != nil {
		return *p.Threshold
	}
	return classification.MidpointThreshold(p.ScoreMin, p.ScoreMax)
}

// Metrics A2: 공정성 지표
type Metrics struct {
	Outcome                  contracts.Outcome `yaml:"outcome" json:"outcome"`
	FavorableLabel           bool              `yaml:"favorable_label" json:"favorable_label"`
	DisparateImpactThreshold float64           `yaml:"disparate_impact_threshold" json:"disparate_impact_threshold"`
}

// Mitigation A4
type Mitigation struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Method  string `yaml:"method" json:"method"` // 현재 "reweighing"만 지원
}

// Report A5
type Report struct {
	OutputDir     string `yaml:"output_dir" json:"output_dir"`
	Charts        bool   `yaml:"charts" json:"charts"`
	ErrorRatesCSV bool   `yaml:"error_rates_csv" json:"error_rates_csv"`
}

// Default returns the COMPAS race audit: African-American vs Caucasian,
// decile scores 1-10, threshold 5, metrics on the thresholded prediction.
func Default() *Config {
	return &Config{
		Meta: Meta{
			AuditID: "compas_race",
			Version: "1",
		},
		Dataset: Dataset{
			Source:           SourceCSV,
			Path:             "compas-scores-two-years.csv",
			ProPublicaFilter: true,
			Columns:          loader.DefaultColumns(),
		},
		Groups: Groups{
			Privileged:   contracts.Group{Attribute: "race", Value: "Caucasian"},
			Unprivileged: contracts.Group{Attribute: "race", Value: "African-American"},
		},
		Prediction: Prediction{
			ScoreMin: 1,
			ScoreMax: 10,
		},
		Metrics: Metrics{
			Outcome:                  contracts.OutcomePredicted,
			FavorableLabel:           true,
			DisparateImpactThreshold: 0.8,
		},
		Mitigation: Mitigation{
			Enabled: true,
			Method:  "reweighing",
		},
		Report: Report{
			OutputDir:     ".",
			Charts:        true,
			ErrorRatesCSV: true,
		},
	}
}
