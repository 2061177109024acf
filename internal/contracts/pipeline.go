package contracts

// Pipeline Stage 정의 (SSOT)
// 모든 로그와 리포트에서 이 상수를 사용해야 함
//
// 파이프라인 흐름:
//   A0 → A1 → A2 → A3 → A4 → A5
//   Load  Describe  Fairness  ErrorRates  Mitigation  Report

// Stage represents an audit pipeline stage
type Stage string

const (
	// StageLoad A0: dataset loading and cleaning
	// 위치: internal/loader/
	StageLoad Stage = "A0_LOAD"

	// StageDescribe A1: per-group counts and means
	// 위치: internal/describe/
	StageDescribe Stage = "A1_DESCRIBE"

	// StageFairness A2: statistical parity / disparate impact
	// 위치: internal/fairness/
	StageFairness Stage = "A2_FAIRNESS"

	// StageErrorRates A3: confusion-matrix rates per group
	// 위치: internal/classification/
	StageErrorRates Stage = "A3_ERROR_RATES"

	// StageMitigation A4: reweighing and before/after comparison
	// 위치: internal/mitigation/
	StageMitigation Stage = "A4_MITIGATION"

	// StageReport A5: text/JSON/CSV report and charts
	// 위치: internal/audit/, internal/visual/
	StageReport Stage = "A5_REPORT"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// ShortName returns abbreviated stage name (e.g., "A0", "A1")
func (s Stage) ShortName() string {
	switch s {
	case StageLoad:
		return "A0"
	case StageDescribe:
		return "A1"
	case StageFairness:
		return "A2"
	case StageErrorRates:
		return "A3"
	case StageMitigation:
		return "A4"
	case StageReport:
		return "A5"
	default:
		return "UNKNOWN"
	}
}

// Description returns a human-readable description of the stage
func (s Stage) Description() string {
	switch s {
	case StageLoad:
		return "Dataset loading"
	case StageDescribe:
		return "Exploratory analysis"
	case StageFairness:
		return "Fairness metrics"
	case StageErrorRates:
		return "Error rate analysis"
	case StageMitigation:
		return "Bias mitigation (reweighing)"
	case StageReport:
		return "Reporting"
	default:
		return "unknown"
	}
}

// AllStages returns all pipeline stages in order
func AllStages() []Stage {
	return []Stage{
		StageLoad,
		StageDescribe,
		StageFairness,
		StageErrorRates,
		StageMitigation,
		StageReport,
	}
}

// IsValidStage checks if a stage string is valid
func IsValidStage(s string) bool {
	for _, stage := range AllStages() {
		if string(stage) == s {
			return true
		}
	}
	return false
}

// StageResult records the execution of one pipeline stage
type StageResult struct {
	Stage    Stage  `json:"stage"`
	Success  bool   `json:"success"`
	Records  int    `json:"records"`
	Duration int64  `json:"duration_ms"`
	Error    string `json:"error,omitempty"`
}
