package fairness

import "github.com/wonny/fairaudit/internal/contracts"

// Summary is the fairness result for one privileged/unprivileged pair.
type Summary struct {
	Pair      contracts.GroupPair `json:"pair"`
	Outcome   contracts.Outcome   `json:"outcome"`   // label the rates were computed on
	Favorable bool                `json:"favorable"` // label value counted as positive
	Weighted  bool                `json:"weighted"`  // instance weights applied

	PrivilegedCount   int `json:"privileged_count"`
	UnprivilegedCount int `json:"unprivileged_count"`

	PrivilegedRate              float64 `json:"privileged_rate"`
	UnprivilegedRate            float64 `json:"unprivileged_rate"`
	StatisticalParityDifference float64 `json:"statistical_parity_difference"`
	DisparateImpact             float64 `json:"disparate_impact"`

	PrivilegedBaseRate   float64 `json:"privileged_base_rate"`
	UnprivilegedBaseRate float64 `json:"unprivileged_base_rate"`
	BaseRateDifference   float64 `json:"base_rate_difference"`
}

// SignificantBias reports whether the disparate impact falls below the
// given threshold (0 for the four-fifths rule).
func (s *Summary) SignificantBias(threshold float64) bool {
	return IsSignificantBias(s.DisparateImpact, threshold)
}

// DistanceFromParity returns |DI - 1|.
func (s *Summary) DistanceFromParity() float64 {
	d := s.DisparateImpact - 1
	if d < 0 {
		return -d
	}
	return d
}
