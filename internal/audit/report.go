package audit

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/wonny/fairaudit/internal/classification"
	"github.com/wonny/fairaudit/internal/contracts"
	"github.com/wonny/fairaudit/internal/describe"
	"github.com/wonny/fairaudit/internal/fairness"
	"github.com/wonny/fairaudit/internal/mitigation"
)

// =============================================================================
// Report Types
// =============================================================================

// Report 공정성 감사 결과 (A5)
type Report struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`

	Dataset       DatasetInfo                   `json:"dataset"`
	Descriptive   *describe.Summary             `json:"descriptive,omitempty"`
	Distributions []*describe.Distribution      `json:"score_distributions,omitempty"`
	Fairness      *fairness.Summary             `json:"fairness,omitempty"`
	ErrorRates    []classification.GroupMetrics `json:"error_rates,omitempty"`
	Disparity     *classification.Disparity     `json:"error_rate_disparity,omitempty"`
	Mitigation    *mitigation.Result            `json:"mitigation,omitempty"`
	Stages        []contracts.StageResult       `json:"stages"`
	Metadata      ReportMetadata                `json:"metadata"`
}

// DatasetInfo describes the audited dataset.
type DatasetInfo struct {
	Name      string            `json:"name"`
	Records   int               `json:"records"`
	Threshold float64           `json:"threshold"`
	Outcome   contracts.Outcome `json:"outcome"`
	Favorable bool              `json:"favorable_label"`
}

// ReportMetadata 리포트 메타데이터
type ReportMetadata struct {
	PolicyID                 string   `json:"policy_id"`
	PolicyHash               string   `json:"policy_hash,omitempty"`
	DisparateImpactThreshold float64  `json:"disparate_impact_threshold"`
	Warnings                 []string `json:"warnings,omitempty"`
}

// ErrorRateRow is one CSV line of the error-rate export.
type ErrorRateRow struct {
	Attribute         string  `csv:"attribute"`
	Group             string  `csv:"group"`
	Threshold         float64 `csv:"threshold"`
	Total             int     `csv:"total"`
	TP                int     `csv:"tp"`
	FP                int     `csv:"fp"`
	TN                int     `csv:"tn"`
	FN                int     `csv:"fn"`
	FalsePositiveRate float64 `csv:"false_positive_rate"`
	FalseNegativeRate float64 `csv:"false_negative_rate"`
	Precision         float64 `csv:"precision"`
	Recall            float64 `csv:"recall"`
	Accuracy          float64 `csv:"accuracy"`
}

// =============================================================================
// Output
// =============================================================================

// ToJSON JSON 형식으로 출력
func (report *Report) ToJSON() ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}

// WriteErrorRatesCSV writes one row per analyzed group.
func (report *Report) WriteErrorRatesCSV(w io.Writer) error {
	if len(report.ErrorRates) == 0 {
		return fmt.Errorf("report has no error rates")
	}

	rows := make([]*ErrorRateRow, 0, len(report.ErrorRates))
	for _, m := range report.ErrorRates {
		rows = append(rows, &ErrorRateRow{
			Attribute:         m.Group.Attribute,
			Group:             m.Group.Value,
			Threshold:         m.Threshold,
			Total:             m.Total,
			TP:                m.TP,
			FP:                m.FP,
			TN:                m.TN,
			FN:                m.FN,
			FalsePositiveRate: m.FalsePositiveRate,
			FalseNegativeRate: m.FalseNegativeRate,
			Precision:         m.Precision,
			Recall:            m.Recall,
			Accuracy:          m.Accuracy,
		})
	}
	return gocsv.Marshal(&rows, w)
}

// ToSummary 요약 문자열 출력
func (report *Report) ToSummary() string {
	var b strings.Builder

	fmt.Fprintf(&b, "=== Fairness Audit (%s) ===\n", report.GeneratedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Run ID: %s\n", report.RunID)
	fmt.Fprintf(&b, "Dataset: %s (%d records)\n", report.Dataset.Name, report.Dataset.Records)
	fmt.Fprintf(&b, "Threshold: score >= %g  Outcome: %s  Favorable label: %v\n\n",
		report.Dataset.Threshold, report.Dataset.Outcome, report.Dataset.Favorable)

	if report.Descriptive != nil {
		writeDescriptive(&b, report.Descriptive)
	}

	if report.Fairness != nil {
		writeFairness(&b, report.Fairness, report.Metadata.DisparateImpactThreshold)
	}

	if len(report.ErrorRates) > 0 {
		b.WriteString("🎯 Error Rates\n")
		fmt.Fprintf(&b, "  %-22s %6s %6s %6s %6s %6s\n", "group", "n", "FPR", "FNR", "PPV", "ACC")
		for _, m := range report.ErrorRates {
			fmt.Fprintf(&b, "  %-22s %6d %6.3f %6.3f %6.3f %6.3f\n",
				m.Group.Value, m.Total, m.FalsePositiveRate, m.FalseNegativeRate, m.Precision, m.Accuracy)
		}
		if report.Disparity != nil {
			d := report.Disparity
			fmt.Fprintf(&b, "  FPR difference: %+.4f  FNR difference: %+.4f\n",
				d.FalsePositiveRateDifference, d.FalseNegativeRateDifference)
			fmt.Fprintf(&b, "  Equal opportunity difference: %+.4f  Average odds difference: %+.4f\n",
				d.EqualOpportunityDifference, d.AverageOddsDifference)
		}
		b.WriteString("\n")
	}

	if report.Mitigation != nil {
		writeMitigation(&b, report.Mitigation)
	}

	if len(report.Metadata.Warnings) > 0 {
		b.WriteString("⚠️ Warnings\n")
		for _, w := range report.Metadata.Warnings {
			fmt.Fprintf(&b, "  %s\n", w)
		}
	}

	return b.String()
}

func writeDescriptive(b *strings.Builder, s *describe.Summary) {
	fmt.Fprintf(b, "📊 Exploratory (%s)\n", s.Attribute)
	fmt.Fprintf(b, "  %-22s %6s %10s %10s\n", "group", "n", "recid", "score")
	for _, g := range s.Groups {
		fmt.Fprintf(b, "  %-22s %6d %10.3f %10.2f\n",
			g.Value, g.Count, g.Means[describe.FieldGroundTruth], g.Means[describe.FieldScore])
	}
	fmt.Fprintf(b, "  %-22s %6d %10.3f %10.2f\n\n",
		"overall", s.Total, s.Overall[describe.FieldGroundTruth], s.Overall[describe.FieldScore])
}

func writeFairness(b *strings.Builder, s *fairness.Summary, diThreshold float64) {
	b.WriteString("⚖️ Fairness Metrics\n")
	fmt.Fprintf(b, "  Privileged: %s (n=%d, rate %.4f)\n", s.Pair.Privileged, s.PrivilegedCount, s.PrivilegedRate)
	fmt.Fprintf(b, "  Unprivileged: %s (n=%d, rate %.4f)\n", s.Pair.Unprivileged, s.UnprivilegedCount, s.UnprivilegedRate)
	fmt.Fprintf(b, "  Statistical parity difference: %+.4f\n", s.StatisticalParityDifference)
	fmt.Fprintf(b, "  Disparate impact: %.4f\n", s.DisparateImpact)
	fmt.Fprintf(b, "  Base rate difference: %+.4f\n", s.BaseRateDifference)
	fmt.Fprintf(b, "  → %s\n\n", InterpretDisparateImpact(s.DisparateImpact, diThreshold))
}

func writeMitigation(b *strings.Builder, r *mitigation.Result) {
	b.WriteString("🛠 Mitigation (reweighing)\n")
	fmt.Fprintf(b, "  %-32s %10s %10s\n", "", "before", "after")
	fmt.Fprintf(b, "  %-32s %10.4f %10.4f\n", "Statistical parity difference",
		r.Before.StatisticalParityDifference, r.After.StatisticalParityDifference)
	fmt.Fprintf(b, "  %-32s %10.4f %10.4f\n", "Disparate impact",
		r.Before.DisparateImpact, r.After.DisparateImpact)
	if r.Improved {
		b.WriteString("  → disparate impact moved closer to 1\n\n")
	} else {
		b.WriteString("  → no improvement\n\n")
	}
}

// InterpretDisparateImpact renders the four-fifths rule verdict. Whether
// the positive label is a benefit or a harm depends on the favorable label.
func InterpretDisparateImpact(di, threshold float64) string {
	if threshold <= 0 {
		threshold = fairness.DisparateImpactThreshold
	}
	switch {
	case di < threshold:
		return fmt.Sprintf("significant disparity: unprivileged group receives the positive label far less often (DI %.2f < %.2f)", di, threshold)
	case di > 1/threshold:
		return fmt.Sprintf("significant disparity: unprivileged group receives the positive label far more often (DI %.2f > %.2f)", di, 1/threshold)
	case math.Abs(di-1) < 1e-9:
		return "parity"
	default:
		return "within the four-fifths range"
	}
}
