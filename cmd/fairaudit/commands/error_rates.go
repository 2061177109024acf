package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/fairaudit/internal/audit"
)

var (
	errorRatesCSV bool

	errorRatesCmd = &cobra.Command{
		Use:   "error-rates",
		Short: "A3 그룹별 오류율 (FPR, FNR)",
		Long: `점수를 임계값으로 이진화해 그룹별 confusion matrix와 오류율을 계산합니다.

- FPR: 비재범자 중 고위험 판정 비율
- FNR: 재범자 중 저위험 판정 비율

Example:
  go run ./cmd/fairaudit error-rates --data compas-scores-two-years.csv
  go run ./cmd/fairaudit error-rates --threshold 7 --csv > error_rates.csv`,
		RunE: runErrorRates,
	}
)

func init() {
	rootCmd.AddCommand(errorRatesCmd)
	errorRatesCmd.Flags().BoolVar(&errorRatesCSV, "csv", false, "CSV 출력 (--output 무시)")
}

func runErrorRates(cmd *cobra.Command, args []string) error {
	if err := validateOutputFormat(); err != nil {
		return err
	}

	deps, err := initAuditDeps(cmd)
	if err != nil {
		return err
	}
	defer deps.close()

	ds, err := deps.loadDataset(cmd)
	if err != nil {
		return err
	}

	metrics, disparity, err := deps.auditor.ErrorRates(ds)
	if err != nil {
		return fmt.Errorf("error rates: %w", err)
	}

	out := cmd.OutOrStdout()
	if errorRatesCSV {
		report := &audit.Report{ErrorRates: metrics}
		return report.WriteErrorRatesCSV(out)
	}
	if isJSON() {
		return PrintJSON(out, map[string]interface{}{
			"groups":    metrics,
			"disparity": disparity,
		})
	}

	PrintHeader(out, "A3 Error Rates", map[string]string{
		"Dataset":   ds.Name(),
		"Threshold": fmt.Sprintf("score >= %g", deps.auditor.Policy().Prediction.EffectiveThreshold()),
	}, "Dataset", "Threshold")

	widths := []int{22, 6, 5, 5, 5, 5, 7, 7}
	PrintTableHeader(out, []string{"group", "n", "TP", "FP", "TN", "FN", "FPR", "FNR"}, widths)
	for _, m := range metrics {
		PrintTableRow(out, []string{
			m.Group.Value,
			strconv.Itoa(m.Total),
			strconv.Itoa(m.TP),
			strconv.Itoa(m.FP),
			strconv.Itoa(m.TN),
			strconv.Itoa(m.FN),
			pct(m.FalsePositiveRate),
			pct(m.FalseNegativeRate),
		}, widths)
	}
	fmt.Fprintln(out)

	PrintKeyValue(out, "FPR difference", fmt.Sprintf("%+.4f", disparity.FalsePositiveRateDifference), 28)
	PrintKeyValue(out, "FNR difference", fmt.Sprintf("%+.4f", disparity.FalseNegativeRateDifference), 28)
	PrintKeyValue(out, "Equal opportunity difference", fmt.Sprintf("%+.4f", disparity.EqualOpportunityDifference), 28)
	PrintKeyValue(out, "Average odds difference", fmt.Sprintf("%+.4f", disparity.AverageOddsDifference), 28)
	return nil
}
