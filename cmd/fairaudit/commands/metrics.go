package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/fairaudit/internal/audit"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "A2 공정성 지표 (SPD, DI, base rate)",
	Long: `privileged / unprivileged 그룹의 positive rate, statistical parity
difference, disparate impact, base rate를 계산합니다.

DI가 정책의 disparate_impact_threshold (기본 0.8, four-fifths rule) 미만이면
유의미한 편향으로 표시합니다.

Example:
  go run ./cmd/fairaudit metrics --data compas-scores-two-years.csv
  go run ./cmd/fairaudit metrics --threshold 7
  go run ./cmd/fairaudit metrics --demo --output json`,
	RunE: runMetrics,
}

func init() {
	rootCmd.AddCommand(metricsCmd)
}

func runMetrics(cmd *cobra.Command, args []string) error {
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

	s, err := deps.auditor.Fairness(ds)
	if err != nil {
		return fmt.Errorf("fairness metrics: %w", err)
	}

	out := cmd.OutOrStdout()
	if isJSON() {
		return PrintJSON(out, s)
	}

	PrintHeader(out, "A2 Fairness Metrics", map[string]string{
		"Dataset": ds.Name(),
		"Outcome": string(s.Outcome),
	}, "Dataset", "Outcome")

	widths := []int{14, 24, 6, 10, 10}
	PrintTableHeader(out, []string{"", "group", "n", "rate", "base rate"}, widths)
	PrintTableRow(out, []string{"privileged", s.Pair.Privileged.Value,
		strconv.Itoa(s.PrivilegedCount), f4(s.PrivilegedRate), f4(s.PrivilegedBaseRate)}, widths)
	PrintTableRow(out, []string{"unprivileged", s.Pair.Unprivileged.Value,
		strconv.Itoa(s.UnprivilegedCount), f4(s.UnprivilegedRate), f4(s.UnprivilegedBaseRate)}, widths)
	fmt.Fprintln(out)

	PrintKeyValue(out, "Statistical parity difference", fmt.Sprintf("%+.4f", s.StatisticalParityDifference), 30)
	PrintKeyValue(out, "Disparate impact", f4(s.DisparateImpact), 30)
	PrintKeyValue(out, "Base rate difference", fmt.Sprintf("%+.4f", s.BaseRateDifference), 30)
	fmt.Fprintln(out)

	diThreshold := deps.policy.Metrics.DisparateImpactThreshold
	verdict := audit.InterpretDisparateImpact(s.DisparateImpact, diThreshold)
	if s.SignificantBias(diThreshold) {
		PrintWarning(out, verdict)
	} else {
		PrintSuccess(out, verdict)
	}
	return nil
}
