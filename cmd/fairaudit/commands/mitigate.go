package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var mitigateCmd = &cobra.Command{
	Use:   "mitigate",
	Short: "A4 Reweighing 완화 전후 비교",
	Long: `Kamiran & Calders reweighing으로 (그룹, 라벨) 셀별 가중치를 계산하고
가중치 적용 전후의 SPD / DI를 비교합니다.

Example:
  go run ./cmd/fairaudit mitigate --data compas-scores-two-years.csv
  go run ./cmd/fairaudit mitigate --demo --output json`,
	RunE: runMitigate,
}

func init() {
	rootCmd.AddCommand(mitigateCmd)
}

func runMitigate(cmd *cobra.Command, args []string) error {
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

	res, err := deps.auditor.Mitigate(ds)
	if err != nil {
		return fmt.Errorf("mitigate: %w", err)
	}

	out := cmd.OutOrStdout()
	if isJSON() {
		return PrintJSON(out, res)
	}

	PrintHeader(out, "A4 Mitigation (reweighing)", map[string]string{
		"Dataset": ds.Name(),
		"Outcome": string(res.Before.Outcome),
	}, "Dataset", "Outcome")

	if w := res.Weights; w != nil {
		widths := []int{14, 12, 12}
		PrintTableHeader(out, []string{"weight", "positive", "negative"}, widths)
		PrintTableRow(out, []string{"privileged", f4(w.PrivilegedPositive), f4(w.PrivilegedNegative)}, widths)
		PrintTableRow(out, []string{"unprivileged", f4(w.UnprivilegedPositive), f4(w.UnprivilegedNegative)}, widths)
		fmt.Fprintln(out)
	}

	widths := []int{30, 10, 10, 10}
	PrintTableHeader(out, []string{"", "before", "after", "change"}, widths)
	PrintTableRow(out, []string{"Statistical parity difference",
		f4(res.Before.StatisticalParityDifference), f4(res.After.StatisticalParityDifference),
		fmt.Sprintf("%+.4f", res.SPDChange())}, widths)
	PrintTableRow(out, []string{"Disparate impact",
		f4(res.Before.DisparateImpact), f4(res.After.DisparateImpact),
		fmt.Sprintf("%+.4f", res.DIChange())}, widths)
	fmt.Fprintln(out)

	if res.Improved {
		PrintSuccess(out, "disparate impact moved closer to 1")
	} else {
		PrintWarning(out, "reweighing did not improve disparate impact")
	}
	return nil
}
