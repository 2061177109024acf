package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/fairaudit/internal/describe"
)

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "A1 그룹별 기술 통계",
	Long: `보호 속성별 인원, 재범률, 평균 점수와 그룹별 점수 분포를 출력합니다.

Example:
  go run ./cmd/fairaudit describe --data compas-scores-two-years.csv
  go run ./cmd/fairaudit describe --demo --output json`,
	RunE: runDescribe,
}

func init() {
	rootCmd.AddCommand(describeCmd)
}

func runDescribe(cmd *cobra.Command, args []string) error {
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

	summary, dists, err := deps.auditor.Describe(ds)
	if err != nil {
		return fmt.Errorf("describe: %w", err)
	}

	out := cmd.OutOrStdout()
	if isJSON() {
		return PrintJSON(out, map[string]interface{}{
			"summary":       summary,
			"distributions": dists,
		})
	}

	PrintHeader(out, "A1 Exploratory Analysis", map[string]string{
		"Dataset":   ds.Name(),
		"Records":   strconv.Itoa(ds.Len()),
		"Attribute": summary.Attribute,
	}, "Dataset", "Records", "Attribute")

	widths := []int{22, 7, 8, 8, 9}
	PrintTableHeader(out, []string{"group", "n", "recid", "score", "high risk"}, widths)
	for _, g := range summary.Groups {
		PrintTableRow(out, []string{
			g.Value,
			strconv.Itoa(g.Count),
			pct(g.Means[describe.FieldGroundTruth]),
			fmt.Sprintf("%.2f", g.Means[describe.FieldScore]),
			pct(g.Means[describe.FieldPredicted]),
		}, widths)
	}
	PrintTableRow(out, []string{
		"overall",
		strconv.Itoa(summary.Total),
		pct(summary.Overall[describe.FieldGroundTruth]),
		fmt.Sprintf("%.2f", summary.Overall[describe.FieldScore]),
		pct(summary.Overall[describe.FieldPredicted]),
	}, widths)

	if len(dists) == 0 {
		return nil
	}

	// 점수 분포: 행 = 점수, 열 = 그룹
	fmt.Fprintln(out)
	cols := []string{"score"}
	dw := []int{5}
	for _, d := range dists {
		cols = append(cols, d.Group.Value)
		dw = append(dw, max(8, len(d.Group.Value)))
	}
	PrintTableHeader(out, cols, dw)
	for score := dists[0].Min; score <= dists[0].Max; score++ {
		row := []string{strconv.Itoa(score)}
		for _, d := range dists {
			row = append(row, strconv.Itoa(d.Count(score)))
		}
		PrintTableRow(out, row, dw)
	}
	return nil
}
