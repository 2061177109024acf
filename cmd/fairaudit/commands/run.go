package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wonny/fairaudit/internal/audit"
	"github.com/wonny/fairaudit/internal/visual"
	"github.com/wonny/fairaudit/pkg/logger"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "전체 감사 실행 (A0~A5)",
	Long: `전체 공정성 감사 파이프라인을 실행합니다.

단계:
- A0 데이터 적재 (ProPublica 필터 적용)
- A1 그룹별 기술 통계 / 점수 분포
- A2 공정성 지표 (SPD, DI, base rate)
- A3 그룹별 오류율 (FPR, FNR)
- A4 Reweighing 완화
- A5 리포트

출력 디렉토리:
- report.json        전체 리포트
- error_rates.csv    그룹별 confusion matrix / 오류율
- charts/*.png       탐색 / 오류율 / 완화 차트

Example:
  go run ./cmd/fairaudit run --data compas-scores-two-years.csv
  go run ./cmd/fairaudit run --policy config/audit/compas_race.yaml --output-dir out
  go run ./cmd/fairaudit run --demo --charts=false --output json`,
	RunE: runAudit,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	if err := validateOutputFormat(); err != nil {
		return err
	}

	deps, err := initAuditDeps(cmd)
	if err != nil {
		return err
	}
	defer deps.close()

	report, err := deps.auditor.Run(commandContext(cmd))
	if err != nil {
		return err
	}

	paths, err := writeArtifacts(deps.policy.Report.OutputDir, report, deps)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if isJSON() {
		data, err := report.ToJSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprint(out, report.ToSummary())
	fmt.Fprintln(out)
	PrintSeparator(out)
	for _, p := range paths {
		PrintSuccess(out, p)
	}
	return nil
}

// writeArtifacts writes report.json, the error-rate CSV and charts into dir.
func writeArtifacts(dir string, report *audit.Report, deps *auditDeps) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	var paths []string

	data, err := report.ToJSON()
	if err != nil {
		return nil, err
	}
	reportPath := filepath.Join(dir, "report.json")
	if err := os.WriteFile(reportPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}
	paths = append(paths, reportPath)

	if deps.policy.Report.ErrorRatesCSV {
		csvPath := filepath.Join(dir, "error_rates.csv")
		if err := writeErrorRatesCSV(csvPath, report); err != nil {
			return paths, err
		}
		paths = append(paths, csvPath)
	}

	if deps.policy.Report.Charts {
		renderer := visual.NewRenderer(deps.log.Zerolog())
		chartPaths, err := renderer.WriteAll(filepath.Join(dir, "charts"), report)
		if err != nil {
			return paths, err
		}
		paths = append(paths, chartPaths...)
	}

	logArtifacts(deps.log, dir, len(paths))
	return paths, nil
}

func writeErrorRatesCSV(path string, report *audit.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := report.WriteErrorRatesCSV(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func logArtifacts(log *logger.Logger, dir string, n int) {
	log.WithFields(map[string]interface{}{
		"dir":       dir,
		"artifacts": n,
	}).Info("audit artifacts written")
}
