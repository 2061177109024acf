package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	env          string
	verbose      bool
	quiet        bool
	outputFormat string

	// Audit flags (shared by every audit command)
	policyPath  string
	dataPath    string
	threshold   float64
	outputDir   string
	charts      bool
	demo        bool
	demoRecords int
	demoSeed    int64
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fairaudit",
	Short: "COMPAS 재범 위험 점수 공정성 감사",
	Long: `fairaudit - COMPAS racial bias audit

A0~A5 파이프라인으로 데이터 적재부터 리포트까지.
  A0 load        CSV / PostgreSQL / synthetic dataset
  A1 describe    group counts, recidivism rate, score distribution
  A2 metrics     positive rate, SPD, disparate impact, base rate
  A3 error-rates confusion matrix, FPR / FNR per group
  A4 mitigate    reweighing, fairness before and after
  A5 report      text / JSON report, error-rate CSV, PNG charts

Usage:
  go run ./cmd/fairaudit [command]

Examples:
  go run ./cmd/fairaudit run --data compas-scores-two-years.csv
  go run ./cmd/fairaudit run --policy config/audit/compas_race.yaml --output json
  go run ./cmd/fairaudit metrics --demo
  go run ./cmd/fairaudit test-db`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "disable logging")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "출력 형식 (text, json)")

	// Audit flags
	rootCmd.PersistentFlags().StringVar(&policyPath, "policy", "", "YAML 감사 정책 (기본: FAIRAUDIT_POLICY 또는 내장 COMPAS 정책)")
	rootCmd.PersistentFlags().StringVar(&dataPath, "data", "", "CSV 데이터 경로 (기본: FAIRAUDIT_DATA)")
	rootCmd.PersistentFlags().Float64Var(&threshold, "threshold", 0, "고위험 판정 임계값 (기본: 점수 범위 중간값)")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output-dir", "", "리포트/차트 출력 디렉토리 (기본: FAIRAUDIT_OUTPUT_DIR)")
	rootCmd.PersistentFlags().BoolVar(&charts, "charts", true, "PNG 차트 생성")
	rootCmd.PersistentFlags().BoolVar(&demo, "demo", false, "데모 모드 (합성 데이터 사용)")
	rootCmd.PersistentFlags().IntVar(&demoRecords, "demo-records", 5000, "데모 레코드 수")
	rootCmd.PersistentFlags().Int64Var(&demoSeed, "seed", 42, "데모 데이터 시드")
}
