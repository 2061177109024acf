package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/fairaudit/pkg/config"
	"github.com/wonny/fairaudit/pkg/logger"
)

// testLoggerCmd represents the test-logger command
var testLoggerCmd = &cobra.Command{
	Use:   "test-logger",
	Short: "Logger 기능 테스트",
	Long: `구조화된 로깅 기능을 테스트합니다. 로그는 stderr로 출력됩니다.

이 명령어는:
- JSON/Console 포맷 테스트
- 구조화된 필드 로깅
- 에러 컨텍스트 로깅

Example:
  go run ./cmd/fairaudit test-logger`,
	RunE: runTestLogger,
}

func init() {
	rootCmd.AddCommand(testLoggerCmd)
}

func runTestLogger(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "=== fairaudit Logger Test ===")

	steps := []struct {
		title string
		cfg   *config.Config
		run   func(*logger.Logger)
	}{
		{"1. JSON Format", &config.Config{Env: "production", LogLevel: "info", LogFormat: "json"}, func(log *logger.Logger) {
			log.Info("audit started")
			log.Warn("dataset not filtered")
		}},
		{"2. Console Format", &config.Config{Env: "development", LogLevel: "debug", LogFormat: "console"}, func(log *logger.Logger) {
			log.Debug("thresholding scores")
			log.Info("stage completed")
		}},
		{"3. Structured Logging with Fields", &config.Config{Env: "production", LogLevel: "info", LogFormat: "json"}, func(log *logger.Logger) {
			log.WithField("stage", "A2_FAIRNESS").Info("fairness metrics computed")
			log.WithFields(map[string]interface{}{
				"privileged":       "Caucasian",
				"unprivileged":     "African-American",
				"disparate_impact": 0.75,
			}).Warn("four-fifths rule violated")
		}},
		{"4. Error Logging", &config.Config{Env: "production", LogLevel: "error", LogFormat: "json"}, func(log *logger.Logger) {
			err := errors.New("missing column two_year_recid")
			log.WithError(err).WithField("stage", "A0_LOAD").Error("audit stage failed")
		}},
	}

	for _, s := range steps {
		fmt.Fprintln(out, s.title)
		fmt.Fprintln(out, "--------------------------------")
		s.run(logger.New(s.cfg))
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out, "✅ All logger tests completed!")
	return nil
}
