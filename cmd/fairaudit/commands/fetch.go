package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/fairaudit/pkg/config"
	"github.com/wonny/fairaudit/pkg/httputil"
	"github.com/wonny/fairaudit/pkg/logger"
)

var (
	fetchURL   string
	fetchForce bool

	fetchCmd = &cobra.Command{
		Use:   "fetch",
		Short: "ProPublica COMPAS CSV 다운로드",
		Long: `ProPublica compas-analysis 저장소에서 compas-scores-two-years.csv를 받아
--data (기본: FAIRAUDIT_DATA) 경로에 저장합니다.

이미 파일이 있으면 --force 없이는 건너뜁니다.

Example:
  go run ./cmd/fairaudit fetch
  go run ./cmd/fairaudit fetch --data data/compas.csv --force`,
		RunE: runFetch,
	}
)

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().StringVar(&fetchURL, "url", "", "다운로드 URL (기본: FAIRAUDIT_DATA_URL)")
	fetchCmd.Flags().BoolVar(&fetchForce, "force", false, "기존 파일 덮어쓰기")
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)
	if quiet {
		log = logger.Nop()
	}

	url := cfg.Audit.DataURL
	if fetchURL != "" {
		url = fetchURL
	}
	dst := cfg.Audit.DataPath
	if dataPath != "" {
		dst = dataPath
	}

	out := cmd.OutOrStdout()
	if _, err := os.Stat(dst); err == nil && !fetchForce {
		PrintWarning(out, fmt.Sprintf("%s already exists (use --force to overwrite)", dst))
		return nil
	}

	client := httputil.New(cfg, log).WithRateLimit(1, 1)
	n, err := client.Download(commandContext(cmd), url, dst)
	if err != nil {
		return fmt.Errorf("fetch dataset: %w", err)
	}

	PrintSuccess(out, fmt.Sprintf("%s (%d bytes)", dst, n))
	return nil
}
