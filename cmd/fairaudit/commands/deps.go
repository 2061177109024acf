package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/fairaudit/internal/audit"
	"github.com/wonny/fairaudit/internal/auditconfig"
	"github.com/wonny/fairaudit/internal/contracts"
	"github.com/wonny/fairaudit/internal/loader"
	"github.com/wonny/fairaudit/pkg/config"
	"github.com/wonny/fairaudit/pkg/database"
	"github.com/wonny/fairaudit/pkg/logger"
)

// auditDeps holds everything an audit command needs.
type auditDeps struct {
	cfg     *config.Config
	log     *logger.Logger
	policy  *auditconfig.Config
	auditor *audit.Auditor
	close   func()
}

// initAuditDeps loads env config, the audit policy and the dataset loader.
// Precedence: flag > policy file > environment > built-in default.
func initAuditDeps(cmd *cobra.Command) (*auditDeps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if env != "" {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)
	if quiet {
		log = logger.Nop()
	}

	policy, err := loadPolicy(cmd, cfg)
	if err != nil {
		return nil, err
	}

	for _, w := range auditconfig.Warn(policy) {
		log.WithField("code", w.Code).Warn(w.Message)
	}

	ldr, closeFn, err := buildLoader(commandContext(cmd), cfg, policy, log)
	if err != nil {
		return nil, err
	}

	return &auditDeps{
		cfg:     cfg,
		log:     log,
		policy:  policy,
		auditor: audit.NewAuditor(ldr, policy, log.Zerolog()),
		close:   closeFn,
	}, nil
}

func loadPolicy(cmd *cobra.Command, cfg *config.Config) (*auditconfig.Config, error) {
	path := policyPath
	if path == "" {
		path = cfg.Audit.PolicyPath
	}

	var policy *auditconfig.Config
	if path != "" {
		p, _, err := auditconfig.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load policy: %w", err)
		}
		policy = p
	} else {
		// 정책 파일이 없으면 내장 정책 + 환경변수
		policy = auditconfig.Default()
		policy.Dataset.Path = cfg.Audit.DataPath
		policy.Report.OutputDir = cfg.Audit.OutputDir
		policy.Report.Charts = cfg.Audit.Charts
	}

	flags := cmd.Flags()
	if flags.Changed("data") {
		policy.Dataset.Source = auditconfig.SourceCSV
		policy.Dataset.Path = dataPath
	}
	if flags.Changed("threshold") {
		th := threshold
		policy.Prediction.Threshold = &th
	}
	if flags.Changed("output-dir") {
		policy.Report.OutputDir = outputDir
	}
	if flags.Changed("charts") {
		policy.Report.Charts = charts
	}

	if err := auditconfig.Validate(policy); err != nil {
		return nil, fmt.Errorf("invalid policy: %w", err)
	}
	return policy, nil
}

// buildLoader picks the dataset source: --demo, CSV or PostgreSQL.
// The returned close func releases the database pool, if any.
func buildLoader(ctx context.Context, cfg *config.Config, policy *auditconfig.Config, log *logger.Logger) (contracts.DatasetLoader, func(), error) {
	noop := func() {}

	if demo {
		log.WithField("records", demoRecords).Info("demo mode: synthetic dataset")
		return loader.NewSyntheticLoader(demoRecords, demoSeed), noop, nil
	}

	var filter loader.RowFilter
	if policy.Dataset.ProPublicaFilter {
		filter = loader.ProPublicaFilter{}
	}

	switch policy.Dataset.Source {
	case auditconfig.SourcePostgres:
		db, err := database.New(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		l := loader.NewPostgresLoader(db.Pool, policy.Dataset.Table, policy.Dataset.Columns, filter, log.Zerolog())
		return l, db.Close, nil
	default:
		l := loader.NewCSVLoader(policy.Dataset.Path, policy.Dataset.Columns, filter, log.Zerolog())
		return l, noop, nil
	}
}

// loadDataset runs A0 for the single-stage commands.
func (d *auditDeps) loadDataset(cmd *cobra.Command) (*contracts.Dataset, error) {
	ds, err := d.auditor.Load(commandContext(cmd))
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", contracts.StageLoad.ShortName(), contracts.StageLoad.Description(), err)
	}
	return ds, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
