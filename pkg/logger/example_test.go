package logger_test

import (
	"errors"
	"os"

	"github.com/wonny/fairaudit/pkg/config"
	"github.com/wonny/fairaudit/pkg/logger"
)

// Example_basic demonstrates basic logger usage
func Example_basic() {
	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "info",
		LogFormat: "console",
	}

	log := logger.New(cfg)

	log.Debug("This won't appear (level is info)")
	log.Info("Audit started")
	log.Infof("Loaded %d records", 6172)
}

// Example_withFields demonstrates structured logging for an audit stage
func Example_withFields() {
	cfg := &config.Config{
		Env:       "production",
		LogLevel:  "info",
		LogFormat: "json",
	}

	log := logger.NewWithWriter(cfg, os.Stderr)

	log.WithFields(map[string]interface{}{
		"stage":        "A2_FAIRNESS",
		"privileged":   "race=Caucasian",
		"unprivileged": "race=African-American",
	}).Info("Fairness metrics computed")

	err := errors.New("no records in group race=Asian")
	log.WithError(err).Error("Error-rate analysis failed")
}
