package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	Env string // development, staging, production

	// Database (optional, only for the postgres dataset source)
	Database DatabaseConfig

	// Audit
	Audit AuditConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	ConnectTimeout  time.Duration
}

// Enabled reports whether a database URL is configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// AuditConfig holds defaults for audit runs. CLI flags override them.
type AuditConfig struct {
	PolicyPath string // YAML audit policy
	DataPath   string // CSV dataset path
	OutputDir  string // report and chart output directory
	Charts     bool   // render PNG charts

	// fetch
	DataURL     string
	HTTPTimeout time.Duration
}

// DefaultDataURL is ProPublica's two-year recidivism file.
const DefaultDataURL = "https://raw.githubusercontent.com/propublica/compas-analysis/master/compas-scores-two-years.csv"

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Env: getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 4),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
			ConnectTimeout:  getEnvAsDuration("DB_CONNECT_TIMEOUT", "5s"),
		},

		Audit: AuditConfig{
			PolicyPath: getEnv("FAIRAUDIT_POLICY", ""),
			DataPath:   getEnv("FAIRAUDIT_DATA", "compas-scores-two-years.csv"),
			OutputDir:  getEnv("FAIRAUDIT_OUTPUT_DIR", "."),
			Charts:     getEnvAsBool("FAIRAUDIT_CHARTS", true),

			DataURL:     getEnv("FAIRAUDIT_DATA_URL", DefaultDataURL),
			HTTPTimeout: getEnvAsDuration("FAIRAUDIT_HTTP_TIMEOUT", "60s"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if configuration values are consistent
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) must not exceed DB_MAX_CONNS (%d)",
			c.Database.MinConns, c.Database.MaxConns)
	}

	if c.Audit.OutputDir == "" {
		return fmt.Errorf("FAIRAUDIT_OUTPUT_DIR must not be empty")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
