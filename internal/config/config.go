package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AmountPolicy decides what happens to rows whose monetary value cannot be parsed
type AmountPolicy string

const (
	AmountPolicyStrict AmountPolicy = "strict" // first bad row fails the load
	AmountPolicySkip   AmountPolicy = "skip"   // bad rows are logged and excluded
)

// StateMeasure selects the measure of the reports-by-state treemap
type StateMeasure string

const (
	StateMeasureReports StateMeasure = "reports" // sum of number_of_reports
	StateMeasureRows    StateMeasure = "rows"    // count of rows per state
)

// Config holds application configuration
type Config struct {
	// Server settings
	ListenAddr string
	Debug      bool

	// Directories
	TemplatesDirectory string
	StaticDirectory    string

	// Dataset
	DatasetFile     string
	DatasetPassword string // only needed for age-encrypted datasets
	AmountPolicy    AmountPolicy

	// Dashboard constants
	Population         int64
	DrilldownThreshold int64
	StateMeasure       StateMeasure

	// Sessions
	SessionTTL time.Duration
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}

	return &Config{
		ListenAddr:         ":8080",
		Debug:              false,
		TemplatesDirectory: filepath.Join(wd, "web", "templates"),
		StaticDirectory:    filepath.Join(wd, "web", "static"),
		DatasetFile:        filepath.Join(wd, "data", "Jan-Dec Dataset.csv"),
		AmountPolicy:       AmountPolicyStrict,
		Population:         26800000,
		DrilldownThreshold: 1000000,
		StateMeasure:       StateMeasureReports,
		SessionTTL:         12 * time.Hour,
	}
}

// Load loads configuration from a .env file (if present) and the environment
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not read .env file", "error", err)
	}

	cfg := DefaultConfig()

	if addr := os.Getenv("SCAMDASH_LISTEN_ADDR"); addr != "" {
		cfg.ListenAddr = addr
	}
	if debug := os.Getenv("SCAMDASH_DEBUG"); debug == "true" || debug == "1" {
		cfg.Debug = true
	}
	if templatesDir := os.Getenv("SCAMDASH_TEMPLATES_DIR"); templatesDir != "" {
		cfg.TemplatesDirectory = templatesDir
	}
	if staticDir := os.Getenv("SCAMDASH_STATIC_DIR"); staticDir != "" {
		cfg.StaticDirectory = staticDir
	}
	if dataset := os.Getenv("SCAMDASH_DATASET"); dataset != "" {
		cfg.DatasetFile = dataset
	}
	cfg.DatasetPassword = os.Getenv("SCAMDASH_DATASET_PASSWORD")
	if policy := os.Getenv("SCAMDASH_AMOUNT_POLICY"); policy != "" {
		cfg.AmountPolicy = AmountPolicy(strings.ToLower(policy))
	}
	if measure := os.Getenv("SCAMDASH_STATE_MEASURE"); measure != "" {
		cfg.StateMeasure = StateMeasure(strings.ToLower(measure))
	}
	cfg.Population = getEnvInt64("SCAMDASH_POPULATION", cfg.Population)
	cfg.DrilldownThreshold = getEnvInt64("SCAMDASH_DRILLDOWN_THRESHOLD", cfg.DrilldownThreshold)
	cfg.SessionTTL = getEnvDuration("SCAMDASH_SESSION_TTL", cfg.SessionTTL)

	return cfg
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var problems []string

	if c.ListenAddr == "" {
		problems = append(problems, "listen address must not be empty")
	}
	if c.DatasetFile == "" {
		problems = append(problems, "dataset file must not be empty")
	}
	switch c.AmountPolicy {
	case AmountPolicyStrict, AmountPolicySkip:
	default:
		problems = append(problems, fmt.Sprintf("invalid amount policy %q: must be %q or %q",
			c.AmountPolicy, AmountPolicyStrict, AmountPolicySkip))
	}
	switch c.StateMeasure {
	case StateMeasureReports, StateMeasureRows:
	default:
		problems = append(problems, fmt.Sprintf("invalid state measure %q: must be %q or %q",
			c.StateMeasure, StateMeasureReports, StateMeasureRows))
	}
	if c.Population < 0 {
		problems = append(problems, fmt.Sprintf("population must not be negative, got %d", c.Population))
	}
	if c.DrilldownThreshold < 0 {
		problems = append(problems, fmt.Sprintf("drill-down threshold must not be negative, got %d", c.DrilldownThreshold))
	}
	if c.SessionTTL <= 0 {
		problems = append(problems, fmt.Sprintf("session TTL must be positive, got %s", c.SessionTTL))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// LogLevel returns the slog level implied by Debug
func (c *Config) LogLevel() slog.Level {
	if c.Debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func getEnvInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(strings.ReplaceAll(v, "_", ""), 10, 64)
	if err != nil {
		slog.Warn("ignoring invalid integer setting", "key", key, "value", v)
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("ignoring invalid duration setting", "key", key, "value", v)
		return fallback
	}
	return d
}
