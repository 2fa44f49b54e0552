// Package config loads process-level settings for an ecsctl run: concurrency
// caps, retry defaults, log format/level, and the metrics bind address. A
// layered scheme applies a YAML file first, then lets environment variables
// override individual fields, mirroring the env/flag layering used elsewhere
// in the retrieved corpus's CLI entry points.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/extensivelabs/ecs"
)

// Config is the full set of process-level settings a CLI run reads.
type Config struct {
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Retry       RetryConfig       `yaml:"retry"`
	Log         LogConfig         `yaml:"log"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// ConcurrencyConfig bounds the scheduler's worker pool.
type ConcurrencyConfig struct {
	// Limit caps in-flight system tasks within one group. Zero starts no
	// worker pool: the systems of a group run one after another.
	Limit int `yaml:"limit"`
}

// RetryConfig mirrors ecs.RetryPolicy in a YAML/env-friendly shape.
type RetryConfig struct {
	MaxAttempts int    `yaml:"max_attempts"`
	Backoff     string `yaml:"backoff"` // "none", "linear", "exponential"
	BaseDelay   string `yaml:"base_delay"`
	OnExhausted string `yaml:"on_exhausted"` // "fail", "skip"
}

// Policy converts RetryConfig into the runtime's ecs.RetryPolicy, applying
// ecs.DefaultRetryPolicy's values where a field is left at its zero value.
func (r RetryConfig) Policy() (ecs.RetryPolicy, error) {
	policy := ecs.DefaultRetryPolicy()
	if r.MaxAttempts > 0 {
		policy.MaxAttempts = r.MaxAttempts
	}

	switch r.Backoff {
	case "", "none":
		policy.Backoff = ecs.BackoffNone
	case "linear":
		policy.Backoff = ecs.BackoffLinear
	case "exponential":
		policy.Backoff = ecs.BackoffExponential
	default:
		return ecs.RetryPolicy{}, fmt.Errorf("config: unknown retry.backoff %q", r.Backoff)
	}

	if r.BaseDelay != "" {
		d, err := time.ParseDuration(r.BaseDelay)
		if err != nil {
			return ecs.RetryPolicy{}, fmt.Errorf("config: invalid retry.base_delay: %w", err)
		}
		policy.Base = d
	}

	switch r.OnExhausted {
	case "", "fail":
		policy.OnExhausted = ecs.OnExhaustedFail
	case "skip":
		policy.OnExhausted = ecs.OnExhaustedSkip
	default:
		return ecs.RetryPolicy{}, fmt.Errorf("config: unknown retry.on_exhausted %q", r.OnExhausted)
	}

	return policy, nil
}

// LogConfig selects the log level and output encoding.
type LogConfig struct {
	Level string `yaml:"level"` // "debug", "info", "warn", "error"
	JSON  bool   `yaml:"json"`
}

// MetricsConfig controls the Prometheus scrape endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Default returns the configuration a bare CLI invocation runs with.
func Default() Config {
	return Config{
		Concurrency: ConcurrencyConfig{Limit: 0},
		Retry: RetryConfig{
			MaxAttempts: 1,
			Backoff:     "none",
			OnExhausted: "fail",
		},
		Log: LogConfig{Level: "info", JSON: false},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9090",
		},
	}
}

// Load builds a Config by starting from Default, overlaying a YAML file (if
// path is non-empty), then overlaying recognized environment variables. Each
// layer only overrides fields it actually sets.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v, ok := os.LookupEnv("ECS_CONCURRENCY_LIMIT"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Concurrency.Limit = n
		}
	}
	if v, ok := os.LookupEnv("ECS_RETRY_MAX_ATTEMPTS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Retry.MaxAttempts = n
		}
	}
	if v, ok := os.LookupEnv("ECS_RETRY_BACKOFF"); ok {
		cfg.Retry.Backoff = v
	}
	if v, ok := os.LookupEnv("ECS_RETRY_BASE_DELAY"); ok {
		cfg.Retry.BaseDelay = v
	}
	if v, ok := os.LookupEnv("ECS_RETRY_ON_EXHAUSTED"); ok {
		cfg.Retry.OnExhausted = v
	}
	if v, ok := os.LookupEnv("ECS_LOG_LEVEL"); ok {
		cfg.Log.Level = v
	}
	if v, ok := os.LookupEnv("ECS_LOG_JSON"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Log.JSON = b
		}
	}
	if v, ok := os.LookupEnv("ECS_METRICS_ENABLED"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Metrics.Enabled = b
		}
	}
	if v, ok := os.LookupEnv("ECS_METRICS_ADDR"); ok {
		cfg.Metrics.Addr = v
	}
}
