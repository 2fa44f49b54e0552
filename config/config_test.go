package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/extensivelabs/ecs"
)

func TestDefaultConfigPolicyConvertsCleanly(t *testing.T) {
	cfg := Default()
	policy, err := cfg.Retry.Policy()
	require.NoError(t, err)
	require.Equal(t, 1, policy.MaxAttempts)
	require.Equal(t, ecs.OnExhaustedFail, policy.OnExhausted)
}

func TestLoadOverlaysYAMLOverDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := []byte(`
concurrency:
  limit: 4
retry:
  max_attempts: 3
  backoff: exponential
  base_delay: 10ms
  on_exhausted: skip
log:
  level: debug
  json: true
metrics:
  enabled: false
  addr: ":9999"
`)
	require.NoError(t, os.WriteFile(path, contents, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 4, cfg.Concurrency.Limit)
	require.Equal(t, "debug", cfg.Log.Level)
	require.True(t, cfg.Log.JSON)
	require.False(t, cfg.Metrics.Enabled)
	require.Equal(t, ":9999", cfg.Metrics.Addr)

	policy, err := cfg.Retry.Policy()
	require.NoError(t, err)
	require.Equal(t, 3, policy.MaxAttempts)
	require.Equal(t, ecs.BackoffExponential, policy.Backoff)
	require.Equal(t, ecs.OnExhaustedSkip, policy.OnExhausted)
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: info\n"), 0o644))

	t.Setenv("ECS_LOG_LEVEL", "warn")
	t.Setenv("ECS_CONCURRENCY_LIMIT", "8")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "warn", cfg.Log.Level, "expected env override to win")
	require.Equal(t, 8, cfg.Concurrency.Limit, "expected env override for concurrency limit")
}

func TestRetryConfigRejectsUnknownBackoff(t *testing.T) {
	cfg := RetryConfig{Backoff: "bogus"}
	_, err := cfg.Policy()
	require.Error(t, err, "expected an error for an unrecognized backoff kind")
}
