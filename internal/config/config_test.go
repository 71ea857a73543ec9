package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://places.googleapis.com/v1", cfg.Google.BaseURL)
	assert.InDelta(t, 0.5, cfg.Google.RequestsPerSec, 0.001)
	assert.Equal(t, 2000, cfg.Google.PageTokenDelayMS)
	assert.Equal(t, 60, cfg.Ingest.MaxResultsPerQuery)
	assert.Equal(t, 30, cfg.Ingest.CacheWindowDays)
	assert.Equal(t, 3, cfg.Ingest.EmptyPageLimit)
	assert.Equal(t, 10, cfg.Extract.MaxEmails)
	assert.Equal(t, 25, cfg.Extract.MaxTeamMembers)
	assert.Equal(t, 5, cfg.Stats.MinCohortSize)
	assert.Equal(t, 4, cfg.Scoring.MaxConcurrentLeads)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Anthropic.ExtractModel)
	assert.Equal(t, "claude-sonnet-4-5-20250929", cfg.Anthropic.ScoreModel)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  database_url: postgres://localhost/leadgen
log:
  level: debug
  format: console
server:
  port: 9090
ingest:
  max_results_per_query: 40
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/leadgen", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 40, cfg.Ingest.MaxResultsPerQuery)
	// Defaults still apply for unset values
	assert.Equal(t, 30, cfg.Ingest.CacheWindowDays)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("LEADGEN_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestValidateIngest(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate("ingest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")
	assert.Contains(t, err.Error(), "google.key is required")

	cfg.Store.DatabaseURL = "postgres://localhost/leadgen"
	cfg.Google.Key = "places-key"
	assert.NoError(t, cfg.Validate("ingest"))
}

func TestValidateScore(t *testing.T) {
	cfg := &Config{}
	cfg.Store.DatabaseURL = "postgres://localhost/leadgen"

	err := cfg.Validate("score")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic.key is required")

	cfg.Anthropic.Key = "sk-ant-key"
	assert.NoError(t, cfg.Validate("score"))
}

func TestValidateServe(t *testing.T) {
	cfg := &Config{}
	cfg.Store.DatabaseURL = "postgres://localhost/leadgen"

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")

	cfg.Server.Port = 8080
	assert.NoError(t, cfg.Validate("serve"))
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
