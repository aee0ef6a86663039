package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Pipeline.MaxAttempts)
	assert.Equal(t, 200*time.Millisecond, cfg.Pipeline.Backoff)
	assert.Equal(t, 0.60, cfg.Scoring.Weights.Compliance)
	assert.Equal(t, 75.0, cfg.Scoring.Notify)
	assert.Equal(t, []string{"graph", "smtp", "telegram", "log"}, cfg.Notifications.Channels)
	assert.Equal(t, "sqlite3", cfg.Storage.Driver)
}

func TestLoadYAMLOverlaysDefaults(t *testing.T) {
	path := writeFile(t, "review.yaml", `
pipeline:
  maxAttempts: 1
  backoff: 50ms
scoring:
  thresholds:
    low: 95
    medium: 80
    mediumHigh: 65
notifications:
  recipients: [legal@example.org]
  channels: [smtp, log]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Pipeline.MaxAttempts)
	assert.Equal(t, 50*time.Millisecond, cfg.Pipeline.Backoff)
	assert.True(t, cfg.Pipeline.Notify, "keys absent from the file keep defaults")
	assert.Equal(t, 65.0, cfg.Scoring.Thresholds.MediumHigh)
	assert.Equal(t, 0.25, cfg.Scoring.Weights.Quality)
	assert.Equal(t, []string{"smtp", "log"}, cfg.Notifications.Channels)
	assert.Equal(t, []string{"legal@example.org"}, cfg.Notifications.Recipients)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "review.toml", `
[logging]
level = "debug"
json = true

[storage]
driver = "postgres"
dsn = "postgres://review@localhost/review"

[[scoring.adjustment.penalties]]
term = "breach"
weight = -12
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.JSON)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	require.Len(t, cfg.Scoring.Adjustment.Penalties, 1)
	assert.Equal(t, "breach", cfg.Scoring.Adjustment.Penalties[0].Term)
	assert.Equal(t, -12.0, cfg.Scoring.Adjustment.Penalties[0].Weight)
}

func TestLoadFromEnvPathAndSecrets(t *testing.T) {
	path := writeFile(t, "review.yml", "llm:\n  model: file-model\n")
	t.Setenv(configPathEnv, path)
	t.Setenv(llmModelEnv, "env-model")
	t.Setenv(llmAPIKeyEnv, "sk-test")
	t.Setenv(telegramTokenEnv, "123:abc")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "env-model", cfg.LLM.Model)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, "123:abc", cfg.Notifications.Telegram.BotToken)
}

func TestLoadErrors(t *testing.T) {
	t.Setenv(configPathEnv, "")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "review.json", "{}"))
	assert.ErrorContains(t, err, "unsupported format")

	_, err = Load(writeFile(t, "bad.yaml", "scoring:\n  weights:\n    compliance: 0.9\n"))
	assert.ErrorContains(t, err, "weights")

	_, err = Load(writeFile(t, "bad-thresholds.yaml", "scoring:\n  thresholds:\n    low: 50\n"))
	assert.ErrorContains(t, err, "descending")

	_, err = Load(writeFile(t, "bad-driver.yaml", "storage:\n  driver: mysql\n"))
	assert.ErrorContains(t, err, "storage driver")
}
