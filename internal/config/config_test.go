package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dialogue.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  host: "0.0.0.0"
  allowed_origins: ["https://planner.example.org"]

database:
  path: "/tmp/scenarios.db"

engine:
  default_context: "least-developed"
  default_variant: "conservative"

enhancement:
  enabled: true
  model: "llama3.2"
  timeout_ms: 1500

cache:
  derived_metrics_size: 16

logging:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "0.0.0.0:9090", cfg.Server.Addr())
	assert.Equal(t, []string{"https://planner.example.org"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "/tmp/scenarios.db", cfg.Database.Path)
	assert.Equal(t, "least-developed", cfg.Engine.DefaultContext)
	assert.Equal(t, "conservative", cfg.Engine.DefaultVariant)

	assert.True(t, cfg.Enhancement.Enabled)
	assert.Equal(t, "llama3.2", cfg.Enhancement.Model)
	assert.Equal(t, 1500*time.Millisecond, cfg.Enhancement.Timeout())
	// untouched fields still get defaults
	assert.Equal(t, "http://localhost:11434/api", cfg.Enhancement.BaseURL)
	assert.Equal(t, 400, cfg.Enhancement.MaxTokens)

	assert.Equal(t, 16, cfg.Cache.DerivedMetricsSize)
	assert.Equal(t, zapcore.DebugLevel, cfg.Logging.ZapLevel())
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server: {}\n"))
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, "emerging", cfg.Engine.DefaultContext)
	assert.Equal(t, "pragmatic", cfg.Engine.DefaultVariant)
	assert.False(t, cfg.Enhancement.Enabled)
	assert.Equal(t, "gemma2:2b", cfg.Enhancement.Model)
	assert.Equal(t, 3*time.Second, cfg.Enhancement.Timeout())
	assert.InDelta(t, 0.7, cfg.Enhancement.Temperature, 1e-9)
	assert.Equal(t, 128, cfg.Cache.DerivedMetricsSize)
	assert.Equal(t, zapcore.InfoLevel, cfg.Logging.ZapLevel())
}

func TestLoadFromEnv(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")

	t.Setenv("DIALOGUE_PORT", "7070")
	t.Setenv("DIALOGUE_DB_PATH", "/var/lib/dialogue/scenarios.db")
	t.Setenv("DIALOGUE_ENHANCE", "true")
	t.Setenv("DIALOGUE_OLLAMA_MODEL", "qwen2.5:3b")
	t.Setenv("DIALOGUE_ALLOWED_ORIGINS", "https://a.example.org, https://b.example.org,")
	t.Setenv("DIALOGUE_LOG_LEVEL", "warn")

	cfg, err := LoadFromEnv(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "/var/lib/dialogue/scenarios.db", cfg.Database.Path)
	assert.True(t, cfg.Enhancement.Enabled)
	assert.Equal(t, "qwen2.5:3b", cfg.Enhancement.Model)
	assert.Equal(t, []string{"https://a.example.org", "https://b.example.org"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, zapcore.WarnLevel, cfg.Logging.ZapLevel())
}

func TestLoadFromEnvInvalid(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")

	t.Setenv("DIALOGUE_PORT", "eighty")
	_, err := LoadFromEnv(path)
	assert.ErrorContains(t, err, "invalid DIALOGUE_PORT")

	t.Setenv("DIALOGUE_PORT", "70000")
	_, err = LoadFromEnv(path)
	assert.ErrorContains(t, err, "out of range")
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadRejectsBadValues(t *testing.T) {
	_, err := Load(writeConfig(t, "enhancement:\n  temperature: 3.5\n"))
	assert.ErrorContains(t, err, "enhancement.temperature")

	_, err = Load(writeConfig(t, "server: [not, a, map]\n"))
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestZapLevelFallback(t *testing.T) {
	assert.Equal(t, zapcore.InfoLevel, LoggingConfig{Level: "chatty"}.ZapLevel())
	assert.Equal(t, zapcore.ErrorLevel, LoggingConfig{Level: "error"}.ZapLevel())
}
