// Package config loads dialogue settings from YAML, .env and the environment
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when none is given
const DefaultPath = "dialogue.yaml"

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Engine      EngineConfig      `yaml:"engine"`
	Enhancement EnhancementConfig `yaml:"enhancement"`
	Cache       CacheConfig       `yaml:"cache"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Addr returns host:port
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig locates the scenario library. An empty path means the
// default location picked by db.DefaultDBPath.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// EngineConfig holds response engine defaults
type EngineConfig struct {
	DefaultContext string `yaml:"default_context"`
	DefaultVariant string `yaml:"default_variant"`
	// RegistryDir overrides the embedded profile data file by file
	RegistryDir string `yaml:"registry_dir"`
}

// EnhancementConfig configures the optional local language model
type EnhancementConfig struct {
	Enabled     bool    `yaml:"enabled"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	TimeoutMS   int     `yaml:"timeout_ms"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// Timeout returns the enhancement deadline
func (c EnhancementConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// CacheConfig sizes in-memory caches
type CacheConfig struct {
	DerivedMetricsSize int `yaml:"derived_metrics_size"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ZapLevel parses the configured level, falling back to info
func (c LoggingConfig) ZapLevel() zapcore.Level {
	lvl, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// Default returns the configuration used when no file is present
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// Load reads a YAML config file and fills in defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// A .env file in the working directory is read first if present. An empty
// path uses DefaultPath when it exists and the defaults otherwise.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg *Config
	var err error
	switch {
	case path != "":
		cfg, err = Load(path)
	case fileExists(DefaultPath):
		cfg, err = Load(DefaultPath)
	default:
		cfg = Default()
	}
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("DIALOGUE_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("DIALOGUE_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid DIALOGUE_PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("DIALOGUE_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("DIALOGUE_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("DIALOGUE_REGISTRY_DIR"); v != "" {
		cfg.Engine.RegistryDir = v
	}
	if v := os.Getenv("DIALOGUE_DEFAULT_CONTEXT"); v != "" {
		cfg.Engine.DefaultContext = v
	}
	if v := os.Getenv("DIALOGUE_DEFAULT_VARIANT"); v != "" {
		cfg.Engine.DefaultVariant = v
	}
	if v := os.Getenv("DIALOGUE_ENHANCE"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid DIALOGUE_ENHANCE %q: %w", v, err)
		}
		cfg.Enhancement.Enabled = enabled
	}
	if v := os.Getenv("DIALOGUE_OLLAMA_URL"); v != "" {
		cfg.Enhancement.BaseURL = v
	}
	if v := os.Getenv("DIALOGUE_OLLAMA_MODEL"); v != "" {
		cfg.Enhancement.Model = v
	}
	if v := os.Getenv("DIALOGUE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges that defaults cannot repair
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Enhancement.Temperature < 0 || c.Enhancement.Temperature > 2 {
		return fmt.Errorf("enhancement.temperature %.2f out of range [0, 2]", c.Enhancement.Temperature)
	}
	if c.Cache.DerivedMetricsSize < 0 {
		return fmt.Errorf("cache.derived_metrics_size must not be negative")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Host == "" {
		c.Server.Host = "localhost"
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}
	if c.Engine.DefaultContext == "" {
		c.Engine.DefaultContext = "emerging"
	}
	if c.Engine.DefaultVariant == "" {
		c.Engine.DefaultVariant = "pragmatic"
	}
	if c.Enhancement.BaseURL == "" {
		c.Enhancement.BaseURL = "http://localhost:11434/api"
	}
	if c.Enhancement.Model == "" {
		c.Enhancement.Model = "gemma2:2b"
	}
	if c.Enhancement.TimeoutMS == 0 {
		c.Enhancement.TimeoutMS = 3000
	}
	if c.Enhancement.Temperature == 0 {
		c.Enhancement.Temperature = 0.7
	}
	if c.Enhancement.MaxTokens == 0 {
		c.Enhancement.MaxTokens = 400
	}
	if c.Cache.DerivedMetricsSize == 0 {
		c.Cache.DerivedMetricsSize = 128
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
