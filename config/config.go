// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Oracle providers.
const (
	ProviderGemini = "gemini"
	ProviderRemote = "remote"
	ProviderReplay = "replay"
)

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Oracle    OracleConfig    `yaml:"oracle"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	OpenAPI   OpenAPIConfig   `yaml:"openapi"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	RetryAfter     time.Duration `yaml:"retry_after"` // Hint sent with 503 responses
}

// OracleConfig configures the language model oracle.
// Use "gemini", "remote" to POST prompts to an HTTP service, or "replay"
// to answer every prompt with the contents of a file.
type OracleConfig struct {
	Provider    string            `yaml:"provider"`
	APIKey      string            `yaml:"api_key,omitempty"`
	Model       string            `yaml:"model,omitempty"`
	Temperature *float32          `yaml:"temperature,omitempty"`
	Timeout     time.Duration     `yaml:"timeout"`
	URL         string            `yaml:"url,omitempty"`  // Remote base URL or Gemini endpoint override
	Path        string            `yaml:"path,omitempty"` // Remote completion path
	File        string            `yaml:"file,omitempty"` // Replay file
	Headers     map[string]string `yaml:"headers,omitempty"`
}

// AnalyticsConfig configures the generation journal.
type AnalyticsConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Path           string        `yaml:"path"`
	BatchSize      int           `yaml:"batch_size"`
	FlushInterval  time.Duration `yaml:"flush_interval"`
	BufferSize     int           `yaml:"buffer_size"`
	FingerprintKey string        `yaml:"fingerprint_key,omitempty"` // Keys the description hash
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string     `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string     `yaml:"format"` // "json" or "console"
	File   FileConfig `yaml:"file"`
}

// FileConfig configures an optional rotating log file.
type FileConfig struct {
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"` // Enable /metrics endpoint
}

// OpenAPIConfig configures OpenAPI/Swagger documentation.
type OpenAPIConfig struct {
	Enabled bool `yaml:"enabled"` // Enable OpenAPI endpoints
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse builds configuration from YAML bytes.
func Parse(data []byte) (*Config, error) {
	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	cfg := Config{
		Analytics: AnalyticsConfig{Enabled: true},
		Metrics:   MetricsConfig{Enabled: true},
		OpenAPI:   OpenAPIConfig{Enabled: true},
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables.
//
// Environment variables:
//
//	WORLDGEN_SERVER_HOST          - Server host (default: 0.0.0.0)
//	WORLDGEN_SERVER_PORT          - Server port (default: 5000)
//	WORLDGEN_ORACLE_PROVIDER      - gemini, remote or replay (default: gemini)
//	WORLDGEN_ORACLE_MODEL         - Model name (default: gemini-1.5-flash)
//	WORLDGEN_ORACLE_TIMEOUT       - Oracle deadline (default: 30s)
//	WORLDGEN_ORACLE_URL           - Remote oracle URL
//	WORLDGEN_ORACLE_FILE          - Replay file
//	WORLDGEN_ORACLE_API_KEY       - Oracle key (also API_KEY or GEMINI_API_KEY)
//	WORLDGEN_ANALYTICS_ENABLED    - Keep a generation journal (default: true)
//	WORLDGEN_ANALYTICS_PATH       - Journal database (default: worldgen.db)
//	WORLDGEN_LOG_LEVEL            - debug, info, warn, error (default: info)
//	WORLDGEN_LOG_FORMAT           - json or console (default: json)
//	WORLDGEN_LOG_FILE             - Rotating log file (default: none)
//	WORLDGEN_METRICS_ENABLED      - Enable /metrics endpoint (default: true)
//	WORLDGEN_OPENAPI_ENABLED      - Enable OpenAPI/Swagger (default: true)
func LoadFromEnv() (*Config, error) {
	return Parse(nil)
}

// LoadWithFallback tries to load from file, falls back to environment variables.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

// applyEnvOverrides applies WORLDGEN_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	// Server configuration
	if v := os.Getenv("WORLDGEN_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("WORLDGEN_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("WORLDGEN_SERVER_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.RequestTimeout = d
		}
	}

	// Oracle configuration. The bare API_KEY and GEMINI_API_KEY names
	// match the usual .env convention and lose to the prefixed one.
	for _, name := range []string{"API_KEY", "GEMINI_API_KEY", "WORLDGEN_ORACLE_API_KEY"} {
		if v := os.Getenv(name); v != "" {
			cfg.Oracle.APIKey = v
		}
	}
	if v := os.Getenv("WORLDGEN_ORACLE_PROVIDER"); v != "" {
		cfg.Oracle.Provider = v
	}
	if v := os.Getenv("WORLDGEN_ORACLE_MODEL"); v != "" {
		cfg.Oracle.Model = v
	}
	if v := os.Getenv("WORLDGEN_ORACLE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Oracle.Timeout = d
		}
	}
	if v := os.Getenv("WORLDGEN_ORACLE_URL"); v != "" {
		cfg.Oracle.URL = v
	}
	if v := os.Getenv("WORLDGEN_ORACLE_FILE"); v != "" {
		cfg.Oracle.File = v
	}

	// Analytics configuration
	if v := os.Getenv("WORLDGEN_ANALYTICS_ENABLED"); v != "" {
		cfg.Analytics.Enabled = parseBool(v)
	}
	if v := os.Getenv("WORLDGEN_ANALYTICS_PATH"); v != "" {
		cfg.Analytics.Path = v
	}

	// Logging configuration
	if v := os.Getenv("WORLDGEN_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("WORLDGEN_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("WORLDGEN_LOG_FILE"); v != "" {
		cfg.Logging.File.Path = v
	}

	if v := os.Getenv("WORLDGEN_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("WORLDGEN_OPENAPI_ENABLED"); v != "" {
		cfg.OpenAPI.Enabled = parseBool(v)
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 90 * time.Second
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 60 * time.Second
	}
	if cfg.Server.RetryAfter == 0 {
		cfg.Server.RetryAfter = 5 * time.Second
	}

	if cfg.Oracle.Provider == "" {
		cfg.Oracle.Provider = ProviderGemini
	}
	if cfg.Oracle.Model == "" && cfg.Oracle.Provider == ProviderGemini {
		cfg.Oracle.Model = "gemini-1.5-flash"
	}
	if cfg.Oracle.Timeout == 0 {
		cfg.Oracle.Timeout = 30 * time.Second
	}
	if cfg.Oracle.Path == "" && cfg.Oracle.Provider == ProviderRemote {
		cfg.Oracle.Path = "/complete"
	}

	if cfg.Analytics.Path == "" {
		cfg.Analytics.Path = "worldgen.db"
	}
	if cfg.Analytics.BatchSize == 0 {
		cfg.Analytics.BatchSize = 100
	}
	if cfg.Analytics.FlushInterval == 0 {
		cfg.Analytics.FlushInterval = 10 * time.Second
	}
	if cfg.Analytics.BufferSize == 0 {
		cfg.Analytics.BufferSize = 1000
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.File.Path != "" {
		if cfg.Logging.File.MaxSizeMB == 0 {
			cfg.Logging.File.MaxSizeMB = 100
		}
		if cfg.Logging.File.MaxBackups == 0 {
			cfg.Logging.File.MaxBackups = 3
		}
		if cfg.Logging.File.MaxAgeDays == 0 {
			cfg.Logging.File.MaxAgeDays = 28
		}
	}
}

// Validate checks a configuration with defaults applied. The oracle key is
// not required here: commands that never call the oracle still load config.
func Validate(cfg *Config) error {
	switch cfg.Oracle.Provider {
	case ProviderGemini:
	case ProviderRemote:
		if cfg.Oracle.URL == "" {
			return fmt.Errorf("oracle.url is required when oracle.provider is 'remote'")
		}
	case ProviderReplay:
		if cfg.Oracle.File == "" {
			return fmt.Errorf("oracle.file is required when oracle.provider is 'replay'")
		}
	default:
		return fmt.Errorf("oracle.provider must be one of: gemini, remote, replay, got %q", cfg.Oracle.Provider)
	}
	if cfg.Oracle.Timeout < 0 {
		return fmt.Errorf("oracle.timeout must not be negative")
	}
	if t := cfg.Oracle.Temperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("oracle.temperature must be in [0, 2], got %v", *t)
	}

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [0, 65535], got %d", cfg.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error, got %q", cfg.Logging.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	if cfg.Analytics.BatchSize < 0 || cfg.Analytics.BufferSize < 0 {
		return fmt.Errorf("analytics.batch_size and analytics.buffer_size must not be negative")
	}

	return nil
}
