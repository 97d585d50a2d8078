// ABOUTME: Configuration loading and parsing for campaign-gateway
// ABOUTME: YAML files with ${VAR} expansion plus a CAMPAIGN_* environment overlay

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config represents the complete campaign-gateway configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Generator GeneratorConfig `yaml:"generator"`
	Dedupe    DedupeConfig    `yaml:"dedupe"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr" env:"CAMPAIGN_HTTP_ADDR"`
}

// StoreConfig selects and configures the session store backend.
type StoreConfig struct {
	// Backend is "memory" or "sqlite".
	Backend string `yaml:"backend" env:"CAMPAIGN_STORE_BACKEND"`
	// DSN applies to the sqlite backend; defaults to ":memory:".
	DSN string `yaml:"dsn" env:"CAMPAIGN_STORE_DSN"`
}

// GeneratorConfig configures the proposal-generation capability.
type GeneratorConfig struct {
	// Offline uses the deterministic built-in generator instead of OpenAI.
	Offline bool   `yaml:"offline" env:"CAMPAIGN_OFFLINE"`
	APIKey  string `yaml:"api_key" env:"OPENAI_API_KEY"`
	Model   string `yaml:"model" env:"CAMPAIGN_MODEL"`
	// Timeout is parsed from a duration string like "30s".
	Timeout        time.Duration `yaml:"-" env:"CAMPAIGN_TIMEOUT"`
	TimeoutRaw     string        `yaml:"timeout"`
	CompletionsURL string        `yaml:"completions_url" env:"CAMPAIGN_COMPLETIONS_URL"`
}

// DedupeConfig tunes the feedback idempotency cache.
type DedupeConfig struct {
	TTL     time.Duration `yaml:"-" env:"CAMPAIGN_DEDUPE_TTL"`
	TTLRaw  string        `yaml:"ttl"`
	MaxSize int           `yaml:"max_size" env:"CAMPAIGN_DEDUPE_MAX_SIZE"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"CAMPAIGN_LOG_LEVEL"`   // debug, info, warn, error
	Format string `yaml:"format" env:"CAMPAIGN_LOG_FORMAT"` // text or json
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Server:    ServerConfig{HTTPAddr: ":8080"},
		Store:     StoreConfig{Backend: "memory", DSN: ":memory:"},
		Generator: GeneratorConfig{Model: "gpt-4o-mini", Timeout: 30 * time.Second},
		Dedupe:    DedupeConfig{TTL: 5 * time.Minute, MaxSize: 10000},
		Logging:   LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads the config file at path (if path is non-empty), expands
// ${VAR_NAME} references, applies the environment overlay, and validates.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		expanded := expandEnvVars(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	// Environment beats the file.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with environment variable
// values; unset variables expand to the empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// parseDurations converts the raw duration strings from YAML.
func parseDurations(cfg *Config) error {
	if cfg.Generator.TimeoutRaw != "" {
		d, err := time.ParseDuration(cfg.Generator.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("generator.timeout: %w", err)
		}
		cfg.Generator.Timeout = d
	}
	if cfg.Dedupe.TTLRaw != "" {
		d, err := time.ParseDuration(cfg.Dedupe.TTLRaw)
		if err != nil {
			return fmt.Errorf("dedupe.ttl: %w", err)
		}
		cfg.Dedupe.TTL = d
	}
	return nil
}

// Validate checks that all required configuration fields are present and
// consistent, returning the first failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}
	switch c.Store.Backend {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("store.backend must be \"memory\" or \"sqlite\", got %q", c.Store.Backend)
	}
	if !c.Generator.Offline && c.Generator.APIKey == "" {
		return fmt.Errorf("generator.api_key is required unless generator.offline is set")
	}
	if c.Generator.Timeout <= 0 {
		return fmt.Errorf("generator.timeout must be positive")
	}
	if c.Dedupe.TTL <= 0 || c.Dedupe.MaxSize <= 0 {
		return fmt.Errorf("dedupe.ttl and dedupe.max_size must be positive")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be \"text\" or \"json\"")
	}
	return nil
}
