// ABOUTME: Tests for configuration loading
// ABOUTME: Covers defaults, YAML parsing, ${VAR} expansion, env overlay, validation

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CAMPAIGN_OFFLINE", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, "gpt-4o-mini", cfg.Generator.Model)
	assert.Equal(t, 30*time.Second, cfg.Generator.Timeout)
	assert.True(t, cfg.Generator.Offline)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: ":9090"
store:
  backend: sqlite
  dsn: ":memory:"
generator:
  offline: true
  model: gpt-4o
  timeout: 45s
dedupe:
  ttl: 1m
  max_size: 50
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.HTTPAddr)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, "gpt-4o", cfg.Generator.Model)
	assert.Equal(t, 45*time.Second, cfg.Generator.Timeout)
	assert.Equal(t, time.Minute, cfg.Dedupe.TTL)
	assert.Equal(t, 50, cfg.Dedupe.MaxSize)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_API_KEY", "sk-expanded")
	path := writeConfig(t, `
generator:
  api_key: ${TEST_API_KEY}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-expanded", cfg.Generator.APIKey)
}

func TestLoad_EnvOverlayBeatsFile(t *testing.T) {
	t.Setenv("CAMPAIGN_HTTP_ADDR", ":7070")
	t.Setenv("CAMPAIGN_OFFLINE", "true")
	path := writeConfig(t, `
server:
  http_addr: ":9090"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.HTTPAddr)
}

func TestLoad_RequiresAPIKeyWhenOnline(t *testing.T) {
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_key")
}

func TestValidate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty http addr", func(c *Config) { c.Server.HTTPAddr = "" }},
		{"unknown backend", func(c *Config) { c.Store.Backend = "postgres" }},
		{"zero timeout", func(c *Config) { c.Generator.Timeout = 0 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Generator.Offline = true
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
