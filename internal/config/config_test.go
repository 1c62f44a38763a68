package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadUsesDefaultsWhenUnset(t *testing.T) {
	cfg := Load()
	assert.Equal(t, defaultPort, cfg.Port)
	assert.Equal(t, defaultMaxCallsPerSecond, cfg.MaxCallsPerSecond)
	assert.Equal(t, defaultPathFile, cfg.PathFile)
	assert.Equal(t, defaultSSLDir, cfg.SSLDir)
	assert.Equal(t, defaultPathsDir, cfg.PathsDir)
	assert.Equal(t, defaultResponsesDir, cfg.ResponsesDir)
	assert.Empty(t, cfg.AutocertDomainsCSV)
}

func TestLoadReadsEnvOverrides(t *testing.T) {
	t.Setenv("PROXY_PORT", "8443")
	t.Setenv("PROXY_MAX_CALLS_PER_SECOND", "50")
	t.Setenv("PATH_FILE", "custom.json")
	t.Setenv("PROXY_SSL_DIR", "/etc/proxy/ssl")
	t.Setenv("PROXY_PATHS_DIR", "/etc/proxy/paths")
	t.Setenv("PROXY_RESPONSES_DIR", "/etc/proxy/responses")
	t.Setenv("PROXY_AUTOCERT_DOMAINS", "a.example.com,b.example.com")

	cfg := Load()
	assert.Equal(t, 8443, cfg.Port)
	assert.Equal(t, 50, cfg.MaxCallsPerSecond)
	assert.Equal(t, "custom.json", cfg.PathFile)
	assert.Equal(t, "/etc/proxy/ssl", cfg.SSLDir)
	assert.Equal(t, "/etc/proxy/paths", cfg.PathsDir)
	assert.Equal(t, "/etc/proxy/responses", cfg.ResponsesDir)
	assert.Equal(t, "a.example.com,b.example.com", cfg.AutocertDomainsCSV)
}

func TestIntEnvFallsBackOnMalformedValue(t *testing.T) {
	t.Setenv("PROXY_PORT", "not-a-number")
	cfg := Load()
	assert.Equal(t, defaultPort, cfg.Port)
}

func TestIntEnvFallsBackOnEmptyValue(t *testing.T) {
	t.Setenv("PROXY_MAX_CALLS_PER_SECOND", "")
	cfg := Load()
	assert.Equal(t, defaultMaxCallsPerSecond, cfg.MaxCallsPerSecond)
}
