// Package config loads the environment-driven process configuration.
package config

import (
	"os"
	"strconv"

	"github.com/bnema/gordon/pkg/logger"
)

// Config holds the process's startup configuration.
type Config struct {
	Port               int
	MaxCallsPerSecond  int
	PathFile           string
	SSLDir             string
	PathsDir           string
	ResponsesDir       string
	AutocertDomainsCSV string // optional, enables the autocert fallback
}

const (
	defaultPort              = 443
	defaultMaxCallsPerSecond = 1000
	defaultPathFile          = "paths.json"
	defaultSSLDir            = "./ssl"
	defaultPathsDir          = "./paths"
	defaultResponsesDir      = "./responses"
)

// Load reads the configuration from the environment, falling back to
// defaults for missing or malformed values.
func Load() Config {
	cfg := Config{
		Port:               intEnv("PROXY_PORT", defaultPort),
		MaxCallsPerSecond:  intEnv("PROXY_MAX_CALLS_PER_SECOND", defaultMaxCallsPerSecond),
		PathFile:           strEnv("PATH_FILE", defaultPathFile),
		SSLDir:             strEnv("PROXY_SSL_DIR", defaultSSLDir),
		PathsDir:           strEnv("PROXY_PATHS_DIR", defaultPathsDir),
		ResponsesDir:       strEnv("PROXY_RESPONSES_DIR", defaultResponsesDir),
		AutocertDomainsCSV: strEnv("PROXY_AUTOCERT_DOMAINS", ""),
	}

	logger.Debug("configuration loaded",
		"port", cfg.Port,
		"max_calls_per_second", cfg.MaxCallsPerSecond,
		"path_file", cfg.PathFile)

	return cfg
}

func strEnv(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func intEnv(name string, def int) int {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Warn("invalid integer env var, using default", "name", name, "value", v, "default", def)
		return def
	}
	return n
}
