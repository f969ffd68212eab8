package app

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
)

// LogLevels and LogFormats list the accepted logger settings.
var (
	LogLevels  = []string{"debug", "info", "warn", "error"}
	LogFormats = []string{"text", "json"}
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	DocumentPath string // .hcl file or directory

	LogFormat string
	LogLevel  string

	// MetricsPort serves /health and /metrics. 0 is disabled.
	MetricsPort int
	// NotifyURL is a socket.io endpoint that receives invalidations.
	NotifyURL          string
	InsecureSkipVerify bool

	// ParseCacheSize bounds the parsed expression cache. 0 selects the
	// default.
	ParseCacheSize int
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if !slices.Contains(LogLevels, cfg.LogLevel) {
		return nil, fmt.Errorf("invalid log level %q: must be one of %v", cfg.LogLevel, LogLevels)
	}
	if !slices.Contains(LogFormats, cfg.LogFormat) {
		return nil, fmt.Errorf("invalid log format %q: must be one of %v", cfg.LogFormat, LogFormats)
	}
	if cfg.MetricsPort < 0 || cfg.MetricsPort > 65535 {
		return nil, fmt.Errorf("invalid metrics port %d", cfg.MetricsPort)
	}
	if cfg.ParseCacheSize < 0 {
		return nil, errors.New("parse cache size cannot be negative")
	}
	if cfg.NotifyURL != "" {
		u, err := url.Parse(cfg.NotifyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid notify URL: %w", err)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid notify URL %q: want scheme://host[/path]", cfg.NotifyURL)
		}
	}
	return &cfg, nil
}
