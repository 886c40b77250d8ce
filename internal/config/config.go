// Package config assembles the application configuration from files,
// environment variables, and defaults.
package config

import (
	"fmt"
	"strings"

	"github.com/glyphtech/symscan/internal/pipeline"
)

// Config is the complete application configuration shared by the CLI
// commands and the server.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	// LogFormat is text or json.
	LogFormat string `mapstructure:"log_format" yaml:"log_format" json:"log_format"`

	Pipeline pipeline.Config `mapstructure:"pipeline" yaml:"pipeline" json:"pipeline"`
	Output   OutputConfig    `mapstructure:"output" yaml:"output" json:"output"`
	Server   ServerConfig    `mapstructure:"server" yaml:"server" json:"server"`
	Store    StoreConfig     `mapstructure:"store" yaml:"store" json:"store"`
}

// OutputConfig controls how results are rendered.
type OutputConfig struct {
	// Format is json, csv, or text.
	Format string `mapstructure:"format" yaml:"format" json:"format"`
	// File writes results there instead of stdout.
	File string `mapstructure:"file" yaml:"file" json:"file"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host" json:"host"`
	Port int    `mapstructure:"port" yaml:"port" json:"port"`
	// MaxUploadMB bounds multipart upload size.
	MaxUploadMB int `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	// TimeoutSec bounds request processing time.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	// RateLimit is requests per second per client; zero disables.
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit" json:"rate_limit"`
	// EnableCORS adds permissive CORS headers.
	EnableCORS bool `mapstructure:"enable_cors" yaml:"enable_cors" json:"enable_cors"`
}

// StoreConfig selects job persistence.
type StoreConfig struct {
	// Backend is memory or badger.
	Backend string `mapstructure:"backend" yaml:"backend" json:"backend"`
	// Dir is the badger data directory.
	Dir string `mapstructure:"dir" yaml:"dir" json:"dir"`
}

// DefaultConfig returns the full default configuration.
func DefaultConfig() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "text",
		Pipeline:  pipeline.DefaultConfig(),
		Output: OutputConfig{
			Format: "json",
		},
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			MaxUploadMB: 64,
			TimeoutSec:  300,
			RateLimit:   0,
			EnableCORS:  true,
		},
		Store: StoreConfig{
			Backend: "memory",
			Dir:     "data/jobs",
		},
	}
}

// Validate checks cross-field consistency.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	switch c.Output.Format {
	case "json", "csv", "text":
	default:
		return fmt.Errorf("invalid output format %q", c.Output.Format)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	switch c.Store.Backend {
	case "memory":
	case "badger":
		if c.Store.Dir == "" {
			return fmt.Errorf("store.dir is required for the badger backend")
		}
	default:
		return fmt.Errorf("invalid store backend %q", c.Store.Backend)
	}
	return c.Pipeline.Validate()
}
