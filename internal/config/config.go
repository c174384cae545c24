// Package config holds runtime configuration for the bridge process.
package config

import (
	"fmt"
	"time"

	"github.com/gyoshu/bridge/internal/consts"
)

// Config represents bridge configuration
type Config struct {
	// SocketPath is the filesystem path of the Unix socket to serve on
	SocketPath string `json:"socket_path"`

	// MaxRequestBytes caps a single NDJSON request line
	MaxRequestBytes int `json:"max_request_bytes"`

	// MaxCaptureBytes caps each of the stdout/stderr capture buffers
	MaxCaptureBytes int `json:"max_capture_bytes"`

	// DefaultTimeout is applied to execute requests without a usable timeout
	DefaultTimeout time.Duration `json:"default_timeout"`

	// LogLevel is one of debug, info, warn, error, none
	LogLevel string `json:"log_level"`

	// LogPath is the log file path; empty logs to stderr
	LogPath string `json:"-"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		MaxRequestBytes: consts.MaxRequestLineBytes,
		MaxCaptureBytes: consts.MaxCaptureBytes,
		DefaultTimeout:  consts.DefaultExecuteTimeout,
		LogLevel:        "info",
	}
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.SocketPath == "" {
		return fmt.Errorf("socket path is required")
	}
	if c.MaxRequestBytes <= 0 {
		return fmt.Errorf("max request bytes must be positive, got %d", c.MaxRequestBytes)
	}
	if c.MaxCaptureBytes <= 0 {
		return fmt.Errorf("max capture bytes must be positive, got %d", c.MaxCaptureBytes)
	}
	if c.DefaultTimeout <= 0 {
		return fmt.Errorf("default timeout must be positive, got %s", c.DefaultTimeout)
	}
	return nil
}
