// Package config provides YAML configuration parsing for reportcast.
//
// This package enables running reportcast as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
// Every field can also be set (or overridden) through the environment,
// which is how containerized deployments typically configure the server.
//
// Example configuration:
//
//	title: Weekly Reports
//	host: 0.0.0.0
//	port: 8002
//	reports_dir: /var/lib/reportcast/reports
//	debug: false
//	shutdown_timeout: 10s
//
// Environment overrides (applied after the file is parsed):
//
//	REPORTCAST_TITLE, REPORTCAST_HOST, REPORTCAST_PORT,
//	REPORTCAST_REPORTS_DIR, REPORTCAST_DEBUG
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// Defaults applied by Load and Parse when a field is unset.
const (
	DefaultHost            = "127.0.0.1"
	DefaultPort            = 8002
	DefaultReportsDir      = "reports"
	DefaultShutdownTimeout = 10 * time.Second
)

// Config is the root configuration structure for reportcast.
//
// It maps directly to the YAML configuration file structure. Use [Load],
// [Parse] or [FromEnv] to create a Config.
type Config struct {
	// Title is the viewer page title. Defaults to "reportcast" if not set.
	Title string `yaml:"title" env:"REPORTCAST_TITLE"`

	// Host is the listen address. Defaults to 127.0.0.1.
	Host string `yaml:"host" env:"REPORTCAST_HOST"`

	// Port is the HTTP server port. Defaults to 8002.
	Port int `yaml:"port" env:"REPORTCAST_PORT"`

	// ReportsDir is the directory where report files are written.
	// Created on startup if missing. Defaults to "reports".
	ReportsDir string `yaml:"reports_dir" env:"REPORTCAST_REPORTS_DIR"`

	// Debug enables debug-level logging.
	Debug bool `yaml:"debug" env:"REPORTCAST_DEBUG"`

	// ShutdownTimeout is how long the CLI waits for in-flight streams to
	// drain on shutdown. Accepts duration strings like "10s", "1m".
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`

	// WatchInterval enables the reports directory watcher: files dropped
	// into the directory outside the API are announced to subscribers at
	// this cadence. Zero (the default) disables the watcher.
	WatchInterval Duration `yaml:"watch_interval"`
}

// Load reads, parses and validates a YAML config file, then applies
// environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML config bytes, applies environment overrides and
// defaults, and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromEnv builds a config from defaults and environment variables alone,
// for running without a config file.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.ReportsDir == "" {
		return errors.New("reports_dir must not be empty")
	}
	if c.ShutdownTimeout.Duration() < 0 {
		return errors.New("shutdown_timeout must not be negative")
	}
	if c.WatchInterval.Duration() < 0 {
		return errors.New("watch_interval must not be negative")
	}
	return nil
}

// applyEnv overlays environment variables onto the config.
func (c *Config) applyEnv() error {
	if err := envconfig.Process(context.Background(), c); err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}
	return nil
}

// applyDefaults fills unset fields.
func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.ReportsDir == "" {
		c.ReportsDir = DefaultReportsDir
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = Duration(DefaultShutdownTimeout)
	}
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
