// Package config holds the dirsyncd configuration, loadable from an
// optional YAML file with command-line flags layered on top.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultInterval is the synchronization interval in seconds applied when
// none is configured.
const DefaultInterval = 60

// Config represents the complete dirsyncd configuration.
type Config struct {
	// Source is the authoritative directory; it is only ever read.
	Source string `yaml:"source"`

	// Replica is the directory kept identical to Source.
	Replica string `yaml:"replica"`

	// Interval is the number of seconds between synchronization cycles.
	Interval int `yaml:"interval"`

	Log LogConfig `yaml:"log"`
}

// LogConfig configures event rendering.
type LogConfig struct {
	// File is the log file path. The literal "LAST" appends to the most
	// recent generated log file; empty means a fresh timestamped file.
	File string `yaml:"file"`

	// Format is "text" or "json".
	Format string `yaml:"format"`

	// Level is "debug", "info", "warn" or "error".
	Level string `yaml:"level"`
}

// Load reads and parses a configuration file. Validation is deferred to
// the caller so flag overrides can be applied first.
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.expandEnv()
	return &cfg, nil
}

// expandEnv expands environment variables in all path fields.
func (c *Config) expandEnv() {
	c.Source = os.ExpandEnv(c.Source)
	c.Replica = os.ExpandEnv(c.Replica)
	c.Log.File = os.ExpandEnv(c.Log.File)
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Interval == 0 {
		c.Interval = DefaultInterval
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Source == "" {
		return fmt.Errorf("source is required")
	}
	if c.Replica == "" {
		return fmt.Errorf("replica is required")
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %d", c.Interval)
	}

	nested, err := overlap(c.Source, c.Replica)
	if err != nil {
		return err
	}
	if nested {
		return fmt.Errorf("source and replica must not overlap: %q vs %q", c.Source, c.Replica)
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Log.Format)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn or error)", c.Log.Level)
	}

	return nil
}

// IntervalDuration returns the configured interval as a time.Duration.
func (c *Config) IntervalDuration() time.Duration {
	return time.Duration(c.Interval) * time.Second
}

// overlap reports whether one path equals or contains the other. A replica
// nested inside the source would mirror itself into itself; a source nested
// inside the replica would get deleted as an extraneous replica entry.
func overlap(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, fmt.Errorf("failed to resolve path %q: %w", a, err)
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, fmt.Errorf("failed to resolve path %q: %w", b, err)
	}
	return contains(absA, absB) || contains(absB, absA), nil
}

func contains(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
