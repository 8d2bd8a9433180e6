// Package daemon manages the tasklane daemon lifecycle and configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all daemon configuration.
type Config struct {
	Node      NodeConfig      `toml:"node"`
	API       APIConfig       `toml:"api"`
	Lanes     LanesConfig     `toml:"lanes"`
	Logging   LoggingConfig   `toml:"logging"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

// NodeConfig identifies this node.
type NodeConfig struct {
	ID string `toml:"id"`
}

// APIConfig controls the admin HTTP server.
type APIConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LanesConfig controls the default lane policy applied to every tenant's
// lazily-created lanes, plus the cron sweep cadence.
type LanesConfig struct {
	MaxQueueDepth       int    `toml:"max_queue_depth"`
	MaxConcurrency      int    `toml:"max_concurrency"`
	BackpressureTimeout string `toml:"backpressure_timeout"`
	DedupWindow         string `toml:"dedup_window"`
	CronSweepInterval   string `toml:"cron_sweep_interval"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// TelemetryConfig controls observability.
type TelemetryConfig struct {
	Prometheus   bool `toml:"prometheus"`
	HealthChecks bool `toml:"health_checks"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Node: NodeConfig{},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8700,
		},
		Lanes: LanesConfig{
			MaxQueueDepth:       500,
			MaxConcurrency:      100,
			BackpressureTimeout: "30s",
			DedupWindow:         "24h",
			CronSweepInterval:   "1s",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join(tasklaneHome(), "tasklane.log"),
		},
		Telemetry: TelemetryConfig{
			Prometheus:   false,
			HealthChecks: true,
		},
	}
}

// LoadConfig reads config from ~/.tasklane/config.toml, falling back to
// defaults if no file exists.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(tasklaneHome(), "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes the config to ~/.tasklane/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(tasklaneHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// BackpressureTimeoutDuration parses the configured backpressure timeout,
// falling back to 30s on a malformed value.
func (c LanesConfig) BackpressureTimeoutDuration() time.Duration {
	return parseDuration(c.BackpressureTimeout, 30*time.Second)
}

// DedupWindowDuration parses the configured dedup window, falling back to
// 24h on a malformed value.
func (c LanesConfig) DedupWindowDuration() time.Duration {
	return parseDuration(c.DedupWindow, 24*time.Hour)
}

// CronSweepIntervalDuration parses the configured sweep cadence, falling
// back to 1s on a malformed value.
func (c LanesConfig) CronSweepIntervalDuration() time.Duration {
	return parseDuration(c.CronSweepInterval, time.Second)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// tasklaneHome returns the tasklane data directory.
func tasklaneHome() string {
	if env := os.Getenv("TASKLANE_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".tasklane")
}

// TasklaneHome is exported for use by other packages.
func TasklaneHome() string {
	return tasklaneHome()
}
