// Copyright 2025 Mediaforge Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads and validates mediaforge configuration from YAML
// files and environment variables. Environment variables take precedence
// over file-based configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	mferrors "github.com/mediaforge/mediaforge/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when configuration validation fails.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config represents the complete mediaforge configuration.
type Config struct {
	Log    LogConfig    `yaml:"log"`
	Daemon DaemonConfig `yaml:"daemon"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	// Level sets the minimum log level (debug, info, warn, error).
	// Environment: LOG_LEVEL
	// Default: info
	Level string `yaml:"level"`

	// Format sets the output format (json, text).
	// Environment: LOG_FORMAT
	// Default: json
	Format string `yaml:"format"`

	// AddSource adds source file and line information to logs.
	// Environment: LOG_SOURCE
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// DaemonConfig configures the mediaforged daemon.
type DaemonConfig struct {
	// SocketPath is the Unix socket path CLI clients connect to.
	// Environment: MEDIAFORGE_SOCKET
	// Default: XDG_RUNTIME_DIR/mediaforge/mediaforge.sock
	SocketPath string `yaml:"socket_path,omitempty"`

	// Listen configures the daemon's listener.
	Listen DaemonListenConfig `yaml:"listen,omitempty"`

	// PIDFile is the path to the PID file. Empty means no PID file.
	// Environment: MEDIAFORGE_PID_FILE
	PIDFile string `yaml:"pid_file,omitempty"`

	// MaxConcurrentRuns limits concurrent pipeline executions.
	// Environment: MEDIAFORGE_MAX_CONCURRENT_RUNS
	// Default: 4
	MaxConcurrentRuns int `yaml:"max_concurrent_runs,omitempty"`

	// DefaultTimeout is the per-execution timeout for the pipeline.
	// Environment: MEDIAFORGE_DEFAULT_TIMEOUT
	// Default: 45m
	DefaultTimeout time.Duration `yaml:"default_timeout,omitempty"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Environment: MEDIAFORGE_SHUTDOWN_TIMEOUT
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout,omitempty"`

	// DrainTimeout is how long shutdown waits for active executions to
	// finish after the daemon stops accepting new work.
	// Environment: MEDIAFORGE_DRAIN_TIMEOUT
	// Default: 30s
	DrainTimeout time.Duration `yaml:"drain_timeout,omitempty"`

	// Scheduler configures the daily production schedule.
	Scheduler SchedulerConfig `yaml:"scheduler,omitempty"`
}

// DaemonListenConfig configures how the daemon listens for connections.
type DaemonListenConfig struct {
	// SocketPath is the Unix socket path (default).
	SocketPath string `yaml:"socket_path,omitempty"`

	// TCPAddr is an optional TCP address to listen on (e.g., "127.0.0.1:9841").
	TCPAddr string `yaml:"tcp_addr,omitempty"`

	// AllowRemote must be true to bind to non-localhost TCP addresses.
	AllowRemote bool `yaml:"allow_remote"`
}

// SchedulerConfig configures the cron scheduler.
type SchedulerConfig struct {
	// Enabled starts the scheduler automatically at daemon boot.
	// It can also be started and stopped at runtime via the API.
	Enabled bool `yaml:"enabled"`

	// Cron is the 5-field cron expression for scheduled productions.
	// Environment: MEDIAFORGE_SCHEDULE
	// Default: "0 6 * * *"
	Cron string `yaml:"cron,omitempty"`

	// Timezone is the IANA timezone name for cron evaluation.
	// Environment: MEDIAFORGE_TIMEZONE
	// Default: "Asia/Kolkata"
	Timezone string `yaml:"timezone,omitempty"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	socketPath := defaultSocketPath()

	return &Config{
		Log: LogConfig{
			Level:     "info",
			Format:    "json",
			AddSource: false,
		},
		Daemon: DaemonConfig{
			SocketPath: socketPath,
			Listen: DaemonListenConfig{
				SocketPath:  socketPath,
				AllowRemote: false,
			},
			PIDFile:           "",
			MaxConcurrentRuns: 4,
			DefaultTimeout:    45 * time.Minute,
			ShutdownTimeout:   30 * time.Second,
			DrainTimeout:      30 * time.Second,
			Scheduler: SchedulerConfig{
				Enabled:  false,
				Cron:     "0 6 * * *",
				Timezone: "Asia/Kolkata",
			},
		},
	}
}

// Load loads configuration from a YAML file and environment variables.
// If configPath is empty, only defaults and environment variables are used.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		if err := cfg.loadFromFile(configPath); err != nil {
			return nil, &mferrors.ConfigError{
				Key:    "config_file",
				Reason: fmt.Sprintf("failed to load from %s", configPath),
				Cause:  err,
			}
		}
	}

	cfg.applyDefaults()
	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, &mferrors.ConfigError{
			Key:    "validation",
			Reason: "configuration validation failed",
			Cause:  err,
		}
	}

	return cfg, nil
}

// applyDefaults fills in zero values with sensible defaults so minimal
// configs work without specifying every field.
func (c *Config) applyDefaults() {
	defaults := Default()

	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}

	if c.Daemon.SocketPath == "" {
		c.Daemon.SocketPath = defaults.Daemon.SocketPath
	}
	if c.Daemon.Listen.SocketPath == "" && c.Daemon.Listen.TCPAddr == "" {
		c.Daemon.Listen.SocketPath = defaults.Daemon.Listen.SocketPath
	}
	if c.Daemon.MaxConcurrentRuns == 0 {
		c.Daemon.MaxConcurrentRuns = defaults.Daemon.MaxConcurrentRuns
	}
	if c.Daemon.DefaultTimeout == 0 {
		c.Daemon.DefaultTimeout = defaults.Daemon.DefaultTimeout
	}
	if c.Daemon.ShutdownTimeout == 0 {
		c.Daemon.ShutdownTimeout = defaults.Daemon.ShutdownTimeout
	}
	if c.Daemon.DrainTimeout == 0 {
		c.Daemon.DrainTimeout = defaults.Daemon.DrainTimeout
	}
	if c.Daemon.Scheduler.Cron == "" {
		c.Daemon.Scheduler.Cron = defaults.Daemon.Scheduler.Cron
	}
	if c.Daemon.Scheduler.Timezone == "" {
		c.Daemon.Scheduler.Timezone = defaults.Daemon.Scheduler.Timezone
	}
}

// loadFromFile loads configuration from a YAML file.
func (c *Config) loadFromFile(path string) error {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

// loadFromEnv loads configuration from environment variables.
func (c *Config) loadFromEnv() {
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = strings.ToLower(val)
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = strings.ToLower(val)
	}
	if val := os.Getenv("LOG_SOURCE"); val != "" {
		c.Log.AddSource = val == "1" || strings.ToLower(val) == "true"
	}

	if val := os.Getenv("MEDIAFORGE_SOCKET"); val != "" {
		c.Daemon.SocketPath = val
	}
	if val := os.Getenv("MEDIAFORGE_LISTEN_SOCKET"); val != "" {
		c.Daemon.Listen.SocketPath = val
	}
	if val := os.Getenv("MEDIAFORGE_TCP_ADDR"); val != "" {
		c.Daemon.Listen.TCPAddr = val
	}
	if val := os.Getenv("MEDIAFORGE_PID_FILE"); val != "" {
		c.Daemon.PIDFile = val
	}
	if val := os.Getenv("MEDIAFORGE_MAX_CONCURRENT_RUNS"); val != "" {
		if runs, err := strconv.Atoi(val); err == nil {
			c.Daemon.MaxConcurrentRuns = runs
		}
	}
	if val := os.Getenv("MEDIAFORGE_DEFAULT_TIMEOUT"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			c.Daemon.DefaultTimeout = duration
		}
	}
	if val := os.Getenv("MEDIAFORGE_SHUTDOWN_TIMEOUT"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			c.Daemon.ShutdownTimeout = duration
		}
	}
	if val := os.Getenv("MEDIAFORGE_DRAIN_TIMEOUT"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			c.Daemon.DrainTimeout = duration
		}
	}
	if val := os.Getenv("MEDIAFORGE_SCHEDULER_ENABLED"); val != "" {
		c.Daemon.Scheduler.Enabled = val == "1" || strings.ToLower(val) == "true"
	}
	if val := os.Getenv("MEDIAFORGE_SCHEDULE"); val != "" {
		c.Daemon.Scheduler.Cron = val
	}
	if val := os.Getenv("MEDIAFORGE_TIMEZONE"); val != "" {
		c.Daemon.Scheduler.Timezone = val
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	var errs []string

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("log.level must be one of [debug, info, warn, warning, error], got %q", c.Log.Level))
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("log.format must be one of [json, text], got %q", c.Log.Format))
	}

	if c.Daemon.MaxConcurrentRuns < 1 {
		errs = append(errs, fmt.Sprintf("daemon.max_concurrent_runs must be at least 1, got %d", c.Daemon.MaxConcurrentRuns))
	}
	if c.Daemon.DefaultTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("daemon.default_timeout must be positive, got %v", c.Daemon.DefaultTimeout))
	}
	if c.Daemon.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("daemon.shutdown_timeout must be positive, got %v", c.Daemon.ShutdownTimeout))
	}
	if c.Daemon.DrainTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("daemon.drain_timeout must be positive, got %v", c.Daemon.DrainTimeout))
	}

	if c.Daemon.Listen.SocketPath == "" && c.Daemon.Listen.TCPAddr == "" {
		errs = append(errs, "daemon.listen must configure a socket_path or tcp_addr")
	}

	if _, err := time.LoadLocation(c.Daemon.Scheduler.Timezone); err != nil {
		errs = append(errs, fmt.Sprintf("daemon.scheduler.timezone %q is not a valid IANA timezone", c.Daemon.Scheduler.Timezone))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrInvalidConfig, strings.Join(errs, "\n  - "))
	}

	return nil
}

// defaultSocketPath returns the default Unix socket path.
func defaultSocketPath() string {
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return filepath.Join(runtimeDir, "mediaforge", "mediaforge.sock")
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "/tmp/mediaforge.sock"
	}

	return filepath.Join(homeDir, ".mediaforge", "mediaforge.sock")
}
