// Package config provides configuration management for the hero page server.
//
// Config file locations (priority order):
//  1. $HERO_CONFIG
//  2. ./hero.yaml
//  3. $XDG_CONFIG_HOME/hero/config.yaml
//  4. ~/.config/hero/config.yaml
//  5. /etc/hero/config.yaml
//
// Missing fields fall back to DefaultConfig values.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		// No config found - return defaults
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, path, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":3000"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = Duration(10 * time.Second)
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = Duration(30 * time.Second)
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = Duration(60 * time.Second)
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = Duration(10 * time.Second)
	}

	if c.Database.Path == "" {
		c.Database.Path = "./hero.db"
	}

	if c.Images.Dir == "" {
		c.Images.Dir = "./images"
	}
	if c.Images.URLPrefix == "" {
		c.Images.URLPrefix = "/images"
	}
	if c.Images.MaxWidth == 0 {
		c.Images.MaxWidth = 750
	}

	if c.Sessions.IdleTimeout == 0 {
		c.Sessions.IdleTimeout = Duration(30 * time.Minute)
	}
	if c.Sessions.SweepInterval == 0 {
		c.Sessions.SweepInterval = Duration(time.Minute)
	}
	if c.Sessions.MaxSessions == 0 {
		c.Sessions.MaxSessions = 10000
	}
	if c.Sessions.ReconnectGrace == 0 {
		c.Sessions.ReconnectGrace = Duration(10 * time.Second)
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// Validate rejects values the server cannot run with
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	if c.Images.MaxWidth < 0 {
		return fmt.Errorf("images.max_width must not be negative")
	}
	if c.Sessions.MaxSessions < 0 {
		return fmt.Errorf("sessions.max_sessions must not be negative")
	}
	if c.Sessions.IdleTimeout.Duration() < 0 || c.Sessions.SweepInterval.Duration() < 0 ||
		c.Sessions.ReconnectGrace.Duration() < 0 {
		return fmt.Errorf("session durations must not be negative")
	}
	return nil
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	summary := fmt.Sprintf("Listen: %s, Database: %s\n", c.Server.Addr, c.Database.Path)
	source := c.Images.Dir
	if c.Images.Manifest != "" {
		source = c.Images.Manifest
	}
	summary += fmt.Sprintf("Images: %s (served at %s, max width %d, watch %v)\n",
		source, c.Images.URLPrefix, c.Images.MaxWidth, c.Images.Watch)
	summary += fmt.Sprintf("Sessions: idle %s, reconnect grace %s, max %d",
		c.Sessions.IdleTimeout.Duration(), c.Sessions.ReconnectGrace.Duration(), c.Sessions.MaxSessions)
	return summary
}
