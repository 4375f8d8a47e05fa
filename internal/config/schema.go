package config

import (
	"time"
)

// Config is the root configuration structure
type Config struct {
	Version  int            `yaml:"version"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Images   ImagesConfig   `yaml:"images"`
	Sessions SessionsConfig `yaml:"sessions"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr        string   `yaml:"addr"`
	ReadTimeout Duration `yaml:"read_timeout"`
	// WriteTimeout is the deadline of every request except event streams
	WriteTimeout    Duration `yaml:"write_timeout"`
	IdleTimeout     Duration `yaml:"idle_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ImagesConfig describes where portrait variants come from
type ImagesConfig struct {
	Dir       string `yaml:"dir"`
	URLPrefix string `yaml:"url_prefix"`
	MaxWidth  int    `yaml:"max_width"`
	// Manifest, when set, is imported instead of scanning Dir
	Manifest string `yaml:"manifest,omitempty"`
	// Watch re-ingests Dir when files change
	Watch bool `yaml:"watch"`
}

// SessionsConfig bounds mounted Hero instances
type SessionsConfig struct {
	IdleTimeout   Duration `yaml:"idle_timeout"`
	SweepInterval Duration `yaml:"sweep_interval"`
	MaxSessions   int      `yaml:"max_sessions"`
	// ReconnectGrace keeps a session whose event stream dropped, so the
	// page can reconnect to it
	ReconnectGrace Duration `yaml:"reconnect_grace"`
}

// LogConfig selects the logger
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Disabled bool   `yaml:"disabled"`
	Path     string `yaml:"path"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
