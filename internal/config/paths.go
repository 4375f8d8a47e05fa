package config

import (
	"os"
	"path/filepath"
)

const (
	// EnvConfigPath names an explicit config file
	EnvConfigPath = "HERO_CONFIG"
	// ConfigFileName is looked up in the working directory
	ConfigFileName = "hero.yaml"
	// ConfigDirName is the directory under XDG and /etc
	ConfigDirName = "hero"
)

// SearchPaths lists the config locations in priority order:
// $HERO_CONFIG, ./hero.yaml, $XDG_CONFIG_HOME/hero/config.yaml,
// ~/.config/hero/config.yaml, /etc/hero/config.yaml
func SearchPaths() []string {
	var paths []string
	if p := os.Getenv(EnvConfigPath); p != "" {
		paths = append(paths, p)
	}
	if abs, err := filepath.Abs(ConfigFileName); err == nil {
		paths = append(paths, abs)
	} else {
		paths = append(paths, ConfigFileName)
	}
	paths = append(paths, userConfigPaths()...)
	return append(paths, filepath.Join("/etc", ConfigDirName, "config.yaml"))
}

func userConfigPaths() []string {
	var paths []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, ConfigDirName, "config.yaml"))
	}
	if home := os.Getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".config", ConfigDirName, "config.yaml"))
	}
	return paths
}

// FindConfigPath returns the first existing file of SearchPaths, or ""
func FindConfigPath() string {
	for _, p := range SearchPaths() {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// DefaultConfigPath is where a new config file is written: the user config
// dir when one is known, else the working directory
func DefaultConfigPath() string {
	if paths := userConfigPaths(); len(paths) > 0 {
		return paths[0]
	}
	return ConfigFileName
}

// EnsureConfigDir creates the directory holding configPath
func EnsureConfigDir(configPath string) error {
	return os.MkdirAll(filepath.Dir(configPath), 0o755)
}
