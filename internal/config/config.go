package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Load reads configuration from standard locations with environment overrides.
// Search order: ~/.flipbookrc, $XDG_CONFIG_HOME/flipbook/config.toml, ~/.config/flipbook/config.toml
func Load() (*Config, error) {
	cfg := Default()

	// Try loading from file
	path := findConfigFile()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	// Apply defaults, then environment variable overrides
	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)

	return cfg, nil
}

// LoadFrom reads configuration from a specific file path.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Path returns the config file Load would read, or the default location for
// a new one.
func Path() string {
	if p := findConfigFile(); p != "" {
		return p
	}
	return DefaultPath()
}

// DefaultPath returns where a new config file is created.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".flipbookrc"
	}
	return filepath.Join(home, ".flipbookrc")
}

// findConfigFile returns the first existing config file path.
func findConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	paths := []string{
		filepath.Join(home, ".flipbookrc"),
	}

	// XDG_CONFIG_HOME or default
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	paths = append(paths, filepath.Join(xdgConfig, "flipbook", "config.toml"))

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	// Source
	if v := os.Getenv("FLIPBOOK_SOURCE_URL"); v != "" {
		cfg.Source.URL = v
	}
	if v := os.Getenv("FLIPBOOK_SOURCE_EXTENSION"); v != "" {
		cfg.Source.Extension = v
	}
	if v := os.Getenv("FLIPBOOK_SOURCE_FRAMES"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Source.Frames = i
		}
	}
	if v := os.Getenv("FLIPBOOK_SOURCE_FRAME_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Source.FrameRate = f
		}
	}
	if v := os.Getenv("FLIPBOOK_SOURCE_TIMEOUT"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Source.Timeout = i
		}
	}

	// Server
	if v := os.Getenv("FLIPBOOK_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("FLIPBOOK_SERVER_DIR"); v != "" {
		cfg.Server.Dir = v
	}

	// TUI
	if v := os.Getenv("FLIPBOOK_TUI_THEME"); v != "" {
		cfg.TUI.Theme = v
	}
	if v := os.Getenv("FLIPBOOK_TUI_REFRESH_INTERVAL"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.TUI.RefreshInterval = i
		}
	}

	// Log
	if v := os.Getenv("FLIPBOOK_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("FLIPBOOK_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
}
