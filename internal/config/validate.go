package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Source.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("source: %w", err))
	}
	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("server: %w", err))
	}
	if err := c.TUI.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tui: %w", err))
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}

	return errors.Join(errs...)
}

// Validate checks SourceConfig for errors.
func (c *SourceConfig) Validate() error {
	var errs []error
	if c.URL != "" && strings.Contains(c.URL, "://") {
		if _, err := url.Parse(c.URL); err != nil {
			errs = append(errs, fmt.Errorf("invalid url: %w", err))
		}
	}
	if strings.ContainsAny(c.Extension, `/\`) {
		errs = append(errs, fmt.Errorf("invalid extension: %s", c.Extension))
	}
	if c.Frames < 0 {
		errs = append(errs, errors.New("frames must be non-negative"))
	}
	if c.FrameRate < 0 {
		errs = append(errs, errors.New("frame_rate must be non-negative"))
	}
	if c.Timeout < 0 {
		errs = append(errs, errors.New("timeout must be non-negative"))
	}
	if c.Retries < 0 {
		errs = append(errs, errors.New("retries must be non-negative"))
	}
	return errors.Join(errs...)
}

// Validate checks ServerConfig for errors.
func (c *ServerConfig) Validate() error {
	if c.Addr != "" {
		if _, _, err := net.SplitHostPort(c.Addr); err != nil {
			return fmt.Errorf("invalid addr: %w", err)
		}
	}
	return nil
}

// Validate checks TUIConfig for errors.
func (c *TUIConfig) Validate() error {
	switch c.Theme {
	case "", "auto", "dark", "light":
		// valid
	default:
		return fmt.Errorf("invalid theme: %s (must be auto, dark, or light)", c.Theme)
	}
	if c.RefreshInterval < 0 {
		return errors.New("refresh_interval must be non-negative")
	}
	return nil
}

// Validate checks LogConfig for errors.
func (c *LogConfig) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Level)
	}
	return nil
}
