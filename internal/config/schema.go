package config

import "time"

// Config is the root configuration structure.
type Config struct {
	Source SourceConfig `toml:"source" json:"source"`
	Server ServerConfig `toml:"server" json:"server"`
	TUI    TUIConfig    `toml:"tui" json:"tui"`
	Log    LogConfig    `toml:"log" json:"log"`
}

// SourceConfig describes where frames come from.
type SourceConfig struct {
	URL       string  `toml:"url" json:"url"`
	Extension string  `toml:"extension" json:"extension"`
	Frames    int     `toml:"frames" json:"frames"`
	FrameRate float64 `toml:"frame_rate" json:"frame_rate"`
	Timeout   int     `toml:"timeout" json:"timeout"` // milliseconds per fetch
	Retries   int     `toml:"retries" json:"retries"`
}

// FetchTimeout returns the per-fetch timeout, or zero for none.
func (c *SourceConfig) FetchTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Millisecond
}

// ServerConfig holds frame server settings.
type ServerConfig struct {
	Addr string `toml:"addr" json:"addr"`
	Dir  string `toml:"dir" json:"dir"`
}

// TUIConfig holds terminal UI settings.
type TUIConfig struct {
	Theme           string `toml:"theme" json:"theme"`
	RefreshInterval int    `toml:"refresh_interval" json:"refresh_interval"` // milliseconds
	ShowContent     bool   `toml:"show_content" json:"show_content"`
}

// Refresh returns the stats refresh interval.
func (c *TUIConfig) Refresh() time.Duration {
	return time.Duration(c.RefreshInterval) * time.Millisecond
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level" json:"level"`
	File  string `toml:"file" json:"file"`
}
