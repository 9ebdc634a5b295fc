package config

// DefaultFrameRate is used when neither flags, the config file nor the
// source manifest give a frame rate.
const DefaultFrameRate = 10.0

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			Extension: "svg",
			Timeout:   10000,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
			Dir:  ".",
		},
		TUI: TUIConfig{
			Theme:           "auto",
			RefreshInterval: 250,
			ShowContent:     true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ApplyDefaults fills in zero values with sensible defaults.
// Frames and FrameRate are left alone; zero means "ask the source".
func (c *Config) ApplyDefaults() {
	d := Default()

	// Source
	if c.Source.Extension == "" {
		c.Source.Extension = d.Source.Extension
	}
	if c.Source.Timeout == 0 {
		c.Source.Timeout = d.Source.Timeout
	}

	// Server
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Server.Dir == "" {
		c.Server.Dir = d.Server.Dir
	}

	// TUI
	if c.TUI.Theme == "" {
		c.TUI.Theme = d.TUI.Theme
	}
	if c.TUI.RefreshInterval == 0 {
		c.TUI.RefreshInterval = d.TUI.RefreshInterval
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}
