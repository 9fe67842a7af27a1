// Package config defines the jat configuration and its viper bindings.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete jat configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Tmux    TmuxConfig    `mapstructure:"tmux"`
	Sidecar SidecarConfig `mapstructure:"sidecar"`
	Tracker TrackerConfig `mapstructure:"tracker"`
	Monitor MonitorConfig `mapstructure:"monitor"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls the HTTP API server
type ServerConfig struct {
	// Addr is the listen address for the API server
	Addr string `mapstructure:"addr"`
	// CacheTTLMs is how long session snapshots are served from cache (0 disables caching)
	CacheTTLMs int `mapstructure:"cache_ttl_ms"`
}

// TmuxConfig controls how terminal output is captured
type TmuxConfig struct {
	// Bin is the tmux binary to invoke
	Bin string `mapstructure:"bin"`
	// Socket is an alternate tmux socket path (empty uses the default)
	Socket string `mapstructure:"socket"`
	// CaptureLines is how many scrollback lines to capture per snapshot
	CaptureLines int `mapstructure:"capture_lines"`
	// BufferSize is the per-session output retention in bytes
	BufferSize int `mapstructure:"buffer_size"`
}

// SidecarConfig controls where hook-written signal files are read from
type SidecarConfig struct {
	// Dir is the sidecar directory (empty uses the system temp dir)
	Dir string `mapstructure:"dir"`
}

// TrackerConfig controls the bd task tracker integration
type TrackerConfig struct {
	// Bin is the bd binary to invoke
	Bin string `mapstructure:"bin"`
	// TimelinePath is where supervision events are appended
	TimelinePath string `mapstructure:"timeline_path"`
}

// MonitorConfig controls the polling monitor
type MonitorConfig struct {
	// PollIntervalMs is how often sessions are re-evaluated
	PollIntervalMs int `mapstructure:"poll_interval_ms"`
	// DebounceMs is the settle window for sidecar file events
	DebounceMs int `mapstructure:"debounce_ms"`
}

// LoggingConfig controls structured logging
type LoggingConfig struct {
	// Dir is the log directory (empty logs to stderr)
	Dir string `mapstructure:"dir"`
	// Level is one of DEBUG, INFO, WARN, ERROR
	Level string `mapstructure:"level"`
}

// PollInterval returns the monitor poll interval as a time.Duration
func (c *MonitorConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// Debounce returns the sidecar event settle window as a time.Duration
func (c *MonitorConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// CacheTTL returns the snapshot cache TTL as a time.Duration
func (c *ServerConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMs) * time.Millisecond
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:       "127.0.0.1:7777",
			CacheTTLMs: 1000,
		},
		Tmux: TmuxConfig{
			Bin:          "tmux",
			CaptureLines: 200,
			BufferSize:   64 * 1024,
		},
		Sidecar: SidecarConfig{
			Dir: "", // System temp dir, where the hooks write
		},
		Tracker: TrackerConfig{
			Bin:          "bd",
			TimelinePath: "", // Empty means use default: <state dir>/timeline.yaml
		},
		Monitor: MonitorConfig{
			PollIntervalMs: 2000,
			DebounceMs:     250,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("server.addr", defaults.Server.Addr)
	viper.SetDefault("server.cache_ttl_ms", defaults.Server.CacheTTLMs)

	viper.SetDefault("tmux.bin", defaults.Tmux.Bin)
	viper.SetDefault("tmux.socket", defaults.Tmux.Socket)
	viper.SetDefault("tmux.capture_lines", defaults.Tmux.CaptureLines)
	viper.SetDefault("tmux.buffer_size", defaults.Tmux.BufferSize)

	viper.SetDefault("sidecar.dir", defaults.Sidecar.Dir)

	viper.SetDefault("tracker.bin", defaults.Tracker.Bin)
	viper.SetDefault("tracker.timeline_path", defaults.Tracker.TimelinePath)

	viper.SetDefault("monitor.poll_interval_ms", defaults.Monitor.PollIntervalMs)
	viper.SetDefault("monitor.debounce_ms", defaults.Monitor.DebounceMs)

	viper.SetDefault("logging.dir", defaults.Logging.Dir)
	viper.SetDefault("logging.level", defaults.Logging.Level)
}

// Load reads the configuration from viper into a Config struct and
// validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Get returns the current configuration, falling back to defaults if
// unmarshaling fails
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "jat")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".jat"
	}
	return filepath.Join(home, ".config", "jat")
}

// StateDir returns the path to the user's state directory, used for the
// timeline log and file logging.
func StateDir() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "jat")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".jat"
	}
	return filepath.Join(home, ".local", "state", "jat")
}

// TimelinePath resolves the configured timeline path, applying the
// state-dir default.
func (c *Config) TimelinePath() string {
	if c.Tracker.TimelinePath != "" {
		return c.Tracker.TimelinePath
	}
	return filepath.Join(StateDir(), "timeline.yaml")
}
