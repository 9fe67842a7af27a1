package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() = %v, want nil", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		wantOK bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"empty addr allowed", func(c *Config) { c.Server.Addr = "" }, true},
		{"bad addr", func(c *Config) { c.Server.Addr = "not-an-addr" }, false},
		{"negative cache ttl", func(c *Config) { c.Server.CacheTTLMs = -1 }, false},
		{"zero poll interval", func(c *Config) { c.Monitor.PollIntervalMs = 0 }, false},
		{"zero buffer size", func(c *Config) { c.Tmux.BufferSize = 0 }, false},
		{"negative debounce", func(c *Config) { c.Monitor.DebounceMs = -5 }, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if ok := err == nil; ok != tc.wantOK {
				t.Errorf("Validate() = %v, want ok=%v", err, tc.wantOK)
			}
		})
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := Default()
	if got := cfg.Monitor.PollInterval(); got != 2*time.Second {
		t.Errorf("PollInterval() = %v", got)
	}
	if got := cfg.Monitor.Debounce(); got != 250*time.Millisecond {
		t.Errorf("Debounce() = %v", got)
	}
	if got := cfg.Server.CacheTTL(); got != time.Second {
		t.Errorf("CacheTTL() = %v", got)
	}
}

func TestTimelinePath(t *testing.T) {
	cfg := Default()
	cfg.Tracker.TimelinePath = "/tmp/custom.yaml"
	if got := cfg.TimelinePath(); got != "/tmp/custom.yaml" {
		t.Errorf("TimelinePath() = %q", got)
	}

	cfg.Tracker.TimelinePath = ""
	if got := cfg.TimelinePath(); filepath.Base(got) != "timeline.yaml" {
		t.Errorf("default TimelinePath() = %q", got)
	}
}

func TestConfigDir_XDGOverride(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/xdg")
	if got := ConfigDir(); got != "/custom/xdg/jat" {
		t.Errorf("ConfigDir() = %q", got)
	}
}

func TestStateDir_XDGOverride(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/custom/state")
	if got := StateDir(); got != "/custom/state/jat" {
		t.Errorf("StateDir() = %q", got)
	}
}
