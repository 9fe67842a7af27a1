package config

import (
	"net"

	"github.com/jat-tools/jat/internal/errors"
)

// Validate checks the configuration for values that would fail at
// runtime. It returns the first problem found.
func (c *Config) Validate() error {
	if c.Server.Addr != "" {
		if _, _, err := net.SplitHostPort(c.Server.Addr); err != nil {
			return errors.NewValidationError("server.addr", "must be host:port")
		}
	}
	if c.Server.CacheTTLMs < 0 {
		return errors.NewValidationError("server.cache_ttl_ms", "must not be negative")
	}
	if c.Tmux.CaptureLines < 0 {
		return errors.NewValidationError("tmux.capture_lines", "must not be negative")
	}
	if c.Tmux.BufferSize <= 0 {
		return errors.NewValidationError("tmux.buffer_size", "must be positive")
	}
	if c.Monitor.PollIntervalMs <= 0 {
		return errors.NewValidationError("monitor.poll_interval_ms", "must be positive")
	}
	if c.Monitor.DebounceMs < 0 {
		return errors.NewValidationError("monitor.debounce_ms", "must not be negative")
	}
	return nil
}
