package cmd

import (
	"github.com/jat-tools/jat/internal/config"
	"github.com/jat-tools/jat/internal/logging"
	"github.com/jat-tools/jat/internal/session"
	"github.com/jat-tools/jat/internal/sidecar"
	"github.com/jat-tools/jat/internal/task"
	"github.com/jat-tools/jat/internal/tmux"
)

func newLogger(cfg *config.Config) (*logging.Logger, error) {
	return logging.NewLogger(cfg.Logging.Dir, cfg.Logging.Level)
}

// newService builds the snapshot service from configuration. CLI
// commands share this wiring with the daemon.
func newService(cfg *config.Config, logger *logging.Logger) *session.Service {
	term := tmux.NewClient(cfg.Tmux.Bin, cfg.Tmux.Socket)
	tracker := task.NewClient(cfg.Tracker.Bin)
	store := sidecar.NewStore(cfg.Sidecar.Dir)
	return session.NewService(term, tracker, store, cfg.Tmux.CaptureLines, logger)
}
