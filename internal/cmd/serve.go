package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jat-tools/jat/internal/config"
	"github.com/jat-tools/jat/internal/errors"
	"github.com/jat-tools/jat/internal/monitor"
	"github.com/jat-tools/jat/internal/server"
	"github.com/jat-tools/jat/internal/task"
	"github.com/jat-tools/jat/internal/watch"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the supervision server",
	Long: `Start the jat daemon: poll tmux sessions for state changes, watch the
sidecar directory for activity, and serve the REST/WebSocket API.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer logger.Close()

	svc := newService(cfg, logger)
	mon := monitor.New(svc, cfg.Monitor.PollInterval(), logger)
	mon.SetBufferSize(cfg.Tmux.BufferSize)

	timeline, err := task.NewTimeline(cfg.TimelinePath())
	if err != nil {
		logger.Warn("timeline disabled", "error", err)
	} else {
		mon.SetTimeline(timeline)
	}

	watcher := watch.New(svc.Sidecars().Dir(), cfg.Monitor.Debounce(), mon.Nudge, logger)
	srv := server.New(cfg.Server.Addr, svc, mon, cfg.Server.CacheTTL(), logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 3)
	go func() { errc <- mon.Run(ctx) }()
	go func() { errc <- watcher.Run(ctx) }()
	go func() { errc <- srv.Run(ctx) }()

	logger.Info("jat serving", "addr", cfg.Server.Addr, "sidecar_dir", svc.Sidecars().Dir())

	select {
	case <-ctx.Done():
		stop()
		// Let the server finish its graceful shutdown.
		return shutdownErr(<-errc)
	case err := <-errc:
		stop()
		return shutdownErr(err)
	}
}

// shutdownErr filters the errors a clean shutdown produces, so a SIGINT
// exits zero instead of reporting the cancelled context.
func shutdownErr(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
