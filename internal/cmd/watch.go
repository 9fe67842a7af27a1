package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jat-tools/jat/internal/config"
	"github.com/jat-tools/jat/internal/logging"
	"github.com/jat-tools/jat/internal/tui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch sessions in a live table",
	Long:  `Open a full-screen view that refreshes session states continuously.`,
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	svc := newService(cfg, logging.NopLogger())
	return tui.Run(svc, cfg.Monitor.PollInterval())
}
