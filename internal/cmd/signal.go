package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jat-tools/jat/internal/config"
	"github.com/jat-tools/jat/internal/sidecar"
)

var signalCmd = &cobra.Command{
	Use:   "signal",
	Short: "Inspect and clear session signals",
}

var signalShowCmd = &cobra.Command{
	Use:   "show <session>",
	Short: "Show the pending signal for a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSignalShow,
}

var signalClearCmd = &cobra.Command{
	Use:   "clear <session>",
	Short: "Clear the pending signal for a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSignalClear,
}

func init() {
	rootCmd.AddCommand(signalCmd)
	signalCmd.AddCommand(signalShowCmd)
	signalCmd.AddCommand(signalClearCmd)
}

func runSignalShow(cmd *cobra.Command, args []string) error {
	store := sidecar.NewStore(config.Get().Sidecar.Dir)

	res, err := store.ReadSignal(args[0])
	if err != nil {
		return err
	}
	if !res.Present {
		fmt.Println("No signal")
		return nil
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func runSignalClear(cmd *cobra.Command, args []string) error {
	store := sidecar.NewStore(config.Get().Sidecar.Dir)

	removed, err := store.ClearSignal(args[0])
	if err != nil {
		return err
	}
	if len(removed) == 0 {
		fmt.Println("No signal to clear")
		return nil
	}
	for _, path := range removed {
		fmt.Printf("Removed %s\n", path)
	}
	return nil
}
