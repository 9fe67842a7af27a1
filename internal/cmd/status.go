package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jat-tools/jat/internal/config"
	"github.com/jat-tools/jat/internal/logging"
	"github.com/jat-tools/jat/internal/session"
)

var statusCmd = &cobra.Command{
	Use:   "status [session]",
	Short: "Show session state",
	Long: `Display the derived state of one session, or of every session when no
name is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	svc := newService(config.Get(), logging.NopLogger())

	if len(args) == 1 {
		snap, err := svc.Snapshot(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printSnapshot(snap)
		return nil
	}

	snaps, err := svc.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		fmt.Println("No sessions")
		return nil
	}
	for _, snap := range snaps {
		printSnapshot(snap)
		fmt.Println()
	}
	return nil
}

func printSnapshot(snap *session.Snapshot) {
	fmt.Printf("Session: %s\n", snap.Name)
	fmt.Printf("State: %s\n", snap.State)
	if snap.Task != nil {
		fmt.Printf("Task: %s %s (%s)\n", snap.Task.ID, snap.Task.Title, snap.Task.Status)
	}
	if snap.LastCompleted != nil {
		fmt.Printf("Last completed: %s %s\n", snap.LastCompleted.ID, snap.LastCompleted.Title)
	}
	if snap.Activity.HasActivity {
		fmt.Printf("Activity: %s since %s\n", snap.Activity.Activity.State,
			snap.Activity.Activity.Since.Format(time.RFC3339))
	}
	if snap.Question.Active {
		fmt.Printf("Question: pending since %s\n", snap.Question.ModifiedAt.Format(time.RFC3339))
	}
	if snap.Signal.Present {
		fmt.Printf("Signal: %s\n", snap.Signal.Type)
	}
	for _, w := range snap.Warnings {
		fmt.Printf("Warning: %s\n", w)
	}
}
