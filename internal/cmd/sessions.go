package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jat-tools/jat/internal/config"
	"github.com/jat-tools/jat/internal/detect"
	"github.com/jat-tools/jat/internal/logging"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List supervised sessions",
	Long:  `List all tmux sessions with their derived activity state and task.`,
	RunE:  runSessions,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
}

var (
	attendedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F59E0B"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
)

func runSessions(cmd *cobra.Command, args []string) error {
	svc := newService(config.Get(), logging.NopLogger())

	snaps, err := svc.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		fmt.Println("No sessions")
		return nil
	}

	// Fit the task column to the terminal when attached to one.
	width := 100
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 40 {
		width = w
	}
	taskWidth := width - 40

	fmt.Printf("%-20s %-18s %s\n", "SESSION", "STATE", "TASK")
	for _, snap := range snaps {
		taskCol := "-"
		if snap.Task != nil {
			taskCol = snap.Task.ID + " " + snap.Task.Title
		}
		if r := []rune(taskCol); len(r) > taskWidth {
			taskCol = string(r[:taskWidth])
		}

		state := snap.State.String()
		if snap.State.IsAttended() {
			state = attendedStyle.Render(state)
		} else if snap.State == detect.StateIdle {
			state = dimStyle.Render(state)
		}

		// Style codes don't count toward column width; pad manually.
		pad := 18 - len(snap.State.String())
		if pad < 0 {
			pad = 0
		}
		fmt.Printf("%-20s %s%s %s\n", snap.Name, state, strings.Repeat(" ", pad), taskCol)
	}
	return nil
}
