package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/jat-tools/jat/internal/session"
)

const (
	nameWidth  = 20
	stateWidth = 18
	taskWidth  = 34
)

// View renders the session table.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("jat sessions"))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render("error: " + m.err.Error()))
		b.WriteString("\n\n")
	}

	if len(m.snaps) == 0 {
		b.WriteString(mutedStyle.Render("no sessions"))
	} else {
		b.WriteString(headerStyle.Render(fmt.Sprintf("%-*s %-*s %-*s %s",
			nameWidth, "SESSION", stateWidth, "STATE", taskWidth, "TASK", "AGE")))
		b.WriteString("\n")
		for _, snap := range m.snaps {
			b.WriteString(renderRow(snap))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("r refresh · q quit"))
	return b.String()
}

func renderRow(snap *session.Snapshot) string {
	state := stateIcon(snap.State) + " " + snap.State.String()

	taskCol := "-"
	if snap.Task != nil {
		taskCol = snap.Task.ID
		if snap.Task.Title != "" {
			taskCol += " " + snap.Task.Title
		}
	} else if snap.LastCompleted != nil {
		taskCol = "last: " + snap.LastCompleted.ID
	}

	age := "-"
	if !snap.Created.IsZero() {
		age = formatAge(time.Since(snap.Created))
	}

	return fmt.Sprintf("%-*s %s %-*s %s",
		nameWidth, truncate(snap.Name, nameWidth),
		stateStyle(snap.State).Render(fmt.Sprintf("%-*s", stateWidth, state)),
		taskWidth, truncate(taskCol, taskWidth),
		mutedStyle.Render(age))
}

// truncate shortens s to max runes, never splitting a multi-byte rune.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 1 {
		return string(r[:max])
	}
	return string(r[:max-1]) + "…"
}

func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
