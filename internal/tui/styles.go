package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jat-tools/jat/internal/detect"
)

var (
	// Colors chosen for contrast on dark terminals.
	primaryColor = lipgloss.Color("#A78BFA") // Purple
	mutedColor   = lipgloss.Color("#9CA3AF") // Gray
	textColor    = lipgloss.Color("#F9FAFB") // Light text
	errorColor   = lipgloss.Color("#F87171") // Red

	// Per-state colors for the status column.
	stateWorking   = lipgloss.Color("#10B981") // Green
	stateInput     = lipgloss.Color("#F59E0B") // Amber
	stateReview    = lipgloss.Color("#60A5FA") // Blue
	stateComplete  = lipgloss.Color("#A78BFA") // Purple
	stateIdleColor = lipgloss.Color("#9CA3AF") // Gray

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(textColor).
			Underline(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)
)

// stateStyle returns the style for rendering an activity state.
func stateStyle(s detect.ActivityState) lipgloss.Style {
	var c lipgloss.Color
	switch s {
	case detect.StateWorking, detect.StateCompleting:
		c = stateWorking
	case detect.StateNeedsInput:
		c = stateInput
	case detect.StateReadyForReview:
		c = stateReview
	case detect.StateCompleted:
		c = stateComplete
	default:
		c = stateIdleColor
	}
	style := lipgloss.NewStyle().Foreground(c)
	if s.IsAttended() {
		style = style.Bold(true)
	}
	return style
}

// stateIcon returns a one-glyph marker for an activity state.
func stateIcon(s detect.ActivityState) string {
	switch s {
	case detect.StateWorking:
		return "●"
	case detect.StateNeedsInput:
		return "❓"
	case detect.StateReadyForReview:
		return "👀"
	case detect.StateCompleting:
		return "◐"
	case detect.StateCompleted:
		return "✅"
	case detect.StateStarting:
		return "○"
	default:
		return "·"
	}
}
