// Package tui renders a live session table in the terminal. It is the
// interactive face of jat watch: every tick it re-derives snapshots of
// all supervised sessions and repaints.
package tui

import (
	"context"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jat-tools/jat/internal/session"
)

// Lister produces the snapshots to display. *session.Service is the
// production implementation.
type Lister interface {
	List(ctx context.Context) ([]*session.Snapshot, error)
}

type tickMsg time.Time

type snapshotsMsg struct {
	snaps []*session.Snapshot
	err   error
}

// Model holds the watch view state.
type Model struct {
	svc      Lister
	interval time.Duration

	snaps    []*session.Snapshot
	err      error
	width    int
	height   int
	quitting bool
}

// NewModel creates a watch model refreshing at the given interval.
func NewModel(svc Lister, interval time.Duration) Model {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return Model{svc: svc, interval: interval}
}

// Init starts the first refresh immediately.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refresh(), m.tick())
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) refresh() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		snaps, err := svc.List(ctx)
		return snapshotsMsg{snaps: snaps, err: err}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "r":
			return m, m.refresh()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		return m, tea.Batch(m.refresh(), m.tick())

	case snapshotsMsg:
		m.err = msg.err
		if msg.err == nil {
			snaps := msg.snaps
			sort.Slice(snaps, func(i, j int) bool {
				return snaps[i].Name < snaps[j].Name
			})
			m.snaps = snaps
		}
	}

	return m, nil
}

// Run starts the watch view and blocks until the user quits.
func Run(svc Lister, interval time.Duration) error {
	p := tea.NewProgram(NewModel(svc, interval), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
