// Package session produces state snapshots of supervised sessions.
//
// A snapshot is derived, never stored: each call captures the session's
// trailing terminal output, looks up its tracker assignments, scans for
// lifecycle markers, and resolves the activity state from scratch. Two
// concurrent snapshots of the same session are independent and may
// observe different sidecar contents; last writer wins and staleness
// windows absorb the races.
package session

import (
	"context"
	"time"

	"github.com/jat-tools/jat/internal/detect"
	"github.com/jat-tools/jat/internal/errors"
	"github.com/jat-tools/jat/internal/logging"
	"github.com/jat-tools/jat/internal/sidecar"
	"github.com/jat-tools/jat/internal/task"
	"github.com/jat-tools/jat/internal/tmux"
)

// TerminalSource provides access to the supervised terminal sessions.
// *tmux.Client is the production implementation.
type TerminalSource interface {
	ListSessions(ctx context.Context) ([]tmux.Session, error)
	SessionExists(ctx context.Context, name string) (bool, error)
	CapturePane(ctx context.Context, name string, lines int) (string, error)
	SendKeys(ctx context.Context, name, keys string) error
}

// TaskSource provides the session-to-task links from the tracker.
// *task.Client is the production implementation.
type TaskSource interface {
	Assigned(ctx context.Context, session string) (*task.Task, error)
	LastCompleted(ctx context.Context, session string) (*task.Task, error)
}

// Snapshot is the full observable state of one session at a point in
// time. Sidecar fields are best-effort: a reader failure leaves its
// field zero-valued and is recorded in Warnings, so one corrupt file
// cannot hide the session's activity state. The dedicated sidecar
// endpoints report such failures as errors.
type Snapshot struct {
	Name          string                 `json:"name"`
	State         detect.ActivityState   `json:"state"`
	Task          *task.Task             `json:"task,omitempty"`
	LastCompleted *task.Task             `json:"lastCompleted,omitempty"`
	Activity      sidecar.ActivityResult `json:"activity"`
	Question      sidecar.QuestionResult `json:"question"`
	Signal        sidecar.SignalResult   `json:"signal"`
	Attached      bool                   `json:"attached"`
	Created       time.Time              `json:"created,omitzero"`
	CapturedAt    time.Time              `json:"capturedAt"`
	Warnings      []string               `json:"warnings,omitempty"`

	// Output is the ANSI-stripped capture the state was derived from.
	// Kept out of the JSON form; the output endpoint serves it
	// separately.
	Output string `json:"-"`
}

// Service derives session snapshots. Safe for concurrent use; it holds
// no per-session state.
type Service struct {
	term         TerminalSource
	tracker      TaskSource
	sidecars     *sidecar.Store
	scanner      *detect.Scanner
	captureLines int
	logger       *logging.Logger
}

// NewService creates a snapshot service. captureLines bounds how much
// scrollback each snapshot captures; values below the scan window are
// raised so markers cannot be missed.
func NewService(term TerminalSource, tracker TaskSource, sidecars *sidecar.Store, captureLines int, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.NopLogger()
	}
	if captureLines < 100 {
		captureLines = 100
	}
	return &Service{
		term:         term,
		tracker:      tracker,
		sidecars:     sidecars,
		scanner:      detect.NewScanner(),
		captureLines: captureLines,
		logger:       logger.WithComponent("session"),
	}
}

// Resolve classifies raw terminal output directly. Exposed for callers
// that already hold the output text.
func (s *Service) Resolve(output string, taskAssigned, hasCompletedTask bool) detect.ActivityState {
	return s.scanner.ResolveOutput(detect.StripAnsi(output), taskAssigned, hasCompletedTask)
}

// Snapshot derives the current state of one session. The session must
// exist in tmux; tracker and capture failures are surfaced, sidecar
// reader failures degrade to warnings.
func (s *Service) Snapshot(ctx context.Context, name string) (*Snapshot, error) {
	if name == "" {
		return nil, errors.NewValidationError("session", "name must not be empty")
	}

	exists, err := s.term.SessionExists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.NewNotFoundError("session", name)
	}

	output, err := s.term.CapturePane(ctx, name, s.captureLines)
	if err != nil {
		// The session may have exited between the check and the
		// capture; report that as absence, anything else as-is.
		if errors.IsNotFound(err) {
			return nil, errors.NewNotFoundError("session", name)
		}
		return nil, err
	}

	assigned, err := s.tracker.Assigned(ctx, name)
	if err != nil {
		return nil, err
	}
	lastCompleted, err := s.tracker.LastCompleted(ctx, name)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Name:          name,
		Task:          assigned,
		LastCompleted: lastCompleted,
		CapturedAt:    time.Now(),
		Output:        detect.StripAnsi(output),
	}
	snap.State = s.scanner.ResolveOutput(snap.Output, assigned != nil, lastCompleted != nil)
	s.readSidecars(snap)
	return snap, nil
}

// readSidecars fills the sidecar fields of a snapshot, degrading
// reader failures to warnings.
func (s *Service) readSidecars(snap *Snapshot) {
	var err error
	if snap.Activity, err = s.sidecars.ReadActivity(snap.Name); err != nil {
		s.logger.Warn("activity sidecar unreadable", "session", snap.Name, "error", err)
		snap.Warnings = append(snap.Warnings, err.Error())
	}
	if snap.Question, err = s.sidecars.ReadQuestion(snap.Name); err != nil {
		s.logger.Warn("question sidecar unreadable", "session", snap.Name, "error", err)
		snap.Warnings = append(snap.Warnings, err.Error())
	}
	if snap.Signal, err = s.sidecars.ReadSignal(snap.Name); err != nil {
		s.logger.Warn("signal sidecar unreadable", "session", snap.Name, "error", err)
		snap.Warnings = append(snap.Warnings, err.Error())
	}
}

// List derives snapshots for every tmux session. A failure on one
// session is logged and skipped so a single broken session cannot blank
// the whole board.
func (s *Service) List(ctx context.Context) ([]*Snapshot, error) {
	sessions, err := s.term.ListSessions(ctx)
	if err != nil {
		return nil, err
	}

	snapshots := make([]*Snapshot, 0, len(sessions))
	for _, sess := range sessions {
		snap, err := s.Snapshot(ctx, sess.Name)
		if err != nil {
			s.logger.Warn("failed to snapshot session", "session", sess.Name, "error", err)
			continue
		}
		snap.Attached = sess.Attached
		snap.Created = sess.Created
		snapshots = append(snapshots, snap)
	}
	return snapshots, nil
}

// SendKeys forwards input to a session's terminal.
func (s *Service) SendKeys(ctx context.Context, name, keys string) error {
	if keys == "" {
		return errors.NewValidationError("keys", "must not be empty")
	}
	return s.term.SendKeys(ctx, name, keys)
}

// Sidecars exposes the underlying sidecar store for the dedicated
// signal endpoints.
func (s *Service) Sidecars() *sidecar.Store {
	return s.sidecars
}
