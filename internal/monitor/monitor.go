// Package monitor re-evaluates supervised sessions on an interval and
// reports state transitions. It keeps only the previous state per
// session for edge detection; the states themselves are always derived
// fresh by the session service.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/jat-tools/jat/internal/capture"
	"github.com/jat-tools/jat/internal/detect"
	"github.com/jat-tools/jat/internal/logging"
	"github.com/jat-tools/jat/internal/session"
	"github.com/jat-tools/jat/internal/task"
)

// StateChangeCallback is called when a session's derived state changes.
type StateChangeCallback func(name string, from, to detect.ActivityState)

// Snapshotter is the slice of the session service the monitor needs.
type Snapshotter interface {
	List(ctx context.Context) ([]*session.Snapshot, error)
	Snapshot(ctx context.Context, name string) (*session.Snapshot, error)
}

// Monitor polls sessions and fires callbacks on state transitions.
// Safe for concurrent use.
type Monitor struct {
	mu        sync.RWMutex
	svc       Snapshotter
	interval  time.Duration
	states    map[string]detect.ActivityState
	latest    map[string]*session.Snapshot
	buffers   map[string]*capture.RingBuffer
	bufSize   int
	callbacks []StateChangeCallback
	timeline  *task.Timeline
	logger    *logging.Logger
	nudges    chan string
}

// New creates a monitor polling at the given interval.
func New(svc Snapshotter, interval time.Duration, logger *logging.Logger) *Monitor {
	if logger == nil {
		logger = logging.NopLogger()
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Monitor{
		svc:      svc,
		interval: interval,
		states:   make(map[string]detect.ActivityState),
		latest:   make(map[string]*session.Snapshot),
		buffers:  make(map[string]*capture.RingBuffer),
		bufSize:  defaultBufferSize,
		logger:   logger.WithComponent("monitor"),
		nudges:   make(chan string, 64),
	}
}

// defaultBufferSize bounds retained output per session.
const defaultBufferSize = 64 * 1024

// SetBufferSize changes how much captured output is retained per
// session. Call before Run.
func (m *Monitor) SetBufferSize(n int) {
	if n <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bufSize = n
}

// OnStateChange registers a callback fired on every state transition.
// Register before Run; callbacks run on the monitor goroutine and must
// not block.
func (m *Monitor) OnStateChange(cb StateChangeCallback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, cb)
}

// SetTimeline makes the monitor append state transitions to a timeline
// log.
func (m *Monitor) SetTimeline(tl *task.Timeline) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeline = tl
}

// Nudge requests an immediate re-evaluation of one session, ahead of
// the next poll tick. Used by the sidecar watcher. Never blocks; a full
// queue drops the nudge, the next tick will catch up anyway.
func (m *Monitor) Nudge(name string) {
	select {
	case m.nudges <- name:
	default:
	}
}

// Run polls until the context is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.evaluateAll(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.evaluateAll(ctx)
		case name := <-m.nudges:
			m.evaluateOne(ctx, name)
		}
	}
}

// evaluateAll re-derives every session's state and reconciles the
// tracked set against sessions appearing or vanishing.
func (m *Monitor) evaluateAll(ctx context.Context) {
	snaps, err := m.svc.List(ctx)
	if err != nil {
		m.logger.Warn("poll failed", "error", err)
		return
	}

	seen := make(map[string]bool, len(snaps))
	for _, snap := range snaps {
		seen[snap.Name] = true
		m.observe(snap)
	}

	m.mu.Lock()
	for name := range m.states {
		if !seen[name] {
			delete(m.states, name)
			delete(m.latest, name)
			delete(m.buffers, name)
		}
	}
	m.mu.Unlock()
}

func (m *Monitor) evaluateOne(ctx context.Context, name string) {
	snap, err := m.svc.Snapshot(ctx, name)
	if err != nil {
		m.logger.Debug("nudged evaluation failed", "session", name, "error", err)
		return
	}
	m.observe(snap)
}

// observe records a snapshot and fires callbacks if the state moved.
func (m *Monitor) observe(snap *session.Snapshot) {
	m.mu.Lock()
	prev, known := m.states[snap.Name]
	prevSnap := m.latest[snap.Name]
	m.states[snap.Name] = snap.State
	m.latest[snap.Name] = snap
	if snap.Output != "" {
		buf, ok := m.buffers[snap.Name]
		if !ok {
			buf = capture.NewRingBuffer(m.bufSize)
			m.buffers[snap.Name] = buf
		}
		// Each capture supersedes the last; the buffer bounds how much
		// of it is retained.
		buf.Reset()
		buf.Write([]byte(snap.Output))
	}
	callbacks := m.callbacks
	timeline := m.timeline
	m.mu.Unlock()

	// Task links can move without a state transition.
	if known && timeline != nil && prevSnap != nil {
		m.recordTaskEvents(timeline, prevSnap, snap)
	}

	if known && prev == snap.State {
		return
	}
	if !known {
		// First sighting establishes the baseline without an event.
		return
	}

	m.logger.Info("state changed", "session", snap.Name,
		"from", prev.String(), "to", snap.State.String())

	if timeline != nil {
		err := timeline.Append(task.TimelineEvent{
			Session: snap.Name,
			Kind:    task.EventStateChanged,
			From:    prev.String(),
			To:      snap.State.String(),
		})
		if err != nil {
			m.logger.Warn("timeline append failed", "error", err)
		}
	}

	for _, cb := range callbacks {
		cb(snap.Name, prev, snap.State)
	}
}

// recordTaskEvents appends task lifecycle events when the tracker links
// on consecutive snapshots differ. The first sighting is a baseline and
// produces no events, same as state transitions.
func (m *Monitor) recordTaskEvents(tl *task.Timeline, prev, cur *session.Snapshot) {
	if cur.Task != nil && (prev.Task == nil || prev.Task.ID != cur.Task.ID) {
		err := tl.Append(task.TimelineEvent{
			Session: cur.Name,
			Kind:    task.EventTaskAssigned,
			TaskID:  cur.Task.ID,
		})
		if err != nil {
			m.logger.Warn("timeline append failed", "error", err)
		}
	}

	if cur.LastCompleted != nil && (prev.LastCompleted == nil || prev.LastCompleted.ID != cur.LastCompleted.ID) {
		err := tl.Append(task.TimelineEvent{
			Session: cur.Name,
			Kind:    task.EventTaskCompleted,
			TaskID:  cur.LastCompleted.ID,
		})
		if err != nil {
			m.logger.Warn("timeline append failed", "error", err)
		}
	}
}

// States returns the most recently observed state per session.
func (m *Monitor) States() map[string]detect.ActivityState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]detect.ActivityState, len(m.states))
	for name, state := range m.states {
		out[name] = state
	}
	return out
}

// Output returns the retained terminal output for a session, if any.
func (m *Monitor) Output(name string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	buf, ok := m.buffers[name]
	if !ok {
		return "", false
	}
	return buf.String(), true
}

// Latest returns the most recent snapshot for a session, if any.
func (m *Monitor) Latest(name string) (*session.Snapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.latest[name]
	return snap, ok
}
