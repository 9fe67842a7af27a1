package monitor

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jat-tools/jat/internal/detect"
	"github.com/jat-tools/jat/internal/errors"
	"github.com/jat-tools/jat/internal/session"
	"github.com/jat-tools/jat/internal/task"
)

// fakeSnapshotter serves mutable snapshots for a fixed session set.
type fakeSnapshotter struct {
	mu     sync.Mutex
	states map[string]detect.ActivityState
}

func (f *fakeSnapshotter) set(name string, st detect.ActivityState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[name] = st
}

func (f *fakeSnapshotter) remove(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.states, name)
}

func (f *fakeSnapshotter) List(ctx context.Context) ([]*session.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*session.Snapshot
	for name, st := range f.states {
		out = append(out, &session.Snapshot{Name: name, State: st, CapturedAt: time.Now()})
	}
	return out, nil
}

func (f *fakeSnapshotter) Snapshot(ctx context.Context, name string) (*session.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.states[name]
	if !ok {
		return nil, errors.NewNotFoundError("session", name)
	}
	return &session.Snapshot{Name: name, State: st, CapturedAt: time.Now()}, nil
}

func TestMonitor_FiresOnTransition(t *testing.T) {
	svc := &fakeSnapshotter{states: map[string]detect.ActivityState{
		"web-1": detect.StateStarting,
	}}
	m := New(svc, 10*time.Millisecond, nil)

	type change struct{ from, to detect.ActivityState }
	changes := make(chan change, 8)
	m.OnStateChange(func(name string, from, to detect.ActivityState) {
		changes <- change{from, to}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	// Wait for the baseline sighting, then transition.
	time.Sleep(30 * time.Millisecond)
	svc.set("web-1", detect.StateWorking)

	select {
	case ch := <-changes:
		if ch.from != detect.StateStarting || ch.to != detect.StateWorking {
			t.Errorf("change = %v -> %v", ch.from, ch.to)
		}
	case <-time.After(time.Second):
		t.Fatal("no state change observed")
	}
}

func TestMonitor_NoCallbackOnFirstSighting(t *testing.T) {
	svc := &fakeSnapshotter{states: map[string]detect.ActivityState{
		"web-1": detect.StateWorking,
	}}
	m := New(svc, 10*time.Millisecond, nil)

	fired := make(chan struct{}, 1)
	m.OnStateChange(func(name string, from, to detect.ActivityState) {
		fired <- struct{}{}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	select {
	case <-fired:
		t.Error("callback fired on first sighting")
	case <-time.After(50 * time.Millisecond):
	}

	if got := m.States()["web-1"]; got != detect.StateWorking {
		t.Errorf("States()[web-1] = %v", got)
	}
}

func TestMonitor_Nudge(t *testing.T) {
	svc := &fakeSnapshotter{states: map[string]detect.ActivityState{
		"web-1": detect.StateWorking,
	}}
	// Long interval: only the nudge can pick up the change in time.
	m := New(svc, time.Hour, nil)

	changes := make(chan detect.ActivityState, 1)
	m.OnStateChange(func(name string, from, to detect.ActivityState) {
		changes <- to
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)
	time.Sleep(20 * time.Millisecond) // Let the initial evaluation run.

	svc.set("web-1", detect.StateReadyForReview)
	m.Nudge("web-1")

	select {
	case to := <-changes:
		if to != detect.StateReadyForReview {
			t.Errorf("nudged change to %v", to)
		}
	case <-time.After(time.Second):
		t.Fatal("nudge did not trigger re-evaluation")
	}
}

func TestMonitor_ForgetsVanishedSessions(t *testing.T) {
	svc := &fakeSnapshotter{states: map[string]detect.ActivityState{
		"web-1": detect.StateIdle,
	}}
	m := New(svc, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)
	time.Sleep(30 * time.Millisecond)

	svc.remove("web-1")
	time.Sleep(30 * time.Millisecond)

	if _, ok := m.States()["web-1"]; ok {
		t.Error("vanished session still tracked")
	}
	if _, ok := m.Latest("web-1"); ok {
		t.Error("vanished session still has a snapshot")
	}
}

func TestMonitor_TimelineRecordsTransitions(t *testing.T) {
	svc := &fakeSnapshotter{states: map[string]detect.ActivityState{
		"web-1": detect.StateStarting,
	}}
	m := New(svc, 10*time.Millisecond, nil)

	tl, err := task.NewTimeline(filepath.Join(t.TempDir(), "timeline.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	m.SetTimeline(tl)

	done := make(chan struct{}, 1)
	m.OnStateChange(func(string, detect.ActivityState, detect.ActivityState) {
		done <- struct{}{}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)
	time.Sleep(30 * time.Millisecond)
	svc.set("web-1", detect.StateWorking)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("no transition observed")
	}

	events, err := tl.Events()
	if err != nil {
		t.Fatalf("Events() error = %v", err)
	}
	if len(events) == 0 {
		t.Fatal("timeline empty after transition")
	}
	ev := events[0]
	if ev.Kind != task.EventStateChanged || ev.From != "starting" || ev.To != "working" {
		t.Errorf("event = %+v", ev)
	}
}

func TestMonitor_RetainsOutput(t *testing.T) {
	svc := &fakeSnapshotter{states: map[string]detect.ActivityState{}}
	m := New(svc, time.Hour, nil)
	m.SetBufferSize(16)

	m.observe(&session.Snapshot{
		Name:   "web-1",
		State:  detect.StateWorking,
		Output: "0123456789abcdefghij",
	})

	out, ok := m.Output("web-1")
	if !ok {
		t.Fatal("no output retained")
	}
	if out != "456789abcdefghij" {
		t.Errorf("output = %q, want the trailing 16 bytes", out)
	}

	if _, ok := m.Output("ghost"); ok {
		t.Error("output reported for unknown session")
	}
}

func TestMonitor_OutputSuperseded(t *testing.T) {
	svc := &fakeSnapshotter{states: map[string]detect.ActivityState{}}
	m := New(svc, time.Hour, nil)

	m.observe(&session.Snapshot{Name: "web-1", State: detect.StateWorking, Output: "first"})
	m.observe(&session.Snapshot{Name: "web-1", State: detect.StateWorking, Output: "second"})

	out, _ := m.Output("web-1")
	if out != "second" {
		t.Errorf("output = %q, want the latest capture only", out)
	}
}

func TestMonitor_RecordsTaskLifecycle(t *testing.T) {
	svc := &fakeSnapshotter{states: map[string]detect.ActivityState{}}
	m := New(svc, time.Hour, nil)

	tl, err := task.NewTimeline(filepath.Join(t.TempDir(), "timeline.yaml"))
	if err != nil {
		t.Fatalf("NewTimeline() error = %v", err)
	}
	m.SetTimeline(tl)

	// Baseline sighting, then an assignment, then a completion. The
	// activity state never moves; the task links alone drive events.
	m.observe(&session.Snapshot{Name: "web-1", State: detect.StateStarting})
	m.observe(&session.Snapshot{Name: "web-1", State: detect.StateStarting,
		Task: &task.Task{ID: "jat-7"}})
	m.observe(&session.Snapshot{Name: "web-1", State: detect.StateStarting,
		LastCompleted: &task.Task{ID: "jat-7"}})
	// Unchanged links append nothing.
	m.observe(&session.Snapshot{Name: "web-1", State: detect.StateStarting,
		LastCompleted: &task.Task{ID: "jat-7"}})

	events, err := tl.Events()
	if err != nil {
		t.Fatalf("Events() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2: %+v", len(events), events)
	}
	if events[0].Kind != task.EventTaskAssigned || events[0].TaskID != "jat-7" {
		t.Errorf("first event = %+v, want task_assigned jat-7", events[0])
	}
	if events[1].Kind != task.EventTaskCompleted || events[1].TaskID != "jat-7" {
		t.Errorf("second event = %+v, want task_completed jat-7", events[1])
	}
}
