package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestSessionFromFilename(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"jat-activity-web-1.json", "web-1"},
		{"jat-signal-tmux-web-1.json", "web-1"},
		{"jat-signal-web-1.json", "web-1"},
		{"claude-question-tmux-web-1.json", "web-1"},
		{"jat-activity-has-dashes-2.json", "has-dashes-2"},
		{"unrelated.json", ""},
		{"jat-activity-web-1.tmp", ""},
		{"", ""},
	}

	for _, tc := range tests {
		if got := SessionFromFilename(tc.name); got != tc.want {
			t.Errorf("SessionFromFilename(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestWatcher_NudgesOnSidecarWrite(t *testing.T) {
	dir := t.TempDir()

	nudged := make(chan string, 8)
	w := New(dir, 20*time.Millisecond, func(session string) {
		nudged <- session
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)
	time.Sleep(50 * time.Millisecond) // Let the watch get established.

	path := filepath.Join(dir, "jat-activity-web-1.json")
	if err := os.WriteFile(path, []byte(`{"state":"generating"}`), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case session := <-nudged:
		if session != "web-1" {
			t.Errorf("nudged session = %q, want web-1", session)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no nudge after sidecar write")
	}
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	count := 0
	w := New(dir, 50*time.Millisecond, func(session string) {
		mu.Lock()
		count++
		mu.Unlock()
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	path := filepath.Join(dir, "jat-signal-tmux-web-1.json")
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte(`{"type":"x"}`), 0644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(200 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if count != 1 {
		t.Errorf("nudged %d times for one burst, want 1", count)
	}
}

func TestWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()

	nudged := make(chan string, 1)
	w := New(dir, 20*time.Millisecond, func(session string) {
		nudged <- session
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case session := <-nudged:
		t.Errorf("nudged %q for an unrelated file", session)
	case <-time.After(150 * time.Millisecond):
	}
}
