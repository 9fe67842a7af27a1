// Package watch nudges the monitor when sidecar files change, so state
// updates land within the debounce window instead of waiting for the
// next poll tick. It is an optimization only: correctness comes from
// polling, and a lost file event is recovered one tick later.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jat-tools/jat/internal/logging"
)

// sidecarPrefixes maps file-name prefixes back to session names.
// Longer prefixes first so jat-signal-tmux- wins over jat-signal-.
var sidecarPrefixes = []string{
	"claude-question-tmux-",
	"jat-signal-tmux-",
	"jat-activity-",
	"jat-signal-",
}

// SessionFromFilename extracts the session name from a sidecar file
// name, or "" if the file is not a sidecar.
func SessionFromFilename(name string) string {
	if !strings.HasSuffix(name, ".json") {
		return ""
	}
	base := strings.TrimSuffix(name, ".json")
	for _, prefix := range sidecarPrefixes {
		if strings.HasPrefix(base, prefix) {
			return strings.TrimPrefix(base, prefix)
		}
	}
	return ""
}

// NudgeFunc receives the name of a session whose sidecar changed.
type NudgeFunc func(session string)

// Watcher observes the sidecar directory and reports changed sessions
// after a per-session debounce.
type Watcher struct {
	dir      string
	debounce time.Duration
	nudge    NudgeFunc
	logger   *logging.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// New creates a watcher over dir. Each changed session is reported at
// most once per debounce window, after the window settles.
func New(dir string, debounce time.Duration, nudge NudgeFunc, logger *logging.Logger) *Watcher {
	if logger == nil {
		logger = logging.NopLogger()
	}
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		nudge:    nudge,
		logger:   logger.WithComponent("watch"),
		timers:   make(map[string]*time.Timer),
	}
}

// Run watches until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.logger.Info("watching sidecar directory", "dir", w.dir)

	for {
		select {
		case <-ctx.Done():
			w.stopTimers()
			return ctx.Err()
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			session := SessionFromFilename(filepath.Base(ev.Name))
			if session == "" {
				continue
			}
			w.schedule(session)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

// schedule (re)arms the debounce timer for a session.
func (w *Watcher) schedule(session string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.timers[session]; ok {
		timer.Reset(w.debounce)
		return
	}
	w.timers[session] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, session)
		w.mu.Unlock()
		w.nudge(session)
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for session, timer := range w.timers {
		timer.Stop()
		delete(w.timers, session)
	}
}
