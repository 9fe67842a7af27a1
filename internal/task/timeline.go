package task

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Timeline event kinds.
const (
	EventTaskAssigned  = "task_assigned"
	EventTaskCompleted = "task_completed"
	EventStateChanged  = "state_changed"
)

// TimelineEvent is one persisted supervision event. Activity states are
// never persisted as such; only transitions and task lifecycle moments
// make it into the timeline.
type TimelineEvent struct {
	Time    time.Time `yaml:"time"`
	Session string    `yaml:"session"`
	Kind    string    `yaml:"kind"`
	TaskID  string    `yaml:"task,omitempty"`
	From    string    `yaml:"from,omitempty"`
	To      string    `yaml:"to,omitempty"`
}

// Timeline appends supervision events to a YAML log, one document per
// event. Safe for concurrent use within a process; concurrent writers
// across processes are not coordinated, matching the best-effort nature
// of the log.
type Timeline struct {
	mu   sync.Mutex
	path string
}

// NewTimeline creates a timeline log at path, creating parent
// directories as needed.
func NewTimeline(path string) (*Timeline, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create timeline directory: %w", err)
	}
	return &Timeline{path: path}, nil
}

// Append writes one event to the log. A zero Time is stamped with the
// current time.
func (t *Timeline) Append(ev TimelineEvent) error {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := os.OpenFile(t.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open timeline: %w", err)
	}
	defer f.Close()

	data, err := yaml.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode timeline event: %w", err)
	}
	if _, err := fmt.Fprintf(f, "---\n%s", data); err != nil {
		return fmt.Errorf("failed to write timeline event: %w", err)
	}
	return nil
}

// Events reads back all events in the log, oldest first. A missing log
// is an empty timeline.
func (t *Timeline) Events() ([]TimelineEvent, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := os.Open(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open timeline: %w", err)
	}
	defer f.Close()

	var events []TimelineEvent
	dec := yaml.NewDecoder(f)
	for {
		var ev TimelineEvent
		if err := dec.Decode(&ev); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("failed to decode timeline event: %w", err)
		}
		events = append(events, ev)
	}
	return events, nil
}
