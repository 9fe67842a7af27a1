// Package task integrates the bd task tracker. Sessions are linked to
// tasks by assignee: the tracker records which task a session is
// working on and which it finished last, and the state resolver treats
// those two facts as inputs alongside the terminal output.
package task

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/jat-tools/jat/internal/errors"
)

// Task statuses used by the tracker.
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusBlocked    = "blocked"
	StatusDone       = "done"
)

// Task is one tracker issue as reported by bd's JSON output.
type Task struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Status   string    `json:"status"`
	Assignee string    `json:"assignee,omitempty"`
	Updated  time.Time `json:"updated,omitzero"`
}

// Runner abstracts command execution for testability. Tests substitute
// a fake; production uses CLIRunner.
type Runner interface {
	// Run executes a command and returns its stdout.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// CLIRunner executes commands using os/exec.
type CLIRunner struct{}

// Run executes a command and returns its stdout.
func (CLIRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Client queries the bd tracker. A missing bd binary is treated as an
// empty tracker, never an error: supervision still works without it,
// sessions just resolve to idle/completed states from markers alone.
type Client struct {
	bin    string
	runner Runner
}

// NewClient creates a tracker client for the given bd binary.
// An empty bin means "bd".
func NewClient(bin string) *Client {
	return NewClientWithRunner(bin, CLIRunner{})
}

// NewClientWithRunner creates a tracker client with a custom command
// runner.
func NewClientWithRunner(bin string, runner Runner) *Client {
	if bin == "" {
		bin = "bd"
	}
	return &Client{bin: bin, runner: runner}
}

// list runs bd list with the given filters and parses the JSON result.
func (c *Client) list(ctx context.Context, args ...string) ([]Task, error) {
	output, err := c.runner.Run(ctx, c.bin, append([]string{"list", "--json"}, args...)...)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", errors.ErrTrackerUnavailable, err)
	}

	var tasks []Task
	if err := json.Unmarshal(output, &tasks); err != nil {
		return nil, fmt.Errorf("%w: parsing list output: %v", errors.ErrTrackerUnavailable, err)
	}
	return tasks, nil
}

// Assigned returns the task the session is currently working on, or
// nil when the session has none.
func (c *Client) Assigned(ctx context.Context, session string) (*Task, error) {
	tasks, err := c.list(ctx, "--assignee", session, "--status", StatusInProgress)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, nil
	}
	return &tasks[0], nil
}

// LastCompleted returns the most recently completed task assigned to
// the session, or nil when it never finished one. The flag is sticky:
// once a session has a completed task it stays completed rather than
// idle after losing its assignment.
func (c *Client) LastCompleted(ctx context.Context, session string) (*Task, error) {
	tasks, err := c.list(ctx, "--assignee", session, "--status", StatusDone)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, nil
	}

	latest := &tasks[0]
	for i := range tasks[1:] {
		if tasks[i+1].Updated.After(latest.Updated) {
			latest = &tasks[i+1]
		}
	}
	return latest, nil
}

// Show returns a single task by ID.
func (c *Client) Show(ctx context.Context, id string) (*Task, error) {
	output, err := c.runner.Run(ctx, c.bin, "show", id, "--json")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, errors.ErrTrackerUnavailable
		}
		return nil, errors.NewNotFoundError("task", id)
	}

	var t Task
	if err := json.Unmarshal(output, &t); err != nil {
		return nil, fmt.Errorf("%w: parsing show output: %v", errors.ErrTrackerUnavailable, err)
	}
	return &t, nil
}
