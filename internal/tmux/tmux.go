// Package tmux wraps the tmux binary for session discovery, pane
// capture, and key injection. jat never creates tmux sessions; agents
// are started by other tooling and jat only observes them.
package tmux

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/jat-tools/jat/internal/errors"
)

// Session describes one tmux session as reported by list-sessions.
type Session struct {
	Name     string    `json:"name"`
	Created  time.Time `json:"created"`
	Attached bool      `json:"attached"`
	Windows  int       `json:"windows"`
}

// Client shells out to tmux. The zero value uses the tmux on PATH and
// the default socket.
type Client struct {
	// Bin is the tmux binary. Empty means "tmux".
	Bin string
	// Socket is an alternate tmux socket path. Empty means the default.
	Socket string
}

// NewClient creates a tmux client for the given binary and socket.
func NewClient(bin, socket string) *Client {
	return &Client{Bin: bin, Socket: socket}
}

func (c *Client) binary() string {
	if c.Bin == "" {
		return "tmux"
	}
	return c.Bin
}

func (c *Client) args(args ...string) []string {
	if c.Socket != "" {
		return append([]string{"-S", c.Socket}, args...)
	}
	return args
}

// run executes a tmux command and shapes its combined output into the
// error on failure.
func (c *Client) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.binary(), c.args(args...)...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		outputStr := strings.TrimSpace(string(output))
		if isNoServer(outputStr) {
			return nil, errors.ErrNoServer
		}
		if isSessionNotFound(outputStr) {
			return nil, errors.ErrSessionNotFound
		}
		if outputStr != "" {
			return nil, fmt.Errorf("tmux %s: %w: %s", args[0], err, outputStr)
		}
		return nil, fmt.Errorf("tmux %s: %w", args[0], err)
	}
	return output, nil
}

func isNoServer(output string) bool {
	lower := strings.ToLower(output)
	return strings.Contains(lower, "no server running") ||
		strings.Contains(lower, "error connecting to")
}

func isSessionNotFound(output string) bool {
	lower := strings.ToLower(output)
	return strings.Contains(lower, "session not found") ||
		strings.Contains(lower, "can't find session") ||
		strings.Contains(lower, "no such session")
}

// ListSessions returns all tmux sessions. No tmux server running is not
// an error: the list is simply empty.
func (c *Client) ListSessions(ctx context.Context) ([]Session, error) {
	format := "#{session_name}\t#{session_created}\t#{session_attached}\t#{session_windows}"
	output, err := c.run(ctx, "list-sessions", "-F", format)
	if err != nil {
		if errors.Is(err, errors.ErrNoServer) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	return parseSessions(output)
}

// parseSessions parses tab-separated list-sessions output.
func parseSessions(output []byte) ([]Session, error) {
	var sessions []Session
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) < 4 {
			continue
		}
		sess := Session{Name: fields[0]}
		if created, err := strconv.ParseInt(fields[1], 10, 64); err == nil {
			sess.Created = time.Unix(created, 0)
		}
		sess.Attached = fields[2] != "0"
		if windows, err := strconv.Atoi(fields[3]); err == nil {
			sess.Windows = windows
		}
		sessions = append(sessions, sess)
	}
	return sessions, scanner.Err()
}

// SessionExists reports whether the named session exists.
func (c *Client) SessionExists(ctx context.Context, name string) (bool, error) {
	_, err := c.run(ctx, "has-session", "-t", "="+name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errors.ErrSessionNotFound), errors.Is(err, errors.ErrNoServer):
		return false, nil
	default:
		return false, err
	}
}

// CapturePane captures the trailing scrollback of a session's active
// pane as plain text. lines is how far back into the scrollback to
// reach; zero captures only the visible pane.
func (c *Client) CapturePane(ctx context.Context, name string, lines int) (string, error) {
	args := []string{"capture-pane", "-p", "-t", "=" + name}
	if lines > 0 {
		args = append(args, "-S", fmt.Sprintf("-%d", lines))
	}
	output, err := c.run(ctx, args...)
	if err != nil {
		return "", fmt.Errorf("failed to capture pane for %s: %w", name, err)
	}
	return string(output), nil
}

// SendKeys types keys into a session's active pane, followed by Enter.
func (c *Client) SendKeys(ctx context.Context, name, keys string) error {
	if _, err := c.run(ctx, "send-keys", "-t", "="+name, keys, "Enter"); err != nil {
		return fmt.Errorf("failed to send keys to %s: %w", name, err)
	}
	return nil
}
