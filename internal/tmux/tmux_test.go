package tmux

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jat-tools/jat/internal/errors"
)

// stubTmux writes an executable script that stands in for the tmux
// binary, so client behavior can be tested without a tmux server.
func stubTmux(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tmux")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatalf("writing stub tmux: %v", err)
	}
	return path
}

func TestParseSessions(t *testing.T) {
	output := []byte("web-1\t1700000000\t1\t3\napi-2\t1700000100\t0\t1\nmalformed line\n")

	sessions, err := parseSessions(output)
	if err != nil {
		t.Fatalf("parseSessions() error = %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("parsed %d sessions, want 2", len(sessions))
	}

	if sessions[0].Name != "web-1" || !sessions[0].Attached || sessions[0].Windows != 3 {
		t.Errorf("first session = %+v", sessions[0])
	}
	if sessions[0].Created.Unix() != 1700000000 {
		t.Errorf("Created = %v", sessions[0].Created)
	}
	if sessions[1].Name != "api-2" || sessions[1].Attached {
		t.Errorf("second session = %+v", sessions[1])
	}
}

func TestParseSessions_Empty(t *testing.T) {
	sessions, err := parseSessions(nil)
	if err != nil {
		t.Fatalf("parseSessions(nil) error = %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("parsed %d sessions from empty output", len(sessions))
	}
}

func TestListSessions_NoServerIsNotAnError(t *testing.T) {
	bin := stubTmux(t, `echo "no server running on /tmp/tmux-1000/default" >&2; exit 1`)
	c := NewClient(bin, "")

	sessions, err := c.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("ListSessions() error = %v, want nil", err)
	}
	if sessions != nil {
		t.Errorf("sessions = %v, want nil", sessions)
	}
}

func TestListSessions_Output(t *testing.T) {
	bin := stubTmux(t, `printf 'web-1\t1700000000\t0\t1\n'`)
	c := NewClient(bin, "")

	sessions, err := c.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(sessions) != 1 || sessions[0].Name != "web-1" {
		t.Errorf("sessions = %+v", sessions)
	}
}

func TestSessionExists(t *testing.T) {
	found := NewClient(stubTmux(t, `exit 0`), "")
	ok, err := found.SessionExists(context.Background(), "web-1")
	if err != nil || !ok {
		t.Errorf("SessionExists() = %v, %v, want true, nil", ok, err)
	}

	missing := NewClient(stubTmux(t, `echo "can't find session: web-1" >&2; exit 1`), "")
	ok, err = missing.SessionExists(context.Background(), "web-1")
	if err != nil || ok {
		t.Errorf("SessionExists() = %v, %v, want false, nil", ok, err)
	}
}

func TestCapturePane_SessionNotFound(t *testing.T) {
	c := NewClient(stubTmux(t, `echo "can't find session: gone" >&2; exit 1`), "")

	_, err := c.CapturePane(context.Background(), "gone", 0)
	if !errors.Is(err, errors.ErrSessionNotFound) {
		t.Errorf("error = %v, want ErrSessionNotFound", err)
	}
}

func TestCapturePane_ReturnsText(t *testing.T) {
	c := NewClient(stubTmux(t, `printf '[JAT:WORKING task=abc-1]\n'`), "")

	text, err := c.CapturePane(context.Background(), "web-1", 200)
	if err != nil {
		t.Fatalf("CapturePane() error = %v", err)
	}
	if text != "[JAT:WORKING task=abc-1]\n" {
		t.Errorf("CapturePane() = %q", text)
	}
}

func TestClient_SocketArgs(t *testing.T) {
	c := NewClient("tmux", "/tmp/sock")
	args := c.args("list-sessions")
	if len(args) != 3 || args[0] != "-S" || args[1] != "/tmp/sock" {
		t.Errorf("args = %v", args)
	}

	bare := NewClient("tmux", "")
	if got := bare.args("has-session"); len(got) != 1 || got[0] != "has-session" {
		t.Errorf("args without socket = %v", got)
	}
}

func TestErrorClassifiers(t *testing.T) {
	if !isNoServer("no server running on /private/tmp/tmux-501/default") {
		t.Error("isNoServer missed the standard message")
	}
	if !isSessionNotFound("can't find session: web-1") {
		t.Error("isSessionNotFound missed the standard message")
	}
	if isNoServer("some other failure") || isSessionNotFound("some other failure") {
		t.Error("classifier matched an unrelated message")
	}
}
