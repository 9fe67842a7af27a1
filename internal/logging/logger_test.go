package logging

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestNewLogger_WritesJSONToFile(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewLogger(dir, LevelDebug)
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	logger.WithSession("web-1").WithComponent("monitor").Info("state changed",
		"from", "starting", "to", "working")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "jat.log"))
	if err != nil {
		t.Fatalf("opening log file: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		t.Fatal("log file is empty")
	}

	var entry map[string]any
	if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["msg"] != "state changed" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["session"] != "web-1" || entry["component"] != "monitor" {
		t.Errorf("persistent attrs missing: %v", entry)
	}
	if entry["from"] != "starting" || entry["to"] != "working" {
		t.Errorf("call attrs missing: %v", entry)
	}
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewLogger(dir, LevelWarn)
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	logger.Info("should be filtered")
	logger.Warn("should appear")
	logger.Close()

	data, err := os.ReadFile(filepath.Join(dir, "jat.log"))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if string(data) == "" {
		t.Fatal("warn entry missing")
	}

	var entry map[string]any
	if err := json.Unmarshal(data[:len(data)-1], &entry); err != nil {
		t.Fatalf("expected exactly one JSON line, got %q", data)
	}
	if entry["msg"] != "should appear" {
		t.Errorf("msg = %v", entry["msg"])
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"nonsense", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tc := range tests {
		if got := parseLevel(tc.in); got != tc.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestWith_ChildDoesNotMutateParent(t *testing.T) {
	parent := NopLogger()
	child := parent.With("key", "value")

	if len(parent.attrs) != 0 {
		t.Error("parent attrs mutated by With")
	}
	if len(child.attrs) != 1 {
		t.Errorf("child attrs = %d, want 1", len(child.attrs))
	}
}

func TestNopLogger(t *testing.T) {
	logger := NopLogger()
	logger.Info("discarded")
	if err := logger.Close(); err != nil {
		t.Errorf("Close() on nop logger error = %v", err)
	}
}
