// Package sidecar reads the signal files that out-of-process hooks
// write alongside supervised sessions. Three independent families
// exist, each keyed by session name under a shared directory:
//
//   - activity:  jat-activity-<name>.json   {state, since, tmux_session}
//   - signal:    jat-signal-tmux-<name>.json or jat-signal-<name>.json
//   - question:  claude-question-tmux-<name>.json
//
// Absence of a file is never an error: each reader resolves it to a
// documented default. A file that exists but fails to parse is a
// distinct failure so callers can tell "no signal" from "signal present
// but corrupt".
package sidecar

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/jat-tools/jat/internal/errors"
)

// QuestionTTL is the staleness window for question records. A question
// older than this is treated as expired: the reader deletes the file
// and reports it inactive. The other two families have no enforced
// staleness; callers decide using the returned modification time.
const QuestionTTL = 5 * time.Minute

// Activity states written by the hook scripts.
const (
	ActivityGenerating = "generating"
	ActivityThinking   = "thinking"
	ActivityIdle       = "idle"
)

// ActivityRecord is the payload of an activity sidecar file.
//
// Since only updates on state transitions, not on every write. Callers
// that need staleness detection must use the file modification time
// carried on ActivityResult, not Since.
type ActivityRecord struct {
	State       string       `json:"state"`
	Since       FlexibleTime `json:"since"`
	TmuxSession string       `json:"tmux_session,omitempty"`
}

// ActivityResult is the outcome of reading an activity sidecar.
// HasActivity is always true on a successful read: an absent file is
// synthesized as idle activity stamped with the current time.
type ActivityResult struct {
	HasActivity    bool           `json:"hasActivity"`
	Activity       ActivityRecord `json:"activity"`
	FileModifiedAt time.Time      `json:"fileModifiedAt"`
}

// SignalResult is the outcome of reading a signal sidecar.
type SignalResult struct {
	Present    bool           `json:"present"`
	Type       string         `json:"type,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
	Path       string         `json:"path,omitempty"`
	ModifiedAt time.Time      `json:"modifiedAt,omitzero"`
}

// QuestionResult is the outcome of reading a question sidecar.
// Stale is set when an expired record was found and cleaned up.
type QuestionResult struct {
	Active      bool            `json:"active"`
	Stale       bool            `json:"stale,omitempty"`
	SessionID   string          `json:"session_id,omitempty"`
	TmuxSession string          `json:"tmux_session,omitempty"`
	Timestamp   FlexibleTime    `json:"timestamp,omitzero"`
	Questions   json.RawMessage `json:"questions,omitempty"`
	ModifiedAt  time.Time       `json:"modifiedAt,omitzero"`
}

// questionRecord is the on-disk shape of a question sidecar file.
type questionRecord struct {
	SessionID   string          `json:"session_id"`
	TmuxSession string          `json:"tmux_session"`
	Timestamp   FlexibleTime    `json:"timestamp"`
	Questions   json.RawMessage `json:"questions"`
}

// Store reads and clears sidecar files under a base directory.
// The zero value is not usable; use NewStore.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir. An empty dir falls back to
// the system temporary directory, where the hook scripts write.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Store{dir: dir}
}

// Dir returns the base directory the store reads from.
func (s *Store) Dir() string {
	return s.dir
}

// ActivityPath returns the activity sidecar path for a session.
func (s *Store) ActivityPath(session string) string {
	return filepath.Join(s.dir, "jat-activity-"+session+".json")
}

// SignalPaths returns the candidate signal sidecar paths for a session,
// in lookup order. Two naming conventions exist for historical reasons;
// the first existing file wins.
func (s *Store) SignalPaths(session string) []string {
	return []string{
		filepath.Join(s.dir, "jat-signal-tmux-"+session+".json"),
		filepath.Join(s.dir, "jat-signal-"+session+".json"),
	}
}

// QuestionPath returns the question sidecar path for a session.
func (s *Store) QuestionPath(session string) string {
	return filepath.Join(s.dir, "claude-question-tmux-"+session+".json")
}

// ReadActivity reads the activity sidecar for a session. An absent file
// yields synthesized idle activity stamped with the current time, not
// an error. A file that exists but fails to parse returns a
// SidecarError.
func (s *Store) ReadActivity(session string) (ActivityResult, error) {
	path := s.ActivityPath(session)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			now := time.Now()
			return ActivityResult{
				HasActivity:    true,
				Activity:       ActivityRecord{State: ActivityIdle, Since: FlexibleTime{Time: now}},
				FileModifiedAt: now,
			}, nil
		}
		return ActivityResult{}, errors.NewSidecarError(path, "read failed", err)
	}

	var rec ActivityRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return ActivityResult{}, errors.NewSidecarParseError(path, err)
	}

	res := ActivityResult{HasActivity: true, Activity: rec}
	if info, err := os.Stat(path); err == nil {
		res.FileModifiedAt = info.ModTime()
	} else {
		// File vanished between read and stat; fall back to now.
		res.FileModifiedAt = time.Now()
	}
	return res, nil
}

// ReadSignal reads the signal sidecar for a session, trying both naming
// conventions in order. No staleness window is enforced here; the
// caller decides using ModifiedAt. An absent signal is not an error.
func (s *Store) ReadSignal(session string) (SignalResult, error) {
	for _, path := range s.SignalPaths(session) {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return SignalResult{}, errors.NewSidecarError(path, "read failed", err)
		}

		var payload map[string]any
		if err := json.Unmarshal(data, &payload); err != nil {
			return SignalResult{}, errors.NewSidecarParseError(path, err)
		}

		res := SignalResult{Present: true, Payload: payload, Path: path}
		if typ, ok := payload["type"].(string); ok {
			res.Type = typ
		}
		if info, err := os.Stat(path); err == nil {
			res.ModifiedAt = info.ModTime()
		}
		return res, nil
	}

	return SignalResult{}, nil
}

// ClearSignal removes the signal sidecar for a session. Both candidate
// paths are deleted unconditionally; clearing an absent signal is a
// no-op. Returns the paths that were actually removed.
func (s *Store) ClearSignal(session string) ([]string, error) {
	var removed []string
	for _, path := range s.SignalPaths(session) {
		err := os.Remove(path)
		switch {
		case err == nil:
			removed = append(removed, path)
		case errors.Is(err, fs.ErrNotExist):
			// Already gone.
		default:
			return removed, errors.NewSidecarError(path, "remove failed", err)
		}
	}
	return removed, nil
}

// ReadQuestion reads the question sidecar for a session. An absent file
// yields an inactive result. A record older than QuestionTTL is
// expired: the file is deleted and the result reports inactive and
// stale. Expiry is judged by file modification time, since the hook
// rewrites the file whenever the question changes.
func (s *Store) ReadQuestion(session string) (QuestionResult, error) {
	path := s.QuestionPath(session)

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return QuestionResult{}, nil
		}
		return QuestionResult{}, errors.NewSidecarError(path, "stat failed", err)
	}

	if time.Since(info.ModTime()) > QuestionTTL {
		// Self-cleaning expiry: remove the stale record on read.
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return QuestionResult{}, errors.NewSidecarError(path, "remove stale record failed", err)
		}
		return QuestionResult{Stale: true}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return QuestionResult{}, nil
		}
		return QuestionResult{}, errors.NewSidecarError(path, "read failed", err)
	}

	var rec questionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return QuestionResult{}, errors.NewSidecarParseError(path, err)
	}

	return QuestionResult{
		Active:      true,
		SessionID:   rec.SessionID,
		TmuxSession: rec.TmuxSession,
		Timestamp:   rec.Timestamp,
		Questions:   rec.Questions,
		ModifiedAt:  info.ModTime(),
	}, nil
}
