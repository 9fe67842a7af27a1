package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jat-tools/jat/internal/errors"
	"github.com/jat-tools/jat/internal/sidecar"
)

const sessionsCacheKey = "sessions"

type sendKeysRequest struct {
	Keys string `json:"keys"`
}

type errorResponse struct {
	Error string `json:"error"`
	// Malformed distinguishes "signal present but corrupt" from every
	// other failure, so dashboards can render it instead of treating
	// it as absence.
	Malformed bool `json:"malformed,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error()}
	status := http.StatusInternalServerError

	var ve *errors.ValidationError
	switch {
	case errors.As(err, &ve):
		status = http.StatusBadRequest
	case errors.IsNotFound(err):
		status = http.StatusNotFound
	case errors.IsMalformed(err):
		resp.Malformed = true
	case errors.Is(err, errors.ErrTrackerUnavailable):
		status = http.StatusBadGateway
	}

	writeJSON(w, status, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	if cached, ok := s.cache.Get(sessionsCacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Write(cached)
		return
	}

	snaps, err := s.svc.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	s.metrics.sessions.Set(float64(len(snaps)))

	body, err := json.Marshal(snaps)
	if err != nil {
		writeError(w, err)
		return
	}
	s.cache.Set(sessionsCacheKey, body)

	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.Snapshot(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.Snapshot(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":       snap.Name,
		"state":      snap.State,
		"capturedAt": snap.CapturedAt,
	})
}

// handleGetOutput serves the session's retained terminal output. The
// monitor's buffer is preferred; without one a fresh capture is taken.
func (s *Server) handleGetOutput(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	if s.mon != nil {
		if out, ok := s.mon.Output(name); ok {
			writeJSON(w, http.StatusOK, map[string]any{"name": name, "output": out})
			return
		}
	}

	snap, err := s.svc.Snapshot(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"name": name, "output": snap.Output})
}

// Sidecar endpoints read the files directly: they work for sessions
// whose terminals are already gone, and they surface malformed data as
// errors rather than degrading.

// activityFreshWindow is how recently the activity file must have been
// touched for dashboards to treat the session as alive.
const activityFreshWindow = 10 * time.Minute

type activityResponse struct {
	sidecar.ActivityResult
	Fresh bool `json:"fresh"`
}

func (s *Server) handleGetActivity(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Sidecars().ReadActivity(r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, activityResponse{
		ActivityResult: res,
		Fresh:          time.Since(res.FileModifiedAt) <= activityFreshWindow,
	})
}

func (s *Server) handleGetQuestion(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Sidecars().ReadQuestion(r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetSignal(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Sidecars().ReadSignal(r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleClearSignal(w http.ResponseWriter, r *http.Request) {
	removed, err := s.svc.Sidecars().ClearSignal(r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	if removed == nil {
		removed = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"cleared": removed,
		"count":   len(removed),
	})
}

func (s *Server) handleSendKeys(w http.ResponseWriter, r *http.Request) {
	var req sendKeysRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewValidationError("body", "must be JSON with a keys field"))
		return
	}

	if err := s.svc.SendKeys(r.Context(), r.PathValue("name"), req.Keys); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sent": true})
}
