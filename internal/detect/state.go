// Package detect provides output analysis for classifying an agent
// session's lifecycle state. It scans the trailing window of captured
// terminal output for lifecycle markers emitted by the agent tooling and
// combines the marker positions with task-tracker state to produce a
// single activity state per session.
package detect

// ActivityState represents the derived lifecycle state of a session.
// The state is recomputed from the output window and task flags on every
// evaluation; it is never stored, so two evaluations of the same inputs
// always agree.
type ActivityState int

const (
	// StateStarting means a task is assigned but the agent has not yet
	// emitted any recognizable lifecycle marker in the trailing window.
	StateStarting ActivityState = iota

	// StateWorking means the agent has announced it is actively working
	// on the assigned task.
	StateWorking

	// StateNeedsInput means the agent is blocked waiting for a human
	// response (clarification request or an interactive prompt).
	StateNeedsInput

	// StateReadyForReview means the agent has finished its changes and
	// is waiting for a review decision.
	StateReadyForReview

	// StateCompleting means the completion routine is running but has
	// not finished yet.
	StateCompleting

	// StateCompleted means the session's most recent task finished and
	// no new task has been assigned.
	StateCompleted

	// StateIdle means the session has no assigned task and no record of
	// a completed one.
	StateIdle
)

// String returns the wire name of the activity state.
func (s ActivityState) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateWorking:
		return "working"
	case StateNeedsInput:
		return "needs-input"
	case StateReadyForReview:
		return "ready-for-review"
	case StateCompleting:
		return "completing"
	case StateCompleted:
		return "completed"
	case StateIdle:
		return "idle"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so states serialize as
// their wire names in JSON payloads.
func (s ActivityState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// IsAttended returns true if the state requires human attention
// (a blocked prompt or a finished result waiting on review).
func (s ActivityState) IsAttended() bool {
	return s == StateNeedsInput || s == StateReadyForReview
}

// Resolve derives the activity state for a session from scanned marker
// positions and the session's task flags.
//
// With an assigned task, the in-progress marker with the largest offset
// wins (most recently emitted marker in the window); if none is present
// the agent is still starting. The completed marker is deliberately
// ignored while a task is assigned, since a stale completion from the
// previous task may still be visible in the window.
//
// Without an assigned task, a visible completion marker or a recorded
// last-completed task yields completed; otherwise the session is idle.
func Resolve(pos Positions, taskAssigned, hasCompletedTask bool) ActivityState {
	if taskAssigned {
		best := StateStarting
		bestPos := -1
		for _, c := range [...]struct {
			pos   int
			state ActivityState
		}{
			{pos.NeedsInput, StateNeedsInput},
			{pos.ReadyForReview, StateReadyForReview},
			{pos.Completing, StateCompleting},
			{pos.Working, StateWorking},
		} {
			// Strict comparison: on an exact offset tie the group
			// examined first wins.
			if c.pos >= 0 && c.pos > bestPos {
				best = c.state
				bestPos = c.pos
			}
		}
		return best
	}

	if pos.Completed >= 0 || hasCompletedTask {
		return StateCompleted
	}
	return StateIdle
}

// ResolveOutput scans output and resolves the activity state in one
// step. Empty output is valid and yields starting or idle depending on
// the task flags.
func (s *Scanner) ResolveOutput(output string, taskAssigned, hasCompletedTask bool) ActivityState {
	return Resolve(s.Scan(output), taskAssigned, hasCompletedTask)
}
