// Package errors provides centralized error definitions for the jat
// codebase: domain sentinels, semantic error types, and classification
// helpers. Callers import this package instead of the standard library
// errors package.
//
// The one distinction that matters throughout jat is absence versus
// corruption: a missing sidecar file or tmux session is a well-defined
// default state and never an error, while a present-but-unparsable
// sidecar file must surface as a failure the caller can tell apart from
// "no signal". SidecarError carries that distinction.
package errors

import (
	"errors"
	"fmt"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Session-related sentinel errors
var (
	// ErrSessionNotFound indicates that no tmux session with the given
	// name exists.
	ErrSessionNotFound = New("session not found")
	// ErrNoServer indicates that no tmux server is running.
	ErrNoServer = New("no tmux server running")
)

// Sidecar-related sentinel errors
var (
	// ErrSidecarMalformed indicates a sidecar file that exists but does
	// not parse. Distinct from absence, which is not an error.
	ErrSidecarMalformed = New("sidecar file malformed")
)

// Tracker-related sentinel errors
var (
	// ErrTrackerUnavailable indicates the bd binary is missing or
	// failed to run.
	ErrTrackerUnavailable = New("task tracker unavailable")
	// ErrTaskNotFound indicates that a task could not be found.
	ErrTaskNotFound = New("task not found")
)

// SidecarError represents a failure reading a sidecar signal file.
// It records which file failed so callers can report or clean it up.
// Only parse failures count as malformed; IO failures (read, stat,
// remove) say nothing about the file's content.
type SidecarError struct {
	Path      string
	message   string
	cause     error
	malformed bool
}

// NewSidecarError creates a new SidecarError for an IO failure on the
// given file.
func NewSidecarError(path, message string, cause error) *SidecarError {
	return &SidecarError{Path: path, message: message, cause: cause}
}

// NewSidecarParseError creates a SidecarError for a file that exists
// but does not parse. These match ErrSidecarMalformed.
func NewSidecarParseError(path string, cause error) *SidecarError {
	return &SidecarError{Path: path, message: "parse failed", cause: cause, malformed: true}
}

// Error returns the formatted error message.
func (e *SidecarError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("sidecar %s: %s: %v", e.Path, e.message, e.cause)
	}
	return fmt.Sprintf("sidecar %s: %s", e.Path, e.message)
}

// Unwrap returns the underlying error.
func (e *SidecarError) Unwrap() error {
	return e.cause
}

// Is reports whether this error matches the target error.
func (e *SidecarError) Is(target error) bool {
	if target == ErrSidecarMalformed {
		return e.malformed
	}
	return e.cause != nil && errors.Is(e.cause, target)
}

// NotFoundError indicates that a named resource does not exist.
type NotFoundError struct {
	Resource string
	Name     string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resource, name string) *NotFoundError {
	return &NotFoundError{Resource: resource, Name: name}
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.Name)
}

// Is lets errors.Is match a session NotFoundError against
// ErrSessionNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrSessionNotFound && e.Resource == "session"
}

// ValidationError indicates invalid input from a caller.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return e.Message
}

// IsNotFound reports whether err represents a missing resource.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf) || errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrTaskNotFound)
}

// IsMalformed reports whether err represents corrupt sidecar data, as
// opposed to an absent file.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrSidecarMalformed)
}
