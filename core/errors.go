package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an entity, session context or handoff
	// payload does not exist (or is past its TTL).
	ErrNotFound = errors.New("not found")

	// ErrSearchTimeout is returned when an ActionStore search exceeded the
	// caller-supplied deadline. The accompanying result is always empty;
	// a truncated list is never presented as complete.
	ErrSearchTimeout = errors.New("search timed out")
)

// ConflictError reports an optimistic-concurrency failure: the submitted
// version no longer matches the stored one. The write did not happen and is
// retryable against refreshed state.
type ConflictError struct {
	Ref      EntityRef
	Expected int64
	Actual   int64
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("version conflict on %s %s: submitted %d, stored %d", e.Ref.Type, e.Ref.ID, e.Expected, e.Actual)
}

// IsConflict reports whether err is (or wraps) a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// AmbiguousReferenceError reports multiple viable candidates for a reference.
// It is recoverable: dispatch converts it into a ClarificationRequest rather
// than failing the batch.
type AmbiguousReferenceError struct {
	Reference  string
	Candidates []Candidate
}

// Error implements the error interface.
func (e *AmbiguousReferenceError) Error() string {
	return fmt.Sprintf("ambiguous reference %q: %d candidates", e.Reference, len(e.Candidates))
}

// ReferenceNotFoundError reports that no viable candidate exists for a
// reference. Callers may offer entity creation in response.
type ReferenceNotFoundError struct {
	Reference string
	Type      EntityType
}

// Error implements the error interface.
func (e *ReferenceNotFoundError) Error() string {
	return fmt.Sprintf("no %s matches reference %q", e.Type, e.Reference)
}

// StoreUnavailableError wraps a persistence failure. It aborts the remaining
// batch; already-committed records stand.
type StoreUnavailableError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("store unavailable during %s: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *StoreUnavailableError) Unwrap() error { return e.Err }
