package core

import "time"

// SessionContext is the explicit per-session ambient state threaded through
// dispatch: the "current" project/task pointers an utterance like "the doc"
// resolves against, plus the id of the last committed action. It is a value,
// not shared mutable state; stores hand out copies.
type SessionContext struct {
	SessionID      string     `json:"session_id"`
	CurrentProject *EntityRef `json:"current_project_ref,omitempty"`
	CurrentTask    *EntityRef `json:"current_task_ref,omitempty"`
	LastAction     string     `json:"last_action,omitempty"`
	ExpiresAt      time.Time  `json:"expires_at"`
}

// Clone returns a copy with independent pointer fields.
func (c *SessionContext) Clone() *SessionContext {
	if c == nil {
		return nil
	}
	cp := *c
	if c.CurrentProject != nil {
		p := *c.CurrentProject
		cp.CurrentProject = &p
	}
	if c.CurrentTask != nil {
		t := *c.CurrentTask
		cp.CurrentTask = &t
	}
	return &cp
}

// ContextStore is the ephemeral short-term store for session context.
//
// Contract:
//   - Set refreshes the entry's TTL (configured at store construction)
//   - Get after the TTL has elapsed returns ErrNotFound, never a stale value
//   - Sessions are fully isolated from one another
type ContextStore interface {
	Get(sessionID string) (*SessionContext, error)
	Set(sessionID string, sc *SessionContext) error
	Delete(sessionID string) error
}
