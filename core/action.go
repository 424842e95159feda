package core

import (
	"context"
	"time"
)

// ActionType classifies a committed mutation recorded in the action log.
type ActionType string

const (
	// ActionCreate records entity creation.
	ActionCreate ActionType = "create"
	// ActionComplete records a task moving to done.
	ActionComplete ActionType = "complete"
	// ActionProgress records a task moving to (or continuing) in_progress.
	ActionProgress ActionType = "progress"
	// ActionDefer records a deferral with an optional reason and target time.
	ActionDefer ActionType = "defer"
	// ActionNote records a note appended to an entity.
	ActionNote ActionType = "note"
	// ActionDecision records a decision appended to a project.
	ActionDecision ActionType = "decision"
	// ActionReopen records an explicit backward status transition.
	ActionReopen ActionType = "reopen"
	// ActionReversal records the compensating half of a correction. The
	// Metadata key "reverses" carries the id of the record being reversed.
	ActionReversal ActionType = "reversal"
)

// ActionRecord is one immutable entry in the append-only action log. After a
// successful Append the record's identity, content and timestamp never
// change; AccessCount, Strength and LastAccess are store-side recall
// accounting and are the only fields a store may touch afterwards.
type ActionRecord struct {
	ID        string            `json:"id"`
	Actor     string            `json:"actor"`
	SessionID string            `json:"session_id,omitempty"`
	Type      ActionType        `json:"action_type"`
	Target    EntityRef         `json:"target_ref"`
	Summary   string            `json:"summary"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Embedding []float32         `json:"embedding,omitempty"`

	// Recall accounting (owned by the ActionStore).
	AccessCount int       `json:"access_count"`
	Strength    float64   `json:"strength"`
	LastAccess  time.Time `json:"last_access"`
}

// Clone returns a deep copy of the record.
func (r *ActionRecord) Clone() *ActionRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.Embedding = append([]float32(nil), r.Embedding...)
	if r.Metadata != nil {
		c.Metadata = make(map[string]string, len(r.Metadata))
		for k, v := range r.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

// ActionFilter narrows an ActionStore search. Zero values match everything.
type ActionFilter struct {
	Actor     string
	SessionID string
	Types     []ActionType
	Target    *EntityRef
}

// Matches reports whether the record passes the filter.
func (f ActionFilter) Matches(r *ActionRecord) bool {
	if f.Actor != "" && r.Actor != f.Actor {
		return false
	}
	if f.SessionID != "" && r.SessionID != f.SessionID {
		return false
	}
	if f.Target != nil && *f.Target != r.Target {
		return false
	}
	if len(f.Types) > 0 {
		ok := false
		for _, t := range f.Types {
			if r.Type == t {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// ActionStore is the durable long-term memory: an append-only action log with
// vector recall.
//
// Contract:
//   - Append is the only mutator and never alters a previously appended record
//   - Search ranks by vector distance blended with a bounded strength boost
//     (strength rises on access, decays with idle time, and is never the sole
//     ranking criterion); ties preserve insertion order
//   - Search honors the context deadline: on expiry it returns
//     ErrSearchTimeout with an empty result, never a partial list
//   - GetRecent supports plain chronological queries without embeddings
type ActionStore interface {
	Append(ctx context.Context, r *ActionRecord) error
	Search(ctx context.Context, query []float32, k int, filter ActionFilter) ([]ActionRecord, error)
	GetRecent(ctx context.Context, actor string, window time.Duration) ([]ActionRecord, error)
}
