package core

import (
	"context"
	"time"
)

// HandoffSlot is a short-lived, single-consumption message passed between
// cooperating agents.
type HandoffSlot struct {
	Key        string    `json:"key"`
	Payload    []byte    `json:"payload"`
	ProducedAt time.Time `json:"produced_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	Consumed   bool      `json:"consumed"`
}

// Expired reports whether the slot is past its TTL at the given instant.
func (s HandoffSlot) Expired(now time.Time) bool { return now.After(s.ExpiresAt) }

// HandoffChannel is the inter-agent handoff surface.
//
// Contract:
//   - Publish overwrites any unconsumed payload at the key
//   - Consume atomically returns-and-clears the payload exactly once; any
//     concurrent or subsequent call observes ErrNotFound (compare-and-clear)
//   - Payloads past their TTL are invisible to Consume even before physical
//     cleanup runs
type HandoffChannel interface {
	Publish(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	Consume(ctx context.Context, key string) ([]byte, error)
}
