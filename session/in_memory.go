package session

import (
	"sync"
	"time"

	"github.com/hupe1980/taskvoice/core"
)

// DefaultTTL is how long a session context survives after its last write.
const DefaultTTL = 2 * time.Hour

// Options configure the in-memory context store.
type Options struct {
	// TTL applied on every Set. Defaults to DefaultTTL.
	TTL time.Duration
	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

type entry struct {
	ctx       *core.SessionContext
	expiresAt time.Time
}

// InMemoryStore is a volatile ContextStore keeping contexts in a process
// local map guarded by an RWMutex. Each returned context is cloned to prevent
// external mutation of internal state. Sessions are fully isolated; one
// writer per session is assumed but reads are safe concurrently.
type InMemoryStore struct {
	mu      sync.RWMutex
	ttl     time.Duration
	clock   func() time.Time
	entries map[string]entry
}

// NewInMemoryStore constructs an empty in-memory context store.
func NewInMemoryStore(optFns ...func(o *Options)) *InMemoryStore {
	opts := Options{TTL: DefaultTTL, Clock: time.Now}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &InMemoryStore{ttl: opts.TTL, clock: opts.Clock, entries: make(map[string]entry)}
}

// Get returns a clone of the stored context or core.ErrNotFound once the TTL
// has elapsed. An expired entry is removed on the way out.
func (s *InMemoryStore) Get(sessionID string) (*core.SessionContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[sessionID]
	if !ok {
		return nil, core.ErrNotFound
	}
	if s.clock().After(e.expiresAt) {
		delete(s.entries, sessionID)
		return nil, core.ErrNotFound
	}
	return e.ctx.Clone(), nil
}

// Set stores a clone of the context and refreshes its TTL. The stored copy's
// ExpiresAt reflects the new deadline.
func (s *InMemoryStore) Set(sessionID string, sc *core.SessionContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := sc.Clone()
	cp.SessionID = sessionID
	cp.ExpiresAt = s.clock().Add(s.ttl)
	s.entries[sessionID] = entry{ctx: cp, expiresAt: cp.ExpiresAt}
	return nil
}

// Delete removes the session context if present.
func (s *InMemoryStore) Delete(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionID)
	return nil
}

// Sweep physically removes expired entries and returns how many were dropped.
// Expiry is already enforced logically on Get; Sweep only reclaims memory.
func (s *InMemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock()
	removed := 0
	for id, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}
