// Package channel contains concrete HandoffChannel implementations: the
// short-TTL, single-consumption slot used to pass a payload between
// cooperating agents. The interface and the HandoffSlot type reside in the
// core package; depend on core.HandoffChannel in your code and select an
// implementation at wiring time.
package channel

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/taskvoice/core"
)

// DefaultTTL bounds how long a published payload stays consumable.
const DefaultTTL = 10 * time.Minute

// Options configure a channel instance.
type Options struct {
	// DefaultTTL applies when Publish is called with a non-positive ttl.
	DefaultTTL time.Duration
	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// InMemoryChannel is a process-local HandoffChannel. A single mutex makes
// Consume a compare-and-clear: under concurrent callers exactly one observes
// the payload, every other one gets core.ErrNotFound. Expired payloads are
// invisible to Consume even before Sweep reclaims them.
type InMemoryChannel struct {
	mu         sync.Mutex
	defaultTTL time.Duration
	clock      func() time.Time
	slots      map[string]*core.HandoffSlot
}

// NewInMemoryChannel constructs an empty in-memory handoff channel.
func NewInMemoryChannel(optFns ...func(o *Options)) *InMemoryChannel {
	opts := Options{DefaultTTL: DefaultTTL, Clock: time.Now}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = DefaultTTL
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &InMemoryChannel{defaultTTL: opts.DefaultTTL, clock: opts.Clock, slots: make(map[string]*core.HandoffSlot)}
}

// Publish stores the payload at key, overwriting any unconsumed payload
// already there.
func (c *InMemoryChannel) Publish(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	now := c.clock().UTC()
	cp := make([]byte, len(payload))
	copy(cp, payload)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots[key] = &core.HandoffSlot{
		Key:        key,
		Payload:    cp,
		ProducedAt: now,
		ExpiresAt:  now.Add(ttl),
	}
	return nil
}

// Consume atomically returns-and-clears the payload at key. At most one call
// ever succeeds per published payload; expired payloads are treated as
// absent.
func (c *InMemoryChannel) Consume(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	slot, ok := c.slots[key]
	if !ok {
		return nil, core.ErrNotFound
	}
	if slot.Expired(c.clock().UTC()) {
		delete(c.slots, key)
		return nil, core.ErrNotFound
	}
	delete(c.slots, key)
	return slot.Payload, nil
}

// Sweep physically removes expired slots and returns how many were dropped.
func (c *InMemoryChannel) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock().UTC()
	removed := 0
	for key, slot := range c.slots {
		if slot.Expired(now) {
			delete(c.slots, key)
			removed++
		}
	}
	return removed
}
