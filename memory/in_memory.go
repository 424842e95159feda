package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/taskvoice/core"
)

// Options configure strength scoring for a store instance.
type Options struct {
	// HalfLife of the exponential idle decay. Defaults to DefaultHalfLife.
	HalfLife time.Duration
	// StrengthWeight caps the strength boost added to the similarity score.
	StrengthWeight float64
	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

func (o *Options) applyDefaults() {
	if o.HalfLife <= 0 {
		o.HalfLife = DefaultHalfLife
	}
	if o.StrengthWeight <= 0 {
		o.StrengthWeight = DefaultStrengthWeight
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
}

// InMemoryStore is a process-local ActionStore. Records are kept in insertion
// order; Append is the only mutator of record content, while Search updates
// only the recall accounting (access count, strength, last access) of the
// records it returns.
type InMemoryStore struct {
	mu      sync.RWMutex
	opts    Options
	records []*core.ActionRecord
	byID    map[string]*core.ActionRecord
}

// NewInMemoryStore constructs an empty in-memory action store.
func NewInMemoryStore(optFns ...func(o *Options)) *InMemoryStore {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.applyDefaults()
	return &InMemoryStore{opts: opts, byID: make(map[string]*core.ActionRecord)}
}

// Append adds a record to the log. A missing ID or timestamp is filled in;
// an already-used ID is rejected so existing history can never be rewritten.
func (s *InMemoryStore) Append(_ context.Context, r *core.ActionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if _, exists := s.byID[r.ID]; exists {
		return fmt.Errorf("record %s already appended", r.ID)
	}
	cp := r.Clone()
	if cp.Timestamp.IsZero() {
		cp.Timestamp = s.opts.Clock().UTC()
	}
	if cp.Strength == 0 {
		cp.Strength = InitialStrength
	}
	if cp.LastAccess.IsZero() {
		cp.LastAccess = cp.Timestamp
	}
	s.records = append(s.records, cp)
	s.byID[cp.ID] = cp
	return nil
}

// Search returns the top-k records ranked by cosine similarity to the query
// blended with the bounded strength boost. Ties preserve insertion order.
// The context deadline is honored: once exceeded the result is an empty list
// with core.ErrSearchTimeout, never a truncated ranking. Returned records
// count as accessed.
func (s *InMemoryStore) Search(ctx context.Context, query []float32, k int, filter core.ActionFilter) ([]core.ActionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSearchTimeout, err)
	}
	if k <= 0 {
		return []core.ActionRecord{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.opts.Clock().UTC()

	type scored struct {
		rec   *core.ActionRecord
		score float64
	}
	candidates := make([]scored, 0, len(s.records))
	for _, rec := range s.records {
		if !filter.Matches(rec) || len(rec.Embedding) == 0 {
			continue
		}
		sim := cosineSimilarity(query, rec.Embedding)
		if sim <= 0 {
			continue
		}
		eff := decayedStrength(rec.Strength, rec.LastAccess, now, s.opts.HalfLife)
		candidates = append(candidates, scored{rec: rec, score: sim + strengthBoost(eff, s.opts.StrengthWeight)})
	}

	// Check the deadline after the scoring pass so a timeout never yields a
	// partially ranked list.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSearchTimeout, err)
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	out := make([]core.ActionRecord, 0, len(candidates))
	for _, c := range candidates {
		s.touchLocked(c.rec, now)
		out = append(out, *c.rec.Clone())
	}
	return out, nil
}

// GetRecent returns records by actor within the trailing window, oldest
// first. It needs no embeddings and performs no access accounting.
func (s *InMemoryStore) GetRecent(ctx context.Context, actor string, window time.Duration) ([]core.ActionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSearchTimeout, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	cutoff := s.opts.Clock().UTC().Add(-window)
	out := make([]core.ActionRecord, 0)
	for _, rec := range s.records {
		if actor != "" && rec.Actor != actor {
			continue
		}
		if rec.Timestamp.Before(cutoff) {
			continue
		}
		out = append(out, *rec.Clone())
	}
	return out, nil
}

// Get returns a single record by id, without access accounting.
func (s *InMemoryStore) Get(id string) (*core.ActionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return rec.Clone(), nil
}

// Len returns the number of appended records.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// touchLocked applies the access bump: decay to now, then gain.
func (s *InMemoryStore) touchLocked(rec *core.ActionRecord, now time.Time) {
	rec.Strength = decayedStrength(rec.Strength, rec.LastAccess, now, s.opts.HalfLife) + accessGain
	rec.AccessCount++
	rec.LastAccess = now
}
