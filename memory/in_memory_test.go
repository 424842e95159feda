package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/hupe1980/taskvoice/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Interface compliance (compile-time assertions)
var (
	_ core.ActionStore = (*InMemoryStore)(nil)
	_ core.ActionStore = (*SQLiteStore)(nil)
)

func record(id, actor string, embedding []float32) *core.ActionRecord {
	return &core.ActionRecord{
		ID:        id,
		Actor:     actor,
		Type:      core.ActionNote,
		Target:    core.EntityRef{Type: core.EntityTask, ID: "t-" + id},
		Summary:   "summary " + id,
		Embedding: embedding,
	}
}

func TestAppendAssignsDefaults(t *testing.T) {
	s := NewInMemoryStore()
	r := &core.ActionRecord{Actor: "user", Type: core.ActionNote}
	require.NoError(t, s.Append(context.Background(), r))
	assert.NotEmpty(t, r.ID)

	got, err := s.Get(r.ID)
	require.NoError(t, err)
	assert.False(t, got.Timestamp.IsZero())
	assert.Equal(t, InitialStrength, got.Strength)
}

func TestAppendRejectsDuplicateID(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, record("r1", "user", nil)))
	assert.Error(t, s.Append(ctx, record("r1", "user", nil)), "history is append-only")
}

func TestAppendNeverMutatesPriorRecords(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	first := record("r1", "user", []float32{1, 0})
	require.NoError(t, s.Append(ctx, first))

	before, _ := s.Get("r1")
	require.NoError(t, s.Append(ctx, record("r2", "user", []float32{0, 1})))
	after, _ := s.Get("r1")

	assert.Equal(t, before.Summary, after.Summary)
	assert.Equal(t, before.Timestamp, after.Timestamp)
	assert.Equal(t, before.Embedding, after.Embedding)
}

func TestSearchRanksBySimilarity(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, record("far", "user", []float32{0, 1, 0})))
	require.NoError(t, s.Append(ctx, record("near", "user", []float32{1, 0.1, 0})))

	res, err := s.Search(ctx, []float32{1, 0, 0}, 2, core.ActionFilter{})
	require.NoError(t, err)
	require.NotEmpty(t, res)
	assert.Equal(t, "near", res[0].ID)
}

func TestSearchPreservesInsertionOrderOnTies(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Append(ctx, record(fmt.Sprintf("r%d", i), "user", []float32{1, 0})))
	}

	res, err := s.Search(ctx, []float32{1, 0}, 5, core.ActionFilter{})
	require.NoError(t, err)
	require.Len(t, res, 5)
	for i, r := range res {
		assert.Equal(t, fmt.Sprintf("r%d", i), r.ID, "equal-relevance ties keep insertion order")
	}
}

func TestSearchStrengthBoostBreaksTies(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, record("cold", "user", []float32{1, 0})))
	require.NoError(t, s.Append(ctx, record("hot", "user", []float32{1, 0})))

	// Access "hot" a few times through a filtered search.
	for i := 0; i < 3; i++ {
		_, err := s.Search(ctx, []float32{1, 0}, 1, core.ActionFilter{Target: &core.EntityRef{Type: core.EntityTask, ID: "t-hot"}})
		require.NoError(t, err)
	}

	res, err := s.Search(ctx, []float32{1, 0}, 2, core.ActionFilter{})
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "hot", res[0].ID, "accessed record wins the relevance tie")
	assert.Greater(t, res[0].AccessCount, res[1].AccessCount)
}

func TestSearchStrengthNeverDominates(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, record("relevant", "user", []float32{1, 0})))
	require.NoError(t, s.Append(ctx, record("strong", "user", []float32{0.2, 1})))

	// Pump the weakly relevant record's strength hard.
	for i := 0; i < 20; i++ {
		_, err := s.Search(ctx, []float32{0, 1}, 1, core.ActionFilter{})
		require.NoError(t, err)
	}

	res, err := s.Search(ctx, []float32{1, 0}, 1, core.ActionFilter{})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "relevant", res[0].ID, "strength is a boost, not the ranking criterion")
}

func TestSearchTimeout(t *testing.T) {
	s := NewInMemoryStore()
	require.NoError(t, s.Append(context.Background(), record("r1", "user", []float32{1, 0})))

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	res, err := s.Search(ctx, []float32{1, 0}, 5, core.ActionFilter{})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrSearchTimeout)
	assert.Empty(t, res, "a timed-out search never returns a partial list")
}

func TestSearchFilters(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, record("a", "alice", []float32{1, 0})))
	require.NoError(t, s.Append(ctx, record("b", "bob", []float32{1, 0})))

	res, err := s.Search(ctx, []float32{1, 0}, 10, core.ActionFilter{Actor: "bob"})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "b", res[0].ID)
}

func TestSearchFiltersBySession(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	a := record("a", "user", []float32{1, 0})
	a.SessionID = "s1"
	b := record("b", "user", []float32{1, 0})
	b.SessionID = "s2"
	require.NoError(t, s.Append(ctx, a))
	require.NoError(t, s.Append(ctx, b))

	res, err := s.Search(ctx, []float32{1, 0}, 10, core.ActionFilter{SessionID: "s2"})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "b", res[0].ID)

	all, err := s.Search(ctx, []float32{1, 0}, 10, core.ActionFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2, "an empty session filter spans sessions")
}

func TestGetRecentChronological(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)}
	s := NewInMemoryStore(func(o *Options) { o.Clock = clock.Now })
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Append(ctx, record(fmt.Sprintf("r%d", i), "user", nil)))
		clock.Advance(time.Minute)
	}
	clock.Advance(2 * time.Hour)
	require.NoError(t, s.Append(ctx, record("late", "user", nil)))

	res, err := s.GetRecent(ctx, "user", time.Hour)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "late", res[0].ID)

	all, err := s.GetRecent(ctx, "user", 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "r0", all[0].ID)
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }
