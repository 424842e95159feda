package resolver

import (
	"fmt"
	"testing"

	"github.com/hupe1980/taskvoice/core"
	"github.com/hupe1980/taskvoice/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildIndex(entries ...index.Entry) *index.Index {
	ix := index.New()
	for _, e := range entries {
		ix.Put(e)
	}
	return ix
}

func task(id, title string) index.Entry {
	return index.Entry{Ref: core.EntityRef{Type: core.EntityTask, ID: id}, Title: title}
}

func project(id, name string) index.Entry {
	return index.Entry{Ref: core.EntityRef{Type: core.EntityProject, ID: id}, Title: name}
}

func TestResolveAutoSelect(t *testing.T) {
	r := New(buildIndex(task("t1", "Debugging doc"), task("t2", "Scaling guide")))

	res := r.Resolve("the debugging doc", core.EntityTask, index.Scope{})
	require.Equal(t, core.DecisionAuto, res.Decision)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "t1", res.Candidates[0].Ref.ID)
	assert.GreaterOrEqual(t, res.Candidates[0].Score, DefaultAutoApplyThreshold)
}

func TestResolveConfirmBand(t *testing.T) {
	r := New(buildIndex(task("t1", "Quarterly planning review")))

	res := r.Resolve("the planning thing", core.EntityTask, index.Scope{})
	require.Equal(t, core.DecisionConfirm, res.Decision)
	require.Len(t, res.Candidates, 1)
	top := res.Candidates[0].Score
	assert.GreaterOrEqual(t, top, DefaultConfirmThreshold)
	assert.Less(t, top, DefaultAutoApplyThreshold)
}

func TestResolveClarifyCapsCandidates(t *testing.T) {
	entries := make([]index.Entry, 0, 8)
	for i := 0; i < 8; i++ {
		entries = append(entries, task(fmt.Sprintf("t%d", i), fmt.Sprintf("Review chapter %d of the manuscript", i)))
	}
	r := New(buildIndex(entries...))

	res := r.Resolve("manuscript edits", core.EntityTask, index.Scope{})
	require.Equal(t, core.DecisionClarify, res.Decision)
	assert.LessOrEqual(t, len(res.Candidates), DefaultMaxClarifyCandidates)
	for _, c := range res.Candidates {
		assert.Less(t, c.Score, DefaultConfirmThreshold)
	}
}

func TestResolveNotFound(t *testing.T) {
	r := New(buildIndex(task("t1", "Debugging doc")))

	res := r.Resolve("quantum flux capacitor", core.EntityTask, index.Scope{})
	assert.Equal(t, core.DecisionNotFound, res.Decision)
	assert.Empty(t, res.Candidates)
}

// Property: scores at or above the auto threshold always auto-select; scores
// below the confirm threshold never do.
func TestResolvePolicyBoundaries(t *testing.T) {
	r := New(buildIndex(
		task("t1", "Debugging doc"),
		task("t2", "Scaling guide"),
		task("t3", "Checkpointer integration"),
	))

	for _, ref := range []string{"debugging doc", "scaling guide", "checkpointer", "the guide", "integration", "docs"} {
		res := r.Resolve(ref, core.EntityTask, index.Scope{})
		if res.Decision == core.DecisionNotFound {
			continue
		}
		top := res.Candidates[0].Score
		if top >= DefaultAutoApplyThreshold {
			assert.Equal(t, core.DecisionAuto, res.Decision, "ref %q", ref)
		}
		if top < DefaultConfirmThreshold {
			assert.NotEqual(t, core.DecisionAuto, res.Decision, "ref %q", ref)
			assert.NotEqual(t, core.DecisionConfirm, res.Decision, "ref %q", ref)
		}
	}
}

func TestResolveProjectQualifierNarrowsScope(t *testing.T) {
	e1 := task("t1", "Write docs")
	e1.ProjectID = "p1"
	e2 := task("t2", "Write docs")
	e2.ProjectID = "p2"
	r := New(buildIndex(e1, e2, project("p1", "LangGraph"), project("p2", "Website")))

	res := r.Resolve("the write docs task in LangGraph", core.EntityTask, index.Scope{})
	require.Equal(t, core.DecisionAuto, res.Decision)
	assert.Equal(t, "t1", res.Candidates[0].Ref.ID)
}

func TestResolveCustomThresholds(t *testing.T) {
	r := New(buildIndex(task("t1", "Quarterly planning review")), func(c *Config) {
		c.AutoApplyThreshold = 0.4
		c.ConfirmThreshold = 0.2
	})

	res := r.Resolve("the planning thing", core.EntityTask, index.Scope{})
	assert.Equal(t, core.DecisionAuto, res.Decision)
}

func TestResolveDeterministic(t *testing.T) {
	r := New(buildIndex(task("a", "Review notes"), task("b", "Review notes")))

	first := r.Resolve("review notes", core.EntityTask, index.Scope{})
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, r.Resolve("review notes", core.EntityTask, index.Scope{}))
	}
}
