// Package resolver maps free-text references to ranked entity candidates and
// applies the confidence policy deciding between auto-select, confirmation,
// clarification and not-found. Resolution is deterministic for a fixed index
// state and input.
package resolver

import (
	"github.com/hupe1980/taskvoice/core"
	"github.com/hupe1980/taskvoice/index"
)

// Confidence policy defaults. A score at or above AutoApply selects the top
// candidate without user involvement; between Confirm (inclusive) and
// AutoApply the top candidate needs a yes/no confirmation; below Confirm the
// user picks among at most MaxClarifyCandidates; an empty candidate list is
// not_found.
const (
	DefaultAutoApplyThreshold   = 0.8
	DefaultConfirmThreshold     = 0.5
	DefaultMaxClarifyCandidates = 5
)

// Config holds the tunable policy thresholds.
type Config struct {
	AutoApplyThreshold   float64
	ConfirmThreshold     float64
	MaxClarifyCandidates int
}

// DefaultConfig returns the documented default policy.
func DefaultConfig() Config {
	return Config{
		AutoApplyThreshold:   DefaultAutoApplyThreshold,
		ConfirmThreshold:     DefaultConfirmThreshold,
		MaxClarifyCandidates: DefaultMaxClarifyCandidates,
	}
}

// Resolver resolves references against an entity index.
type Resolver struct {
	index *index.Index
	cfg   Config
}

// New creates a resolver over the given index with optional config overrides.
func New(ix *index.Index, optFns ...func(c *Config)) *Resolver {
	cfg := DefaultConfig()
	for _, fn := range optFns {
		fn(&cfg)
	}
	return &Resolver{index: ix, cfg: cfg}
}

// Resolve looks up reference within scope and grades the outcome. A
// project-qualified mention ("the checkpointer task in LangGraph") narrows
// the scope to the qualifying project before the entity lookup, provided the
// qualifier itself resolves to a project with at least confirm-level
// confidence.
func (r *Resolver) Resolve(reference string, entityType core.EntityType, scope index.Scope) core.Resolution {
	ref, qualifier := index.SplitQualifier(reference)
	if scope.Type == "" {
		scope.Type = entityType
	}
	if qualifier != "" && entityType != core.EntityProject {
		if proj, ok := r.resolveProject(qualifier); ok {
			scope.ProjectID = proj.ID
		} else {
			// Unresolvable qualifier: fall back to matching the full mention
			// so its tokens still count toward similarity.
			ref = reference
		}
	}

	matches := r.index.Lookup(ref, scope)
	if len(matches) == 0 {
		return core.Resolution{Decision: core.DecisionNotFound}
	}

	limit := r.cfg.MaxClarifyCandidates
	if limit <= 0 {
		limit = DefaultMaxClarifyCandidates
	}
	if len(matches) > limit {
		matches = matches[:limit]
	}
	candidates := make([]core.Candidate, len(matches))
	for i, m := range matches {
		candidates[i] = core.Candidate{Ref: m.Entry.Ref, Title: m.Entry.Title, Score: m.Score}
	}

	res := core.Resolution{Candidates: candidates}
	switch top := candidates[0].Score; {
	case top >= r.cfg.AutoApplyThreshold:
		res.Decision = core.DecisionAuto
		res.Candidates = candidates[:1]
	case top >= r.cfg.ConfirmThreshold:
		res.Decision = core.DecisionConfirm
		res.Candidates = candidates[:1]
	default:
		res.Decision = core.DecisionClarify
	}
	return res
}

// resolveProject resolves a qualifier mention to a project with at least
// confirm-level confidence.
func (r *Resolver) resolveProject(qualifier string) (core.EntityRef, bool) {
	matches := r.index.Lookup(qualifier, index.Scope{Type: core.EntityProject})
	if len(matches) == 0 || matches[0].Score < r.cfg.ConfirmThreshold {
		return core.EntityRef{}, false
	}
	return matches[0].Entry.Ref, true
}
