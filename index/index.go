// Package index maintains a normalized-token index over the titles and known
// aliases of mutable entities, scoped by entity type and optionally by parent
// project. Lookup scores candidates with a hybrid of token overlap and edit
// distance so partial phrases, reordered words and minor mishearings still
// land on the right entity.
package index

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/hupe1980/taskvoice/core"
)

// Similarity weighting. The token term dominates; the edit-distance term
// rescues near-miss spellings; the containment bonus rewards references whose
// every token appears verbatim in the candidate name.
const (
	tokenWeight       = 0.65
	editWeight        = 0.35
	containmentBonus  = 0.15
	minLookupCapacity = 8
)

// Entry describes one indexed entity.
type Entry struct {
	Ref          core.EntityRef
	Title        string
	Aliases      []string
	ProjectID    string
	LastActivity time.Time
}

// Scope narrows a lookup to an entity type and, optionally, a parent project.
type Scope struct {
	Type      core.EntityType
	ProjectID string
}

// Match is one ranked lookup candidate. Distance is the raw edit distance of
// the best-matching name, kept for deterministic tie-breaking downstream.
type Match struct {
	Entry    Entry
	Score    float64
	Distance int
}

type indexedName struct {
	tokens []string
	set    map[string]bool
	joined string
}

type storedEntry struct {
	entry Entry
	names []indexedName
}

// Index is a concurrency-safe in-memory entity index.
type Index struct {
	mu      sync.RWMutex
	entries map[core.EntityRef]*storedEntry
}

// New returns an empty index.
func New() *Index {
	return &Index{entries: make(map[core.EntityRef]*storedEntry)}
}

// Put inserts or replaces the entry for its ref.
func (ix *Index) Put(e Entry) {
	names := make([]indexedName, 0, 1+len(e.Aliases))
	for _, raw := range append([]string{e.Title}, e.Aliases...) {
		tokens := Normalize(raw)
		if len(tokens) == 0 {
			continue
		}
		set := make(map[string]bool, len(tokens))
		for _, t := range tokens {
			set[t] = true
		}
		names = append(names, indexedName{tokens: tokens, set: set, joined: strings.Join(tokens, " ")})
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.entries[e.Ref] = &storedEntry{entry: e, names: names}
}

// Remove drops the entry for ref if present.
func (ix *Index) Remove(ref core.EntityRef) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	delete(ix.entries, ref)
}

// Touch records activity on an entity, used to break score ties in favor of
// recently active entries.
func (ix *Index) Touch(ref core.EntityRef, at time.Time) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if se, ok := ix.entries[ref]; ok && at.After(se.entry.LastActivity) {
		se.entry.LastActivity = at
	}
}

// Len returns the number of indexed entities.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Lookup returns candidates in scope ranked by similarity to text. The
// ordering is fully deterministic for a fixed index state: score descending,
// then most recent activity, then lexical proximity, then ref id.
func (ix *Index) Lookup(text string, scope Scope) []Match {
	refTokens := Normalize(text)
	if len(refTokens) == 0 {
		return nil
	}
	refJoined := strings.Join(refTokens, " ")

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	matches := make([]Match, 0, minLookupCapacity)
	for _, se := range ix.entries {
		if scope.Type != "" && se.entry.Ref.Type != scope.Type {
			continue
		}
		if scope.ProjectID != "" && se.entry.ProjectID != scope.ProjectID {
			continue
		}
		score, dist := bestNameScore(refTokens, refJoined, se.names)
		if score <= 0 {
			continue
		}
		matches = append(matches, Match{Entry: se.entry, Score: score, Distance: dist})
	}

	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.Entry.LastActivity.Equal(b.Entry.LastActivity) {
			return a.Entry.LastActivity.After(b.Entry.LastActivity)
		}
		if a.Distance != b.Distance {
			return a.Distance < b.Distance
		}
		return a.Entry.Ref.ID < b.Entry.Ref.ID
	})
	return matches
}

// bestNameScore scores the reference against every name (title + aliases) of
// an entry and keeps the best.
func bestNameScore(refTokens []string, refJoined string, names []indexedName) (float64, int) {
	best := 0.0
	bestDist := int(^uint(0) >> 1)
	for _, n := range names {
		s, d := similarity(refTokens, refJoined, n)
		if s > best || (s == best && d < bestDist) {
			best = s
			bestDist = d
		}
	}
	return best, bestDist
}

// similarity blends Dice-coefficient token overlap with normalized edit
// distance on the joined normalized strings, plus a containment bonus when
// every reference token appears in the name. The result is clamped to [0,1].
func similarity(refTokens []string, refJoined string, n indexedName) (float64, int) {
	common := 0
	contained := true
	for _, t := range refTokens {
		if n.set[t] {
			common++
		} else {
			contained = false
		}
	}
	dice := 0.0
	if len(refTokens)+len(n.tokens) > 0 {
		dice = 2 * float64(common) / float64(len(refTokens)+len(n.tokens))
	}

	dist := levenshtein.ComputeDistance(refJoined, n.joined)
	maxLen := len(refJoined)
	if len(n.joined) > maxLen {
		maxLen = len(n.joined)
	}
	editSim := 0.0
	if maxLen > 0 {
		editSim = 1 - float64(dist)/float64(maxLen)
	}

	score := tokenWeight*dice + editWeight*editSim
	if contained && common > 0 {
		score += containmentBonus
	}
	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score, dist
}
