package index

import "strings"

// stopwords are dropped during normalization. Besides common function words
// this includes type qualifiers ("task", "project") that identify what kind
// of entity is meant rather than which one.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "this": true, "that": true,
	"my": true, "our": true, "its": true, "of": true, "to": true,
	"on": true, "for": true, "with": true, "and": true, "or": true,
	"task": true, "project": true, "item": true, "one": true, "thing": true,
}

// qualifierMarkers split a project-qualified mention ("the checkpointer task
// in LangGraph") into reference and project parts.
var qualifierMarkers = []string{" in the ", " in ", " under the ", " under ", " from the ", " from "}

// Normalize lowercases the text, strips punctuation and stopwords, and
// returns the remaining tokens in order.
func Normalize(text string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '\'':
			// drop apostrophes entirely so "it's" -> "its"
		default:
			b.WriteRune(' ')
		}
	}
	fields := strings.Fields(b.String())
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if stopwords[f] {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// SplitQualifier separates a project qualifier from a mention. It returns the
// bare reference and the qualifier text ("" when the mention carries none).
// Only the last marker occurrence is honored so nested phrasing keeps as much
// of the reference as possible.
func SplitQualifier(text string) (reference, qualifier string) {
	lower := strings.ToLower(text)
	best := -1
	bestMarker := ""
	for _, m := range qualifierMarkers {
		if i := strings.LastIndex(lower, m); i > best {
			best = i
			bestMarker = m
		}
	}
	if best < 0 {
		return strings.TrimSpace(text), ""
	}
	reference = strings.TrimSpace(text[:best])
	qualifier = strings.TrimSpace(text[best+len(bestMarker):])
	if reference == "" || qualifier == "" {
		return strings.TrimSpace(text), ""
	}
	return reference, qualifier
}
