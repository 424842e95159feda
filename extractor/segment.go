package extractor

import (
	"regexp"
	"strings"
)

// Filler tokens are stripped before classification. "like" is only treated as
// filler when set off by a comma, so "tasks like this one" survives.
var (
	fillerPhraseRe = regexp.MustCompile(`(?i),?\s*\b(?:you know|i mean|kind of like|kinda|sort of|kind of)\b,?`)
	fillerWordRe   = regexp.MustCompile(`(?i),?\s*\b(?:um+|uh+|uhm|er+m?|ah+|hm+)\b[,.]?`)
	fillerLikeRe   = regexp.MustCompile(`(?i),\s*like\b[, ]\s*`)
	spaceRe        = regexp.MustCompile(`\s+`)
	danglingComma  = regexp.MustCompile(`\s+,`)
)

// Discourse connectives that open a new clause. A bare " and " only splits
// when the next word starts a clause, so noun phrases like "research and
// design" stay intact.
var (
	sentenceRe   = regexp.MustCompile(`[.;!]+\s+|\n+`)
	connectiveRe = regexp.MustCompile(`(?i),?\s+(?:oh and|and also|and then|also|then|plus)\s+|,\s+and\s+`)
	bareAndRe    = regexp.MustCompile(`(?i)\s+and\s+(i'?m?|i've|we|we're|note|remember|don'?t|let'?s|mark|set|add|create|new|move|defer|push|postpone|oh|question|actually)\b`)
)

// stripFillers removes hesitation tokens while preserving the rest of the
// text verbatim.
func stripFillers(text string) string {
	out := fillerPhraseRe.ReplaceAllString(text, " ")
	out = fillerWordRe.ReplaceAllString(out, " ")
	out = fillerLikeRe.ReplaceAllString(out, " ")
	out = danglingComma.ReplaceAllString(out, ",")
	out = spaceRe.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

// segment splits an utterance into ordered candidate spans: first on sentence
// boundaries, then on discourse connectives within each sentence. Question
// marks stay attached to their span for classification.
func segment(utterance string) []string {
	var spans []string
	for _, sentence := range splitKeepQuestions(utterance) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		for _, part := range splitConnectives(sentence) {
			part = strings.Trim(part, " ,")
			if part != "" {
				spans = append(spans, part)
			}
		}
	}
	return spans
}

// splitKeepQuestions splits on sentence punctuation but re-attaches a "?" to
// the span it terminates.
func splitKeepQuestions(text string) []string {
	var out []string
	start := 0
	runes := []rune(text)
	for i, r := range runes {
		if r == '?' {
			out = append(out, string(runes[start:i+1]))
			start = i + 1
		}
	}
	if start < len(runes) {
		out = append(out, string(runes[start:]))
	}
	var flat []string
	for _, chunk := range out {
		flat = append(flat, sentenceRe.Split(chunk, -1)...)
	}
	return flat
}

func splitConnectives(sentence string) []string {
	parts := connectiveRe.Split(sentence, -1)
	var out []string
	for _, p := range parts {
		out = append(out, splitBareAnd(p)...)
	}
	return out
}

// splitBareAnd splits " and <clause starter>" keeping the starter word with
// the right-hand span.
func splitBareAnd(part string) []string {
	var out []string
	for {
		loc := bareAndRe.FindStringSubmatchIndex(part)
		if loc == nil {
			out = append(out, part)
			return out
		}
		out = append(out, part[:loc[0]])
		part = part[loc[2]:]
	}
}
