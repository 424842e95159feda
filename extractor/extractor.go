// Package extractor segments free-form transcribed utterances into ordered,
// typed intents. The deterministic rule-based extractor here is the default
// implementation of core.IntentExtractor; the openai and anthropic
// subpackages provide generative alternatives behind the same contract.
//
// Extraction is best-effort by design: filler tokens are stripped, the
// utterance is split on discourse connectives so one rambling sentence can
// carry several intents, and anything the rules cannot classify comes back as
// core.IntentUnparsed for downstream handling instead of being dropped or
// guessed at.
package extractor

import (
	"context"

	"github.com/hupe1980/taskvoice/core"
)

// RuleExtractor is a deterministic, dependency-free intent extractor. It is
// stateless and safe for concurrent use.
type RuleExtractor struct{}

// NewRuleExtractor returns the deterministic rule-based extractor.
func NewRuleExtractor() *RuleExtractor { return &RuleExtractor{} }

// Extract implements core.IntentExtractor. The error is always nil; the
// signature matches the interface so generative implementations can fail.
func (e *RuleExtractor) Extract(_ context.Context, utterance string) ([]core.Intent, error) {
	cleaned := stripFillers(utterance)
	spans := segment(cleaned)
	intents := make([]core.Intent, 0, len(spans))
	for _, span := range spans {
		intents = append(intents, classify(span))
	}
	return intents, nil
}
