package extractor

import (
	"regexp"
	"strings"

	"github.com/hupe1980/taskvoice/core"
)

// Classification confidence per rule family. Explicit markers ("note:",
// "actually I meant") score higher than softer phrasings; unclassifiable
// spans are flagged, never guessed at.
const (
	confidenceExplicit = 0.9
	confidenceStrong   = 0.85
	confidenceSoft     = 0.6
	confidenceUnparsed = 0.2
)

var (
	correctionRe = regexp.MustCompile(`(?i)\b(?:actually,?\s+i\s+meant|no,?\s+i\s+meant|i\s+meant|that\s+should\s+have\s+been)\s+(.+)$`)
	scratchRe    = regexp.MustCompile(`(?i)\b(?:scratch that|correction[:,]?)\s*(.*)$`)

	questionStartRe = regexp.MustCompile(`(?i)^(?:what|when|where|who|why|how|did|do|does|is|are|was|were|can|could|should|would|will)\b`)

	noteRe = regexp.MustCompile(`(?i)^(?:note to self[:,]?|note[:,]|note that|remember that|remember to|fyi[:,]?|jot down)\s*(.+)$`)

	newItemRe = regexp.MustCompile(`(?i)^(?:create|add|make)\s+(?:a\s+|another\s+)?(?:new\s+)?(?:task|todo|item)(?:\s+(?:called|named|for|to))?\s+(.+)$|^(?:new task|todo)[:,]\s*(.+)$`)

	completionPrefixRe = regexp.MustCompile(`(?i)^(?:i(?:'ve| have)?\s+)?(?:just\s+|finally\s+)?(?:finished|completed|wrapped up|shipped|closed out|knocked out)\s+(?:with\s+)?(.+)$`)
	completionSuffixRe = regexp.MustCompile(`(?i)^(.+?)\s+is\s+(?:done|finished|complete|wrapped up)\s*$`)
	doneWithRe         = regexp.MustCompile(`(?i)^(?:i'?m\s+)?(?:all\s+)?done\s+with\s+(.+)$`)

	deferralRe   = regexp.MustCompile(`(?i)\b(?:defer|postpone|punt on|put off|park|push(?:ing)?(?:\s+back)?)\s+(.+)$`)
	targetTimeRe = regexp.MustCompile(`(?i)\s+(?:until|till|to)\s+(tomorrow|tonight|next week|next month|monday|tuesday|wednesday|thursday|friday|saturday|sunday|later)\b`)
	reasonRe     = regexp.MustCompile(`(?i)\s+(?:because|since)\s+(.+)$`)

	decisionRe = regexp.MustCompile(`(?i)\b(?:we(?:'ve)?\s+decided|i\s+decided|decision[:,]|we're going with|let's go with|going with|settled on|we'?ll use)\b\s*(.*)$`)

	reopenRe         = regexp.MustCompile(`(?i)^(?:reopen(?:ing)?|i'?m\s+reopening|going back to)\s+(.+)$`)
	progressRe       = regexp.MustCompile(`(?i)\b(?:working on|started(?:\s+on)?|picking up|continuing(?:\s+with)?|making progress on|halfway through|still on|now on)\s+(.+)$`)
	priorityHighRe   = regexp.MustCompile(`(?i)\b(?:high priority|urgent|asap|top priority)\b`)
	priorityLowRe    = regexp.MustCompile(`(?i)\b(?:low priority|no rush|whenever)\b`)
	trailingPunctRe  = regexp.MustCompile(`[.,!?]+$`)
	priorityPhraseRe = regexp.MustCompile(`(?i),?\s*(?:it's\s+)?(?:high priority|low priority|urgent|asap|top priority|no rush)\s*`)
)

// leadingOpenerRe matches discourse openers ("so", "okay", "oh and") that
// carry no meaning and would break the anchored classifiers below.
var leadingOpenerRe = regexp.MustCompile(`(?i)^(?:so|ok(?:ay)?|well|right|alright|anyway|yeah|oh and|oh|and)[, ]\s*`)

// classify maps one cleaned span to an intent. The rule order matters:
// corrections and questions are recognized before mutation phrasings so
// "actually I meant the scaling guide" never reads as progress.
func classify(span string) core.Intent {
	text := strings.TrimSpace(span)
	for {
		stripped := leadingOpenerRe.ReplaceAllString(text, "")
		if stripped == text {
			break
		}
		text = strings.TrimSpace(stripped)
	}

	if m := correctionRe.FindStringSubmatch(text); m != nil {
		return core.Intent{
			Type:       core.IntentCorrection,
			Reference:  cleanReference(m[1]),
			Confidence: confidenceExplicit,
			Raw:        span,
		}
	}
	if m := scratchRe.FindStringSubmatch(text); m != nil {
		return core.Intent{
			Type:       core.IntentCorrection,
			Reference:  cleanReference(m[1]),
			Confidence: confidenceStrong,
			Raw:        span,
		}
	}

	if strings.HasSuffix(text, "?") {
		return core.Intent{
			Type:       core.IntentQuestion,
			Payload:    core.IntentPayload{Text: text},
			Confidence: confidenceExplicit,
			Raw:        span,
		}
	}

	if m := noteRe.FindStringSubmatch(text); m != nil {
		// The body is content, not an entity mention; the note attaches to
		// whatever entity is current when it is dispatched.
		return core.Intent{
			Type:       core.IntentNote,
			Payload:    core.IntentPayload{Text: cleanReference(m[1])},
			Confidence: confidenceExplicit,
			Raw:        span,
		}
	}

	if m := newItemRe.FindStringSubmatch(text); m != nil {
		title := m[1]
		if title == "" {
			title = m[2]
		}
		return newItemIntent(title, span)
	}

	for _, re := range []*regexp.Regexp{completionPrefixRe, doneWithRe, completionSuffixRe} {
		if m := re.FindStringSubmatch(text); m != nil {
			return core.Intent{
				Type:       core.IntentCompletion,
				Reference:  cleanReference(m[1]),
				Confidence: confidenceExplicit,
				Raw:        span,
			}
		}
	}

	if m := deferralRe.FindStringSubmatch(text); m != nil {
		return deferralIntent(m[1], span)
	}

	if m := decisionRe.FindStringSubmatch(text); m != nil {
		body := strings.TrimSpace(m[1])
		if body == "" {
			body = text
		}
		return core.Intent{
			Type:       core.IntentDecision,
			Payload:    core.IntentPayload{Text: body},
			Confidence: confidenceStrong,
			Raw:        span,
		}
	}

	if m := reopenRe.FindStringSubmatch(text); m != nil {
		return core.Intent{
			Type:       core.IntentProgress,
			Reference:  cleanReference(m[1]),
			Payload:    core.IntentPayload{Detail: text, Reopen: true},
			Confidence: confidenceStrong,
			Raw:        span,
		}
	}
	if m := progressRe.FindStringSubmatch(text); m != nil {
		return core.Intent{
			Type:       core.IntentProgress,
			Reference:  cleanReference(m[1]),
			Payload:    core.IntentPayload{Detail: text},
			Confidence: confidenceStrong,
			Raw:        span,
		}
	}

	if questionStartRe.MatchString(text) {
		return core.Intent{
			Type:       core.IntentQuestion,
			Payload:    core.IntentPayload{Text: text},
			Confidence: confidenceSoft,
			Raw:        span,
		}
	}

	return core.Intent{
		Type:       core.IntentUnparsed,
		Payload:    core.IntentPayload{Text: text},
		Confidence: confidenceUnparsed,
		Raw:        span,
	}
}

func newItemIntent(title, span string) core.Intent {
	priority := core.PriorityNormal
	switch {
	case priorityHighRe.MatchString(title):
		priority = core.PriorityHigh
	case priorityLowRe.MatchString(title):
		priority = core.PriorityLow
	}
	title = priorityPhraseRe.ReplaceAllString(title, " ")
	title = strings.TrimSpace(trailingPunctRe.ReplaceAllString(title, ""))
	title = strings.Trim(title, `"'`)

	var projectRef string
	if bare, qualifier := splitProjectQualifier(title); qualifier != "" {
		title = bare
		projectRef = qualifier
	}

	return core.Intent{
		Type: core.IntentNewItem,
		Payload: core.IntentPayload{
			Title:      title,
			ProjectRef: projectRef,
			Priority:   priority,
		},
		Confidence: confidenceStrong,
		Raw:        span,
	}
}

func deferralIntent(rest, span string) core.Intent {
	payload := core.IntentPayload{}
	if m := targetTimeRe.FindStringSubmatch(rest); m != nil {
		payload.TargetTime = strings.ToLower(m[1])
		rest = targetTimeRe.ReplaceAllString(rest, "")
	}
	if m := reasonRe.FindStringSubmatch(rest); m != nil {
		payload.Reason = strings.TrimSpace(m[1])
		rest = reasonRe.ReplaceAllString(rest, "")
	}
	return core.Intent{
		Type:       core.IntentDeferral,
		Reference:  cleanReference(rest),
		Payload:    payload,
		Confidence: confidenceStrong,
		Raw:        span,
	}
}

// cleanReference trims trailing punctuation and leading verbs' leftovers from
// an extracted reference.
func cleanReference(ref string) string {
	ref = strings.TrimSpace(trailingPunctRe.ReplaceAllString(ref, ""))
	for _, prefix := range []string{"on ", "with ", "up "} {
		if strings.HasPrefix(strings.ToLower(ref), prefix) {
			ref = ref[len(prefix):]
			break
		}
	}
	return strings.TrimSpace(ref)
}

// splitProjectQualifier extracts a trailing "in <project>" style qualifier
// from a new-item title.
var titleQualifierRe = regexp.MustCompile(`(?i)\s+(?:in|under|for)\s+(?:the\s+)?(.+?)(?:\s+project)?\s*$`)

func splitProjectQualifier(title string) (string, string) {
	m := titleQualifierRe.FindStringSubmatchIndex(title)
	if m == nil {
		return title, ""
	}
	bare := strings.TrimSpace(title[:m[0]])
	qualifier := strings.TrimSpace(title[m[2]:m[3]])
	if bare == "" || qualifier == "" {
		return title, ""
	}
	return bare, qualifier
}
