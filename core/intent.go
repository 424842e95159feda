package core

import "context"

// IntentType classifies one unit of requested action extracted from an
// utterance.
type IntentType string

const (
	// IntentCompletion marks an entity as finished.
	IntentCompletion IntentType = "completion"
	// IntentProgress reports active work on an entity.
	IntentProgress IntentType = "progress"
	// IntentDeferral pushes an entity out with an optional reason and target time.
	IntentDeferral IntentType = "deferral"
	// IntentNote attaches free-form text to an entity.
	IntentNote IntentType = "note"
	// IntentDecision records a decision, preferably against a project.
	IntentDecision IntentType = "decision"
	// IntentNewItem creates a new task.
	IntentNewItem IntentType = "new_item"
	// IntentQuestion is a question surfaced for downstream agents; it never
	// mutates state.
	IntentQuestion IntentType = "question"
	// IntentCorrection retargets the previous mutation ("actually I meant X").
	IntentCorrection IntentType = "correction"
	// IntentUnparsed is a span the extractor could not classify. It is never
	// dropped: dispatch downgrades it to a generic note on the current
	// entity, or surfaces it verbatim for user review.
	IntentUnparsed IntentType = "unparsed"
)

// IntentPayload carries the type-specific slots of an intent. Unused fields
// stay zero.
type IntentPayload struct {
	// Text holds note / decision / question content.
	Text string `json:"text,omitempty"`
	// Detail holds free-form progress detail.
	Detail string `json:"detail,omitempty"`
	// Reason and TargetTime qualify a deferral.
	Reason     string `json:"reason,omitempty"`
	TargetTime string `json:"target_time,omitempty"`
	// Title, ProjectRef and Priority qualify a new item.
	Title      string   `json:"title,omitempty"`
	ProjectRef string   `json:"project_ref,omitempty"`
	Priority   Priority `json:"priority,omitempty"`
	// Reopen marks an explicit backward status transition.
	Reopen bool `json:"reopen,omitempty"`
}

// Intent is one classified unit of requested action. Reference is the raw
// entity mention to resolve ("the checkpointer task"); Raw preserves the
// original span for review and generic notes.
type Intent struct {
	Type       IntentType    `json:"type"`
	Reference  string        `json:"reference_text,omitempty"`
	Payload    IntentPayload `json:"payload,omitempty"`
	Confidence float64       `json:"confidence"`
	Raw        string        `json:"raw,omitempty"`
}

// Mutates reports whether applying the intent changes entity state.
func (i Intent) Mutates() bool {
	switch i.Type {
	case IntentQuestion, IntentUnparsed:
		return false
	default:
		return true
	}
}

// IntentExtractor segments a raw utterance into an ordered list of typed
// intents. Extraction is best-effort: unclassifiable spans must surface as
// IntentUnparsed rather than being guessed at or dropped. The contract is the
// Intent schema, not the classification technique; implementations range from
// deterministic rules to generative models.
type IntentExtractor interface {
	Extract(ctx context.Context, utterance string) ([]Intent, error)
}
