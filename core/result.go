package core

// ClarificationRequest asks the user to confirm or disambiguate one intent's
// reference. Requests for a whole utterance are accumulated and returned
// together so a multi-topic update needs at most one follow-up round-trip.
type ClarificationRequest struct {
	ID         string      `json:"id"`
	Reference  string      `json:"reference"`
	Intent     Intent      `json:"intent"`
	Candidates []Candidate `json:"candidates"`
	// Kind is DecisionConfirm or DecisionClarify.
	Kind Decision `json:"kind"`
}

// ClarificationChoice answers a pending ClarificationRequest. A nil Selected
// abandons the pending intent.
type ClarificationChoice struct {
	RequestID string     `json:"request_id"`
	Selected  *EntityRef `json:"selected,omitempty"`
}

// OutcomeStatus is the per-intent disposition of a dispatch.
type OutcomeStatus string

const (
	// OutcomeApplied means the mutation committed.
	OutcomeApplied OutcomeStatus = "applied"
	// OutcomePending means the intent awaits a clarification answer.
	OutcomePending OutcomeStatus = "pending"
	// OutcomeAbandoned means dispatch stopped (cancellation or store failure)
	// before reaching the intent; earlier commits stand.
	OutcomeAbandoned OutcomeStatus = "abandoned"
	// OutcomeFailed means the intent was reached but could not be applied.
	OutcomeFailed OutcomeStatus = "failed"
	// OutcomeSurfaced means the intent carries no mutation and was returned
	// for the caller (questions, unparsed markers).
	OutcomeSurfaced OutcomeStatus = "surfaced"
)

// IntentOutcome pairs an intent with its disposition.
type IntentOutcome struct {
	Intent   Intent        `json:"intent"`
	Status   OutcomeStatus `json:"status"`
	RecordID string        `json:"record_id,omitempty"`
	Err      error         `json:"-"`
}

// UtteranceResult is the structured outcome of processing one utterance.
// Every utterance yields a result, even an empty one; nothing is silently
// discarded.
type UtteranceResult struct {
	Applied   []ActionRecord         `json:"applied"`
	Pending   []ClarificationRequest `json:"pending_clarifications"`
	Outcomes  []IntentOutcome        `json:"outcomes"`
	Questions []string               `json:"questions,omitempty"`
	// Unparsed holds spans that could not be classified and had no entity
	// context to attach to, surfaced verbatim for user review.
	Unparsed []string `json:"unparsed,omitempty"`
	Errors   []error  `json:"-"`
}
