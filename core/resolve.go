package core

// Candidate is one ranked entity candidate produced by fuzzy resolution.
// Score is always within [0,1].
type Candidate struct {
	Ref   EntityRef `json:"ref"`
	Title string    `json:"title"`
	Score float64   `json:"score"`
}

// Decision is the resolver's verdict for a reference.
type Decision string

const (
	// DecisionAuto selects the top candidate without user involvement.
	DecisionAuto Decision = "auto"
	// DecisionConfirm asks the user to confirm the top candidate.
	DecisionConfirm Decision = "confirm"
	// DecisionClarify asks the user to pick among the top candidates.
	DecisionClarify Decision = "clarify"
	// DecisionNotFound means no viable candidate exists.
	DecisionNotFound Decision = "not_found"
)

// Resolution is the outcome of resolving one reference: ranked candidates
// plus the confidence-policy decision. Given identical index state and input
// the resolution is deterministic.
type Resolution struct {
	Candidates []Candidate `json:"candidates"`
	Decision   Decision    `json:"decision"`
}

// Top returns the best candidate, or false when there is none.
func (r Resolution) Top() (Candidate, bool) {
	if len(r.Candidates) == 0 {
		return Candidate{}, false
	}
	return r.Candidates[0], true
}
