package extractor

import (
	"strings"

	"github.com/hupe1980/taskvoice/core"
	"github.com/hupe1980/taskvoice/internal/util"
)

// Shared scaffolding for model-backed extractors. The providers differ only
// in transport; the tool contract and the wire-to-intent mapping live here so
// both adapters emit identical intents for identical model output.

// ToolName is the function-calling tool the model fills with intents.
const ToolName = "record_intents"

// ToolDescription documents the tool for the model.
const ToolDescription = "Record every unit of requested action found in the utterance, in spoken order."

// SystemPrompt instructs the model to segment and classify without guessing.
const SystemPrompt = `You segment a spoken task-management utterance into intents.
Rules:
- Preserve spoken order. One intent per distinct action.
- Types: completion, progress, deferral, note, decision, new_item, question, correction, unparsed.
- reference is the entity mention as spoken ("the checkpointer doc"), not a guess at an ID.
- Never invent actions. If a span cannot be classified, emit it as unparsed with the raw text.
- confidence is your classification confidence in [0,1].
Call ` + ToolName + ` exactly once with all intents.`

// WireIntent is the JSON shape the model returns per intent.
type WireIntent struct {
	Type       string  `json:"type" description:"intent type"`
	Reference  string  `json:"reference,omitempty" description:"entity mention as spoken"`
	Text       string  `json:"text,omitempty" description:"note, decision or question content"`
	Detail     string  `json:"detail,omitempty" description:"progress detail"`
	Reason     string  `json:"reason,omitempty" description:"deferral reason"`
	TargetTime string  `json:"target_time,omitempty" description:"deferral target time as spoken"`
	Title      string  `json:"title,omitempty" description:"new item title"`
	ProjectRef string  `json:"project_ref,omitempty" description:"project mention for a new item"`
	Priority   string  `json:"priority,omitempty" description:"low, normal or high"`
	Reopen     bool    `json:"reopen,omitempty" description:"explicit reopen of a finished item"`
	Raw        string  `json:"raw,omitempty" description:"original span"`
	Confidence float64 `json:"confidence" description:"classification confidence in [0,1]"`
}

// ToolSchema returns the JSON schema for the record_intents tool parameters.
func ToolSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"intents": map[string]any{
				"type":        "array",
				"description": "intents in spoken order",
				"items":       util.CreateSchema(WireIntent{}),
			},
		},
		"required": []string{"intents"},
	}
}

// FromWire converts model output to intents. Unknown types downgrade to
// unparsed instead of being dropped; confidences clamp to [0,1].
func FromWire(wire []WireIntent) []core.Intent {
	intents := make([]core.Intent, 0, len(wire))
	for _, w := range wire {
		it := core.Intent{
			Type:      core.IntentType(strings.ToLower(strings.TrimSpace(w.Type))),
			Reference: strings.TrimSpace(w.Reference),
			Payload: core.IntentPayload{
				Text:       strings.TrimSpace(w.Text),
				Detail:     strings.TrimSpace(w.Detail),
				Reason:     strings.TrimSpace(w.Reason),
				TargetTime: strings.TrimSpace(w.TargetTime),
				Title:      strings.TrimSpace(w.Title),
				ProjectRef: strings.TrimSpace(w.ProjectRef),
				Priority:   core.Priority(strings.ToLower(strings.TrimSpace(w.Priority))),
				Reopen:     w.Reopen,
			},
			Confidence: w.Confidence,
			Raw:        w.Raw,
		}
		switch it.Type {
		case core.IntentCompletion, core.IntentProgress, core.IntentDeferral,
			core.IntentNote, core.IntentDecision, core.IntentNewItem,
			core.IntentQuestion, core.IntentCorrection, core.IntentUnparsed:
		default:
			it.Type = core.IntentUnparsed
			if it.Raw == "" {
				it.Raw = w.Text
			}
		}
		switch it.Payload.Priority {
		case core.PriorityLow, core.PriorityNormal, core.PriorityHigh, "":
		default:
			it.Payload.Priority = ""
		}
		if it.Confidence < 0 {
			it.Confidence = 0
		}
		if it.Confidence > 1 {
			it.Confidence = 1
		}
		intents = append(intents, it)
	}
	return intents
}
