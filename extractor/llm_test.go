package extractor

import (
	"testing"

	"github.com/hupe1980/taskvoice/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolSchemaShape(t *testing.T) {
	schema := ToolSchema()
	assert.Equal(t, "object", schema["type"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	intents, ok := props["intents"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "array", intents["type"])

	items, ok := intents["items"].(map[string]any)
	require.True(t, ok)
	itemProps, ok := items["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, itemProps, "type")
	assert.Contains(t, itemProps, "reference")
	assert.Contains(t, itemProps, "confidence")
}

func TestFromWireMapsFields(t *testing.T) {
	intents := FromWire([]WireIntent{
		{Type: "completion", Reference: "the debugging doc", Confidence: 0.95, Raw: "I finished the debugging doc"},
		{Type: "deferral", Reference: "the report", Reason: "waiting on finance", TargetTime: "friday", Confidence: 0.8},
		{Type: "new_item", Title: "draft checklist", Priority: "HIGH", Confidence: 0.9},
	})
	require.Len(t, intents, 3)

	assert.Equal(t, core.IntentCompletion, intents[0].Type)
	assert.Equal(t, "the debugging doc", intents[0].Reference)

	assert.Equal(t, core.IntentDeferral, intents[1].Type)
	assert.Equal(t, "waiting on finance", intents[1].Payload.Reason)
	assert.Equal(t, "friday", intents[1].Payload.TargetTime)

	assert.Equal(t, core.IntentNewItem, intents[2].Type)
	assert.Equal(t, core.PriorityHigh, intents[2].Payload.Priority)
}

func TestFromWireUnknownTypeDowngrades(t *testing.T) {
	intents := FromWire([]WireIntent{
		{Type: "celebration", Text: "we shipped", Confidence: 0.7},
	})
	require.Len(t, intents, 1)
	assert.Equal(t, core.IntentUnparsed, intents[0].Type, "unknown types surface instead of being guessed")
	assert.Equal(t, "we shipped", intents[0].Raw)
}

func TestFromWireClampsConfidence(t *testing.T) {
	intents := FromWire([]WireIntent{
		{Type: "note", Text: "a", Confidence: 1.7},
		{Type: "note", Text: "b", Confidence: -0.2},
	})
	require.Len(t, intents, 2)
	assert.Equal(t, 1.0, intents[0].Confidence)
	assert.Equal(t, 0.0, intents[1].Confidence)
}
