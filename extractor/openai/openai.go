// Package openai provides an IntentExtractor backed by the OpenAI Chat
// Completions API with function calling. The model fills a single
// record_intents tool call; the wire payload is mapped to intents by the
// shared extractor scaffolding. On API failure extraction falls back to the
// deterministic rule extractor so an outage degrades quality, not uptime.
package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hupe1980/taskvoice/core"
	"github.com/hupe1980/taskvoice/extractor"
	"github.com/openai/openai-go"
)

// Options configure the OpenAI extractor.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	// Fallback handles utterances when the API call fails or returns no tool
	// call. Defaults to the rule extractor; set nil to surface errors instead.
	Fallback core.IntentExtractor
}

// Extractor wraps the OpenAI Chat Completions API behind core.IntentExtractor.
type Extractor struct {
	client *openai.Client
	opts   Options
}

var _ core.IntentExtractor = (*Extractor)(nil)

// NewExtractor creates a new OpenAI extractor using the official client.
func NewExtractor(optFns ...func(o *Options)) *Extractor {
	client := openai.NewClient()
	return NewExtractorFromClient(&client, optFns...)
}

// NewExtractorFromClient creates a new OpenAI extractor from an existing client.
func NewExtractorFromClient(client *openai.Client, optFns ...func(o *Options)) *Extractor {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0,
		MaxCompletionTokens: 1024,
		Fallback:            extractor.NewRuleExtractor(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Extractor{client: client, opts: opts}
}

// Extract segments and classifies the utterance via one tool-calling
// completion.
func (e *Extractor) Extract(ctx context.Context, utterance string) ([]core.Intent, error) {
	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(extractor.SystemPrompt),
			openai.UserMessage(utterance),
		},
		Model:               e.opts.Model,
		Temperature:         openai.Float(e.opts.Temperature),
		MaxCompletionTokens: openai.Int(e.opts.MaxCompletionTokens),
		Tools: []openai.ChatCompletionToolParam{{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        extractor.ToolName,
				Description: openai.String(extractor.ToolDescription),
				Parameters:  extractor.ToolSchema(),
			},
		}},
	}

	resp, err := e.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return e.fallback(ctx, utterance, fmt.Errorf("openai api error: %w", err))
	}
	if len(resp.Choices) == 0 {
		return e.fallback(ctx, utterance, fmt.Errorf("no choices returned"))
	}
	for _, tc := range resp.Choices[0].Message.ToolCalls {
		if tc.Function.Name != extractor.ToolName {
			continue
		}
		var payload struct {
			Intents []extractor.WireIntent `json:"intents"`
		}
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &payload); err != nil {
			return e.fallback(ctx, utterance, fmt.Errorf("decode tool arguments: %w", err))
		}
		return extractor.FromWire(payload.Intents), nil
	}
	return e.fallback(ctx, utterance, fmt.Errorf("model returned no %s call", extractor.ToolName))
}

func (e *Extractor) fallback(ctx context.Context, utterance string, cause error) ([]core.Intent, error) {
	if e.opts.Fallback == nil {
		return nil, cause
	}
	return e.opts.Fallback.Extract(ctx, utterance)
}
