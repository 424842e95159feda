// Package anthropic provides an IntentExtractor backed by the Anthropic
// Messages API with tool use, sharing the record_intents contract with the
// openai adapter. On API failure extraction falls back to the deterministic
// rule extractor.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"
	"github.com/hupe1980/taskvoice/core"
	"github.com/hupe1980/taskvoice/extractor"
)

// Options configure the Anthropic extractor.
type Options struct {
	Model     anthropic.Model
	MaxTokens int64
	APIKey    string
	// Fallback handles utterances when the API call fails or returns no tool
	// use. Defaults to the rule extractor; set nil to surface errors instead.
	Fallback core.IntentExtractor
}

// Extractor wraps the Anthropic Messages API behind core.IntentExtractor.
type Extractor struct {
	client *anthropic.Client
	opts   Options
}

var _ core.IntentExtractor = (*Extractor)(nil)

// NewExtractor creates a new Anthropic extractor using the official client.
func NewExtractor(optFns ...func(o *Options)) *Extractor {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Extractor{client: &client, opts: opts}
}

// NewExtractorFromClient creates a new Anthropic extractor from an existing client.
func NewExtractorFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Extractor {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Extractor{client: client, opts: opts}
}

func defaultOptions() Options {
	return Options{
		Model:     anthropic.ModelClaude3_5Sonnet20241022,
		MaxTokens: 1024,
		Fallback:  extractor.NewRuleExtractor(),
	}
}

// Extract segments and classifies the utterance via one tool-use message.
func (e *Extractor) Extract(ctx context.Context, utterance string) ([]core.Intent, error) {
	schema := extractor.ToolSchema()
	inputSchema := anthropic.ToolInputSchemaParam{
		Type:       constant.Object("object"),
		Properties: schema["properties"],
	}
	if required, ok := schema["required"].([]string); ok {
		inputSchema.Required = required
	}

	params := anthropic.MessageNewParams{
		Model:     e.opts.Model,
		MaxTokens: e.opts.MaxTokens,
		System: []anthropic.TextBlockParam{
			{Text: extractor.SystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(utterance)),
		},
		Tools: []anthropic.ToolUnionParam{
			anthropic.ToolUnionParamOfTool(inputSchema, extractor.ToolName),
		},
	}

	resp, err := e.client.Messages.New(ctx, params)
	if err != nil {
		return e.fallback(ctx, utterance, fmt.Errorf("anthropic api error: %w", err))
	}
	for _, block := range resp.Content {
		if block.Type != "tool_use" {
			continue
		}
		toolBlock := block.AsToolUse()
		if toolBlock.Name != extractor.ToolName {
			continue
		}
		raw, err := json.Marshal(toolBlock.Input)
		if err != nil {
			return e.fallback(ctx, utterance, fmt.Errorf("encode tool input: %w", err))
		}
		var payload struct {
			Intents []extractor.WireIntent `json:"intents"`
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return e.fallback(ctx, utterance, fmt.Errorf("decode tool input: %w", err))
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
