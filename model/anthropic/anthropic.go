// Package anthropic provides a model adapter for the Anthropic Messages API.
package anthropic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/SWE-agent/mini-swe-agent/core"
	"github.com/SWE-agent/mini-swe-agent/model"
)

// Per-million-token prices used to account run cost. Prefix-matched against
// the configured model id; unknown models account as zero unless prices are
// set explicitly in Options.
var defaultPrices = []struct {
	prefix        string
	input, output float64
}{
	{"claude-opus-4", 15.0, 75.0},
	{"claude-sonnet-4", 3.0, 15.0},
	{"claude-3-7-sonnet", 3.0, 15.0},
	{"claude-3-5-sonnet", 3.0, 15.0},
	{"claude-3-5-haiku", 0.80, 4.0},
	{"claude-3-opus", 15.0, 75.0},
	{"claude-3-haiku", 0.25, 1.25},
}

// Options configures the Anthropic model adapter.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string

	// InputCostPerMTok / OutputCostPerMTok override the built-in price
	// table (USD per million tokens).
	InputCostPerMTok  float64
	OutputCostPerMTok float64

	// Extra is passed through opaquely to the request body, one JSON field
	// per key. Use it for provider parameters not modeled here.
	Extra map[string]any
}

// Model wraps the Anthropic Messages API behind the generic model.Model interface.
type Model struct {
	model.Ledger
	client *anthropic.Client
	opts   Options
}

// NewModel creates a new Anthropic model using the official client.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := defaultOptions(optFns...)

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Model{client: &client, opts: opts}
}

// NewModelFromClient creates a new Anthropic model from an existing client.
func NewModelFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Model {
	return &Model{client: client, opts: defaultOptions(optFns...)}
}

func defaultOptions(optFns ...func(o *Options)) Options {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.0,
		MaxTokens:   8192,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}

// GetTurn implements model.Model. The full history is sent on every call;
// system messages become the request's system blocks.
func (m *Model) GetTurn(ctx context.Context, history []core.Message, _ map[string]any) (model.Turn, error) {
	params := anthropic.MessageNewParams{
		Model:       m.opts.Model,
		Messages:    buildMessages(history),
		MaxTokens:   m.opts.MaxTokens,
		Temperature: anthropic.Float(m.opts.Temperature),
	}
	if system := extractSystemBlocks(history); len(system) > 0 {
		params.System = system
	}

	var reqOpts []option.RequestOption
	for k, v := range m.opts.Extra {
		reqOpts = append(reqOpts, option.WithJSONSet(k, v))
	}

	start := time.Now()
	resp, err := m.client.Messages.New(ctx, params, reqOpts...)
	if err != nil {
		return model.Turn{}, fmt.Errorf("anthropic api error: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.AsText().Text
		}
	}
	if text == "" {
		return model.Turn{}, fmt.Errorf("anthropic response contained no text content")
	}

	cost := m.callCost(resp.Usage.InputTokens, resp.Usage.OutputTokens)
	m.Add(cost)

	msg := core.Message{
		Role:    core.RoleAssistant,
		Content: text,
		Extra: map[string]any{
			"model":          string(m.opts.Model),
			"cost":           cost,
			"input_tokens":   resp.Usage.InputTokens,
			"output_tokens":  resp.Usage.OutputTokens,
			"stop_reason":    string(resp.StopReason),
			"query_duration": time.Since(start).Seconds(),
		},
	}
	return model.Turn{Message: msg, Actions: model.ExtractActions(text), Cost: cost}, nil
}

// Name implements model.Model.
func (m *Model) Name() string { return "anthropic/" + string(m.opts.Model) }

func (m *Model) callCost(inputTokens, outputTokens int64) float64 {
	in, out := m.opts.InputCostPerMTok, m.opts.OutputCostPerMTok
	if in == 0 && out == 0 {
		for _, p := range defaultPrices {
			if strings.HasPrefix(string(m.opts.Model), p.prefix) {
				in, out = p.input, p.output
				break
			}
		}
	}
	return float64(inputTokens)/1e6*in + float64(outputTokens)/1e6*out
}

// buildMessages converts history into Anthropic message params. System
// messages are handled separately; tool observations are sent as user turns
// since the agent protocol encodes observations as plain text.
func buildMessages(history []core.Message) []anthropic.MessageParam {
	var messages []anthropic.MessageParam
	for _, msg := range history {
		switch msg.Role {
		case core.RoleSystem:
			continue
		case core.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	return messages
}

func extractSystemBlocks(history []core.Message) []anthropic.TextBlockParam {
	var blocks []anthropic.TextBlockParam
	for _, msg := range history {
		if msg.Role == core.RoleSystem && msg.Content != "" {
			blocks = append(blocks, anthropic.TextBlockParam{Text: msg.Content})
		}
	}
	return blocks
}
