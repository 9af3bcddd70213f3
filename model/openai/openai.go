// Package openai provides a model adapter for the OpenAI Chat Completions API.
package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/SWE-agent/mini-swe-agent/core"
	"github.com/SWE-agent/mini-swe-agent/model"
)

// Per-million-token prices, prefix-matched against the configured model id.
var defaultPrices = []struct {
	prefix        string
	input, output float64
}{
	{"gpt-4o-mini", 0.15, 0.60},
	{"gpt-4o", 2.50, 10.0},
	{"gpt-4.1-mini", 0.40, 1.60},
	{"gpt-4.1-nano", 0.10, 0.40},
	{"gpt-4.1", 2.0, 8.0},
	{"o3-mini", 1.10, 4.40},
	{"o3", 2.0, 8.0},
	{"o4-mini", 1.10, 4.40},
}

// Options configure the OpenAI model adapter.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	APIKey              string
	BaseURL             string

	// InputCostPerMTok / OutputCostPerMTok override the built-in price
	// table (USD per million tokens).
	InputCostPerMTok  float64
	OutputCostPerMTok float64

	// Extra is passed through opaquely to the request body, one JSON field
	// per key.
	Extra map[string]any
}

// Model wraps the OpenAI Chat Completions API behind the generic model.Model interface.
type Model struct {
	model.Ledger
	client *openai.Client
	opts   Options
}

// NewModel creates a new OpenAI model using the official client.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := defaultOptions(optFns...)

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}
	client := openai.NewClient(clientOpts...)

	return &Model{client: &client, opts: opts}
}

// NewModelFromClient creates a new OpenAI model from an existing client.
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) *Model {
	return &Model{client: client, opts: defaultOptions(optFns...)}
}

func defaultOptions(optFns ...func(o *Options)) Options {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.0,
		MaxCompletionTokens: 8192,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}

// GetTurn implements model.Model.
func (m *Model) GetTurn(ctx context.Context, history []core.Message, _ map[string]any) (model.Turn, error) {
	params := openai.ChatCompletionNewParams{
		Messages:            buildMessages(history),
		Model:               m.opts.Model,
		Temperature:         openai.Float(m.opts.Temperature),
		MaxCompletionTokens: openai.Int(m.opts.MaxCompletionTokens),
	}

	var reqOpts []option.RequestOption
	for k, v := range m.opts.Extra {
		reqOpts = append(reqOpts, option.WithJSONSet(k, v))
	}

	start := time.Now()
	resp, err := m.client.Chat.Completions.New(ctx, params, reqOpts...)
	if err != nil {
		return model.Turn{}, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return model.Turn{}, fmt.Errorf("openai response contained no choices")
	}

	choice := resp.Choices[0]
	text := choice.Message.Content
	if text == "" {
		return model.Turn{}, fmt.Errorf("openai response contained no text content")
	}

	cost := m.callCost(resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	m.Add(cost)

	msg := core.Message{
		Role:    core.RoleAssistant,
		Content: text,
		Extra: map[string]any{
			"model":          m.opts.Model,
			"cost":           cost,
			"input_tokens":   resp.Usage.PromptTokens,
			"output_tokens":  resp.Usage.CompletionTokens,
			"finish_reason":  string(choice.FinishReason),
			"query_duration": time.Since(start).Seconds(),
		},
	}
	return model.Turn{Message: msg, Actions: model.ExtractActions(text), Cost: cost}, nil
}

// Name implements model.Model.
func (m *Model) Name() string { return "openai/" + m.opts.Model }

func (m *Model) callCost(promptTokens, completionTokens int64) float64 {
	in, out := m.opts.InputCostPerMTok, m.opts.OutputCostPerMTok
	if in == 0 && out == 0 {
		for _, p := range defaultPrices {
			if strings.HasPrefix(m.opts.Model, p.prefix) {
				in, out = p.input, p.output
				break
			}
		}
	}
	return float64(promptTokens)/1e6*in + float64(completionTokens)/1e6*out
}

func buildMessages(history []core.Message) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion
	for _, msg := range history {
		switch msg.Role {
		case core.RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Content))
		case core.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}
	return messages
}
