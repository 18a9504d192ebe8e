package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/retrolens/retrolens/internal/metrics"
)

// AnthropicProvider implements Provider using the Anthropic Claude API.
type AnthropicProvider struct {
	client anthropic.Client
	config Config
}

// NewAnthropicProvider creates a new Anthropic provider.
// The API key is read from the ANTHROPIC_API_KEY environment variable by default.
func NewAnthropicProvider(cfg Config) (*AnthropicProvider, error) {
	applyDefaults(&cfg)
	return &AnthropicProvider{
		client: anthropic.NewClient(),
		config: cfg,
	}, nil
}

// NewAnthropicProviderWithKey creates a new Anthropic provider with an explicit API key.
func NewAnthropicProviderWithKey(apiKey string, cfg Config) (*AnthropicProvider, error) {
	applyDefaults(&cfg)
	return &AnthropicProvider{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		config: cfg,
	}, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Model == "" {
		cfg.Model = DefaultConfig().Model
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultConfig().MaxTokens
	}
}

// Complete implements Provider.Complete for Anthropic.
func (p *AnthropicProvider) Complete(ctx context.Context, systemPrompt string, messages []Message) (*Response, error) {
	params := p.buildParams(systemPrompt, messages)

	start := time.Now()
	resp, err := p.client.Messages.New(ctx, params)
	metrics.ObserveLLMCompletion(p.Name(), time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("anthropic API call failed: %w", err)
	}

	return p.convertResponse(resp), nil
}

// CompleteStructured implements Provider.CompleteStructured for Anthropic.
// The schema is presented as a single tool and tool choice is forced so the
// model must answer with a conforming object.
func (p *AnthropicProvider) CompleteStructured(ctx context.Context, systemPrompt string, messages []Message, spec StructuredSpec) (json.RawMessage, error) {
	params := p.buildParams(systemPrompt, messages)

	params.Tools = []anthropic.ToolUnionParam{{
		OfTool: &anthropic.ToolParam{
			Name:        spec.Name,
			Description: anthropic.String(spec.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: spec.Schema["properties"],
				Required:   requiredFields(spec.Schema),
			},
		},
	}}
	params.ToolChoice = anthropic.ToolChoiceUnionParam{
		OfTool: &anthropic.ToolChoiceToolParam{Name: spec.Name},
	}

	start := time.Now()
	resp, err := p.client.Messages.New(ctx, params)
	metrics.ObserveLLMCompletion(p.Name(), time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("anthropic API call failed: %w", err)
	}

	for i := range resp.Content {
		block := &resp.Content[i]
		if block.Type == "tool_use" && block.Name == spec.Name {
			return json.RawMessage(block.Input), nil
		}
	}

	return nil, fmt.Errorf("anthropic response contained no %s tool call", spec.Name)
}

// Name implements Provider.Name.
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// Model implements Provider.Model.
func (p *AnthropicProvider) Model() string {
	return p.config.Model
}

func (p *AnthropicProvider) buildParams(systemPrompt string, messages []Message) anthropic.MessageNewParams {
	anthropicMessages := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		block := anthropic.NewTextBlock(msg.Content)
		if msg.Role == RoleAssistant {
			anthropicMessages = append(anthropicMessages, anthropic.NewAssistantMessage(block))
		} else {
			anthropicMessages = append(anthropicMessages, anthropic.NewUserMessage(block))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.config.Model),
		MaxTokens: int64(p.config.MaxTokens),
		Messages:  anthropicMessages,
	}

	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: systemPrompt},
		}
	}

	return params
}

// convertResponse converts Anthropic's Message to our Response.
func (p *AnthropicProvider) convertResponse(resp *anthropic.Message) *Response {
	response := &Response{
		Usage: Usage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
		},
	}

	var textParts []string
	for i := range resp.Content {
		block := &resp.Content[i]
		if block.Type == "text" {
			textParts = append(textParts, block.Text)
		}
	}
	response.Content = strings.Join(textParts, "")

	switch resp.StopReason {
	case anthropic.StopReasonMaxTokens:
		response.StopReason = StopReasonMaxTokens
	default:
		response.StopReason = StopReasonEndTurn
	}

	return response
}
