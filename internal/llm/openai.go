package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/retrolens/retrolens/internal/metrics"
)

// OpenAIProvider implements Provider using the OpenAI chat-completions API.
// It also serves OpenAI-compatible local endpoints (LM Studio, vLLM) via
// Config.BaseURL.
type OpenAIProvider struct {
	client *openai.Client
	config Config
}

// NewOpenAIProvider creates a new OpenAI provider with an explicit API key.
func NewOpenAIProvider(apiKey string, cfg Config) (*OpenAIProvider, error) {
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultConfig().MaxTokens
	}

	clientCfg := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientCfg),
		config: cfg,
	}, nil
}

// Complete implements Provider.Complete for OpenAI.
func (p *OpenAIProvider) Complete(ctx context.Context, systemPrompt string, messages []Message) (*Response, error) {
	req := p.buildRequest(systemPrompt, messages)

	start := time.Now()
	resp, err := p.client.CreateChatCompletion(ctx, req)
	metrics.ObserveLLMCompletion(p.Name(), time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("openai API call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai response contained no choices")
	}

	choice := resp.Choices[0]
	stopReason := StopReasonEndTurn
	if choice.FinishReason == openai.FinishReasonLength {
		stopReason = StopReasonMaxTokens
	}

	return &Response{
		Content:    choice.Message.Content,
		StopReason: stopReason,
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}

// CompleteStructured implements Provider.CompleteStructured for OpenAI using
// the JSON-schema response format.
func (p *OpenAIProvider) CompleteStructured(ctx context.Context, systemPrompt string, messages []Message, spec StructuredSpec) (json.RawMessage, error) {
	req := p.buildRequest(systemPrompt, messages)
	req.ResponseFormat = &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
		JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
			Name:        spec.Name,
			Description: spec.Description,
			Schema:      rawSchema(spec.Schema),
		},
	}

	start := time.Now()
	resp, err := p.client.CreateChatCompletion(ctx, req)
	metrics.ObserveLLMCompletion(p.Name(), time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("openai API call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai response contained no choices")
	}

	return json.RawMessage(resp.Choices[0].Message.Content), nil
}

// Name implements Provider.Name.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Model implements Provider.Model.
func (p *OpenAIProvider) Model() string {
	return p.config.Model
}

func (p *OpenAIProvider) buildRequest(systemPrompt string, messages []Message) openai.ChatCompletionRequest {
	msgs := make([]openai.ChatCompletionMessage, 0, len(messages)+1)

	if systemPrompt != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}

	for _, m := range messages {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    role,
			Content: m.Content,
		})
	}

	return openai.ChatCompletionRequest{
		Model:       p.config.Model,
		Messages:    msgs,
		MaxTokens:   p.config.MaxTokens,
		Temperature: float32(p.config.Temperature),
	}
}

// rawSchema adapts a schema map to the json.Marshaler the SDK expects.
type rawSchema map[string]interface{}

func (s rawSchema) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}(s))
}
