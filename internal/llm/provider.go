// Package llm implements the LLM provider abstractions for retrolens agents.
package llm

import (
	"context"
	"encoding/json"
)

// Message represents a conversation message.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Role represents the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Response represents the model's free-text response.
type Response struct {
	// Content is the text content of the response.
	Content string

	// StopReason indicates why the model stopped generating.
	StopReason StopReason

	// Usage contains token usage information.
	Usage Usage
}

// StopReason indicates why the model stopped generating.
type StopReason string

const (
	StopReasonEndTurn   StopReason = "end_turn"
	StopReasonMaxTokens StopReason = "max_tokens"
	StopReasonError     StopReason = "error"
)

// Usage contains token usage information.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// StructuredSpec constrains a completion to a JSON schema.
type StructuredSpec struct {
	// Name identifies the expected output object (e.g. "cause_analysis").
	Name string

	// Description tells the model what the object represents.
	Description string

	// Schema is the JSON schema the response must conform to.
	Schema map[string]interface{}
}

// Provider defines the interface for LLM providers.
//
// Complete returns free text. CompleteStructured returns the raw JSON of an
// object conforming to the given spec; callers unmarshal into their own
// result types and treat unmarshal errors as a missing structured result.
type Provider interface {
	Complete(ctx context.Context, systemPrompt string, messages []Message) (*Response, error)

	CompleteStructured(ctx context.Context, systemPrompt string, messages []Message, spec StructuredSpec) (json.RawMessage, error)

	// Name returns the provider name for logging and display.
	Name() string

	// Model returns the model identifier being used.
	Model() string
}

// Config contains common configuration for providers.
type Config struct {
	// Model is the model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string

	// BaseURL overrides the API endpoint. Used for OpenAI-compatible local
	// servers; ignored by providers without endpoint overrides.
	BaseURL string

	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64
}

// DefaultConfig returns sensible defaults for analysis runs.
func DefaultConfig() Config {
	return Config{
		Model:       "claude-sonnet-4-5-20250929",
		MaxTokens:   4096,
		Temperature: 0.0, // Deterministic for reproducible analyses
	}
}
