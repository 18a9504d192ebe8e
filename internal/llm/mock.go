package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// MockProvider implements Provider for testing and offline runs.
// It replays pre-scripted scenarios so that identical inputs produce
// identical transcripts.
type MockProvider struct {
	scenario *Scenario

	mu              sync.Mutex
	stepIndex       int
	requestCount    int
	conversationLog []ConversationEntry
}

// ConversationEntry records a request/response pair for debugging.
type ConversationEntry struct {
	Timestamp time.Time
	Request   string
	Response  string
}

// Scenario defines a sequence of mock responses loaded from YAML.
type Scenario struct {
	// Name is the scenario identifier.
	Name string `yaml:"name"`

	// Description is a human-readable description of what the scenario tests.
	Description string `yaml:"description,omitempty"`

	// Steps defines the sequence of mock responses, consumed in order.
	Steps []ScenarioStep `yaml:"steps"`
}

// ScenarioStep defines a single mock response.
type ScenarioStep struct {
	// Trigger is an optional substring that must be present in the request
	// for this step to be served. A non-matching request is answered with
	// the step anyway via advancing; triggers exist to catch mis-ordered
	// prompts in tests.
	Trigger string `yaml:"trigger,omitempty"`

	// Text is the free-text response served by Complete.
	Text string `yaml:"text,omitempty"`

	// Structured is the object served by CompleteStructured.
	Structured map[string]interface{} `yaml:"structured,omitempty"`

	// Malformed, when set, makes CompleteStructured return this raw payload
	// verbatim instead of Structured. Used to exercise parse-failure paths.
	Malformed string `yaml:"malformed,omitempty"`

	// Error, when set, makes the call fail with this message.
	Error string `yaml:"error,omitempty"`
}

// MockOption configures a MockProvider.
type MockOption func(*MockProvider)

// NewMockProvider creates a MockProvider from a loaded scenario.
func NewMockProvider(scenario *Scenario, opts ...MockOption) *MockProvider {
	m := &MockProvider{scenario: scenario}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewMockProviderFromFile creates a MockProvider from a YAML scenario file.
func NewMockProviderFromFile(path string, opts ...MockOption) (*MockProvider, error) {
	scenario, err := LoadScenario(path)
	if err != nil {
		return nil, err
	}
	return NewMockProvider(scenario, opts...), nil
}

// LoadScenario loads a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	// Scenario file path is intentionally configurable for testing.
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file %s: %w", path, err)
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("failed to parse scenario file %s: %w", path, err)
	}

	if scenario.Name == "" {
		return nil, fmt.Errorf("scenario file %s has no name", path)
	}

	return &scenario, nil
}

// Complete implements Provider.Complete with the next scripted step.
func (m *MockProvider) Complete(ctx context.Context, systemPrompt string, messages []Message) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	step, err := m.nextStep(systemPrompt, messages)
	if err != nil {
		return nil, err
	}

	text := step.Text
	if text == "" {
		text = "[mock scenario completed - no more steps]"
	}

	m.logConversation(systemPrompt, text)

	return &Response{
		Content:    text,
		StopReason: StopReasonEndTurn,
		Usage: Usage{
			InputTokens:  len(systemPrompt) / 4,
			OutputTokens: len(text) / 4,
		},
	}, nil
}

// CompleteStructured implements Provider.CompleteStructured with the next
// scripted step.
func (m *MockProvider) CompleteStructured(ctx context.Context, systemPrompt string, messages []Message, spec StructuredSpec) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	step, err := m.nextStep(systemPrompt, messages)
	if err != nil {
		return nil, err
	}

	if step.Malformed != "" {
		m.logConversation(systemPrompt, step.Malformed)
		return json.RawMessage(step.Malformed), nil
	}

	if step.Structured == nil {
		return nil, fmt.Errorf("mock scenario %q has no structured payload for %s", m.scenario.Name, spec.Name)
	}

	data, err := json.Marshal(step.Structured)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal mock structured payload: %w", err)
	}

	m.logConversation(systemPrompt, string(data))
	return data, nil
}

// Name implements Provider.Name.
func (m *MockProvider) Name() string {
	return fmt.Sprintf("mock:%s", m.scenario.Name)
}

// Model implements Provider.Model.
func (m *MockProvider) Model() string {
	return "mock"
}

// GetConversationLog returns the conversation log for debugging.
func (m *MockProvider) GetConversationLog() []ConversationEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ConversationEntry{}, m.conversationLog...)
}

// Reset rewinds the scenario for a new run.
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stepIndex = 0
	m.requestCount = 0
	m.conversationLog = nil
}

func (m *MockProvider) nextStep(systemPrompt string, messages []Message) (*ScenarioStep, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requestCount++

	if m.stepIndex >= len(m.scenario.Steps) {
		// Out of steps: serve an empty step so Complete degrades gracefully
		// and CompleteStructured reports the exhaustion.
		return &ScenarioStep{}, nil
	}

	step := &m.scenario.Steps[m.stepIndex]
	m.stepIndex++

	if step.Trigger != "" {
		request := systemPrompt
		for _, msg := range messages {
			request += "\n" + msg.Content
		}
		if !strings.Contains(request, step.Trigger) {
			return nil, fmt.Errorf("mock scenario %q step %d expected trigger %q in request", m.scenario.Name, m.stepIndex, step.Trigger)
		}
	}

	if step.Error != "" {
		return nil, fmt.Errorf("mock scenario error: %s", step.Error)
	}

	return step, nil
}

func (m *MockProvider) logConversation(request, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conversationLog = append(m.conversationLog, ConversationEntry{
		Timestamp: time.Now(),
		Request:   truncateString(request, 200),
		Response:  truncateString(response, 200),
	})
}

// truncateString truncates a string to maxLen characters.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// Ensure the providers implement Provider at compile time.
var (
	_ Provider = (*AnthropicProvider)(nil)
	_ Provider = (*OpenAIProvider)(nil)
	_ Provider = (*MockProvider)(nil)
)
