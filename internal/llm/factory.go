package llm

import (
	"fmt"
	"os"
	"strings"
)

// Provider selector strings accepted by NewFromSpec and the CLI --model flag.
const (
	providerAnthropic = "anthropic"
	providerOpenAI    = "openai"
	mockPrefix        = "mock:"
)

// NewFromSpec creates a provider from a selector string:
//
//	"anthropic"            Anthropic API, ANTHROPIC_API_KEY from env
//	"openai"               OpenAI API, OPENAI_API_KEY from env
//	"mock:<scenario.yaml>" scripted mock provider
//
// An empty selector defaults to anthropic.
func NewFromSpec(selector string, cfg Config) (Provider, error) {
	if strings.HasPrefix(selector, mockPrefix) {
		path := strings.TrimPrefix(selector, mockPrefix)
		if path == "" {
			return nil, fmt.Errorf("mock provider requires a scenario file: mock:<path>")
		}
		return NewMockProviderFromFile(path)
	}

	switch selector {
	case providerAnthropic, "":
		if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
			return NewAnthropicProviderWithKey(key, cfg)
		}
		return NewAnthropicProvider(cfg)

	case providerOpenAI:
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" && cfg.BaseURL == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
		if key == "" {
			// Local OpenAI-compatible endpoints accept any key.
			key = "local"
		}
		return NewOpenAIProvider(key, cfg)

	default:
		return nil, fmt.Errorf("unsupported provider: %s (supported: anthropic, openai, mock:<scenario>)", selector)
	}
}
