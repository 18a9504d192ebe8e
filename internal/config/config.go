// Package config loads and validates agent configuration.
package config

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration for the retrolens agents.
type Config struct {
	// Model selects and tunes the LLM provider.
	Model ModelConfig `koanf:"model"`

	// WebSearch controls the cause-analysis search enrichment step.
	WebSearch WebSearchConfig `koanf:"web_search"`

	// Graph bounds the five-whys control loop.
	Graph GraphConfig `koanf:"graph"`

	// LogLevel is the logging level (debug, info, warn, error).
	LogLevel string `koanf:"log_level"`
}

// ModelConfig selects the LLM provider and generation parameters.
type ModelConfig struct {
	// Provider is "anthropic", "openai", or "mock:<scenario file>".
	Provider string `koanf:"provider"`

	// Name is the model identifier.
	Name string `koanf:"name"`

	// BaseURL overrides the API endpoint for OpenAI-compatible local servers.
	BaseURL string `koanf:"base_url"`

	// MaxTokens is the maximum number of tokens to generate per call.
	MaxTokens int `koanf:"max_tokens"`

	// Temperature controls sampling randomness.
	Temperature float64 `koanf:"temperature"`
}

// WebSearchConfig controls search filtering.
type WebSearchConfig struct {
	// Enabled toggles the search enrichment step.
	Enabled bool `koanf:"enabled"`

	// ScoreThreshold is the minimum relevance score to keep a result.
	ScoreThreshold float64 `koanf:"score_threshold"`

	// MaxResults caps the number of results kept after filtering.
	MaxResults int `koanf:"max_results"`

	// MaxQueryLength truncates outgoing queries to this many characters.
	MaxQueryLength int `koanf:"max_query_length"`

	// SearchDepth is the upstream search mode ("basic" or "advanced").
	SearchDepth string `koanf:"search_depth"`
}

// GraphConfig bounds the analysis control loop.
type GraphConfig struct {
	// RecursionLimit is the hard ceiling on total node executions per run,
	// independent of max why levels.
	RecursionLimit int `koanf:"recursion_limit"`

	// MaxWhyLevels is the default depth bound when the caller does not
	// supply one.
	MaxWhyLevels int `koanf:"max_why_levels"`
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			Provider:    "anthropic",
			MaxTokens:   4096,
			Temperature: 0.0,
		},
		WebSearch: WebSearchConfig{
			Enabled:        true,
			ScoreThreshold: 0.20,
			MaxResults:     3,
			MaxQueryLength: 400,
			SearchDepth:    "advanced",
		},
		Graph: GraphConfig{
			RecursionLimit: 30,
			MaxWhyLevels:   5,
		},
		LogLevel: "info",
	}
}

// Load reads a YAML config file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config from %q: %w", path, err)
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to parse config from %q: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed for %q: %w", path, err)
	}

	return cfg, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.WebSearch.ScoreThreshold < 0 || c.WebSearch.ScoreThreshold > 1 {
		return NewConfigError("web_search.score_threshold must be in [0, 1]")
	}

	if c.WebSearch.MaxResults < 1 {
		return NewConfigError("web_search.max_results must be at least 1")
	}

	if c.WebSearch.MaxQueryLength < 1 {
		return NewConfigError("web_search.max_query_length must be at least 1")
	}

	if d := c.WebSearch.SearchDepth; d != "basic" && d != "advanced" {
		return NewConfigError("web_search.search_depth must be basic or advanced")
	}

	if c.Graph.RecursionLimit < 1 {
		return NewConfigError("graph.recursion_limit must be at least 1")
	}

	if c.Graph.MaxWhyLevels < 0 {
		return NewConfigError("graph.max_why_levels must not be negative")
	}

	if c.Model.MaxTokens < 1 {
		return NewConfigError("model.max_tokens must be at least 1")
	}

	return nil
}

// ConfigError represents a configuration error.
type ConfigError struct {
	message string
}

// NewConfigError creates a new configuration error.
func NewConfigError(message string) *ConfigError {
	return &ConfigError{message: message}
}

// Error returns the error message.
func (e *ConfigError) Error() string {
	return e.message
}
