package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 0.20, cfg.WebSearch.ScoreThreshold)
	assert.Equal(t, 3, cfg.WebSearch.MaxResults)
	assert.Equal(t, 400, cfg.WebSearch.MaxQueryLength)
	assert.Equal(t, 30, cfg.Graph.RecursionLimit)
	assert.Equal(t, 5, cfg.Graph.MaxWhyLevels)
	assert.NoError(t, cfg.Validate())
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
model:
  provider: openai
  name: gpt-4o
web_search:
  score_threshold: 0.35
  max_results: 5
graph:
  recursion_limit: 50
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Model.Provider)
	assert.Equal(t, "gpt-4o", cfg.Model.Name)
	assert.Equal(t, 0.35, cfg.WebSearch.ScoreThreshold)
	assert.Equal(t, 5, cfg.WebSearch.MaxResults)
	assert.Equal(t, 50, cfg.Graph.RecursionLimit)
	// Untouched keys keep defaults
	assert.Equal(t, 400, cfg.WebSearch.MaxQueryLength)
	assert.Equal(t, 5, cfg.Graph.MaxWhyLevels)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "threshold above one",
			mutate:  func(c *Config) { c.WebSearch.ScoreThreshold = 1.5 },
			wantErr: "score_threshold",
		},
		{
			name:    "negative threshold",
			mutate:  func(c *Config) { c.WebSearch.ScoreThreshold = -0.1 },
			wantErr: "score_threshold",
		},
		{
			name:    "zero max results",
			mutate:  func(c *Config) { c.WebSearch.MaxResults = 0 },
			wantErr: "max_results",
		},
		{
			name:    "bad search depth",
			mutate:  func(c *Config) { c.WebSearch.SearchDepth = "deep" },
			wantErr: "search_depth",
		},
		{
			name:    "zero recursion limit",
			mutate:  func(c *Config) { c.Graph.RecursionLimit = 0 },
			wantErr: "recursion_limit",
		},
		{
			name:    "negative max why levels",
			mutate:  func(c *Config) { c.Graph.MaxWhyLevels = -1 },
			wantErr: "max_why_levels",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
