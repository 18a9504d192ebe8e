package llm

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockProviderComplete(t *testing.T) {
	m := NewMockProvider(&Scenario{
		Name: "seq",
		Steps: []ScenarioStep{
			{Text: "first"},
			{Text: "second"},
		},
	})

	resp, err := m.Complete(context.Background(), "sys", []Message{{Role: RoleUser, Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Content)
	assert.Equal(t, StopReasonEndTurn, resp.StopReason)

	resp, err = m.Complete(context.Background(), "sys", nil)
	require.NoError(t, err)
	assert.Equal(t, "second", resp.Content)
}

func TestMockProviderExhaustion(t *testing.T) {
	m := NewMockProvider(&Scenario{Name: "empty"})

	resp, err := m.Complete(context.Background(), "sys", nil)
	require.NoError(t, err)
	assert.Contains(t, resp.Content, "no more steps")

	_, err = m.CompleteStructured(context.Background(), "sys", nil, StructuredSpec{Name: "x"})
	assert.Error(t, err)
}

func TestMockProviderStructured(t *testing.T) {
	m := NewMockProvider(&Scenario{
		Name: "structured",
		Steps: []ScenarioStep{
			{Structured: map[string]interface{}{"answer": "because", "score": 0.5}},
		},
	})

	raw, err := m.CompleteStructured(context.Background(), "sys", nil, StructuredSpec{Name: "x"})
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "because", decoded["answer"])
	assert.Equal(t, 0.5, decoded["score"])
}

func TestMockProviderMalformed(t *testing.T) {
	m := NewMockProvider(&Scenario{
		Name:  "broken",
		Steps: []ScenarioStep{{Malformed: "{{nope"}},
	})

	raw, err := m.CompleteStructured(context.Background(), "sys", nil, StructuredSpec{Name: "x"})
	require.NoError(t, err, "malformed payloads are delivered, not failed")
	assert.Equal(t, "{{nope", string(raw))
}

func TestMockProviderTrigger(t *testing.T) {
	m := NewMockProvider(&Scenario{
		Name: "triggered",
		Steps: []ScenarioStep{
			{Trigger: "clarify", Text: "ok"},
		},
	})

	_, err := m.Complete(context.Background(), "please clarify this", nil)
	require.NoError(t, err)

	m.Reset()

	_, err = m.Complete(context.Background(), "unrelated prompt", nil)
	assert.Error(t, err, "trigger mismatch must fail the step")
}

func TestMockProviderError(t *testing.T) {
	m := NewMockProvider(&Scenario{
		Name:  "failing",
		Steps: []ScenarioStep{{Error: "simulated outage"}},
	})

	_, err := m.Complete(context.Background(), "sys", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "simulated outage")
}

func TestMockProviderReset(t *testing.T) {
	m := NewMockProvider(&Scenario{
		Name:  "reset",
		Steps: []ScenarioStep{{Text: "only"}},
	})

	resp, err := m.Complete(context.Background(), "sys", nil)
	require.NoError(t, err)
	assert.Equal(t, "only", resp.Content)

	m.Reset()

	resp, err = m.Complete(context.Background(), "sys", nil)
	require.NoError(t, err)
	assert.Equal(t, "only", resp.Content)
	assert.Len(t, m.GetConversationLog(), 1)
}

func TestLoadScenario(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	content := `name: happy-path
description: basic walkthrough
steps:
  - text: "clarified"
  - structured:
      primary_cause: "disk full"
      confidence_level: 0.9
  - malformed: "not json"
  - error: "boom"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "happy-path", scenario.Name)
	require.Len(t, scenario.Steps, 4)
	assert.Equal(t, "clarified", scenario.Steps[0].Text)
	assert.Equal(t, "disk full", scenario.Steps[1].Structured["primary_cause"])
	assert.Equal(t, "not json", scenario.Steps[2].Malformed)
	assert.Equal(t, "boom", scenario.Steps[3].Error)
}

func TestLoadScenarioRejectsUnnamed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "anon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("steps: []\n"), 0o600))

	_, err := LoadScenario(path)
	assert.Error(t, err)
}

func TestNewFromSpecMock(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: s\nsteps:\n  - text: hi\n"), 0o600))

	p, err := NewFromSpec("mock:"+path, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, "mock:s", p.Name())
	assert.Equal(t, "mock", p.Model())
}

func TestNewFromSpecUnsupported(t *testing.T) {
	_, err := NewFromSpec("carrier-pigeon", DefaultConfig())
	assert.Error(t, err)
}
