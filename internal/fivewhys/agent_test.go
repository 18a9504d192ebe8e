package fivewhys

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retrolens/retrolens/internal/config"
	"github.com/retrolens/retrolens/internal/llm"
	"github.com/retrolens/retrolens/internal/websearch"
)

const clarificationText = `{"clarified_problem":"Deploy pipeline fails intermittently on the integration stage","assumptions":["failures correlate with load"],"evidence_needed":["CI logs"]}`

func causeStep(cause string, confidence float64) llm.ScenarioStep {
	return llm.ScenarioStep{
		Structured: map[string]interface{}{
			"primary_cause":      cause,
			"evidence":           "observed in logs",
			"alternative_causes": []interface{}{"flaky network"},
			"depth_assessment":   "intermediate",
			"confidence_level":   confidence,
			"actionability":      "medium",
		},
	}
}

func validationStep(rootCauseLikely bool) llm.ScenarioStep {
	return llm.ScenarioStep{
		Structured: map[string]interface{}{
			"chain_validity":          0.9,
			"depth_adequacy":          0.7,
			"evidence_strength":       0.6,
			"actionability":           0.8,
			"issues_found":            []interface{}{},
			"improvement_suggestions": []interface{}{"gather CI logs"},
			"is_root_cause_likely":    rootCauseLikely,
			"recommended_action":      "continue",
		},
	}
}

func solutionStep() llm.ScenarioStep {
	return llm.ScenarioStep{
		Structured: map[string]interface{}{
			"immediate_actions":      []interface{}{"pin the runner image"},
			"preventive_measures":    []interface{}{"add capacity alerts"},
			"monitoring_strategies":  []interface{}{"track stage duration"},
			"alternative_approaches": []interface{}{"move to self-hosted runners"},
			"success_metrics":        []interface{}{"failure rate below 1%"},
			"timeline":               "two sprints",
		},
	}
}

func newTestAgent(t *testing.T, steps []llm.ScenarioStep, cfg *config.Config) (*Agent, *llm.MockProvider) {
	t.Helper()
	provider := llm.NewMockProvider(&llm.Scenario{Name: t.Name(), Steps: steps})
	return New(provider, nil, cfg), provider
}

func TestAnalyzeRootCauseIdentified(t *testing.T) {
	steps := []llm.ScenarioStep{
		{Text: clarificationText},
		causeStep("runner pool exhausted during peak hours", 0.85),
		validationStep(true),
		solutionStep(),
		{Text: "Final report: runner pool exhaustion is the root cause."},
	}
	agent, _ := newTestAgent(t, steps, nil)

	result, err := agent.Analyze(context.Background(), "deploy pipeline fails intermittently", 5)
	require.NoError(t, err)

	assert.Equal(t, StopRootCauseIdentified, result.StopReason)
	require.Len(t, result.WhyChain, 1)
	assert.Equal(t, 1, result.WhyChain[0].Level)
	assert.Equal(t, "runner pool exhausted during peak hours", result.WhyChain[0].Answer)
	assert.Equal(t, "runner pool exhausted during peak hours", result.RootCause)
	assert.Equal(t, []string{"pin the runner image"}, result.Solutions)
	assert.Contains(t, result.Report, "root cause")
	assert.Empty(t, result.Errors)
	assert.Equal(t, "Deploy pipeline fails intermittently on the integration stage", result.Problem)
}

func TestAnalyzeMaxWhysReached(t *testing.T) {
	steps := []llm.ScenarioStep{
		{Text: clarificationText},
		causeStep("first-level cause", 0.8),
		validationStep(false),
		causeStep("second-level cause", 0.7),
		validationStep(false),
		solutionStep(),
		{Text: "report"},
	}
	agent, _ := newTestAgent(t, steps, nil)

	result, err := agent.Analyze(context.Background(), "deploys fail", 2)
	require.NoError(t, err)

	assert.Equal(t, StopMaxWhysReached, result.StopReason)
	require.Len(t, result.WhyChain, 2)
	assert.Equal(t, "second-level cause", result.RootCause)
}

func TestAnalyzeInsufficientDepth(t *testing.T) {
	steps := []llm.ScenarioStep{
		{Text: clarificationText},
		causeStep("vague first cause", 0.1),
		validationStep(false),
		causeStep("vague second cause", 0.2),
		validationStep(false),
		solutionStep(),
		{Text: "report"},
	}
	agent, _ := newTestAgent(t, steps, nil)

	result, err := agent.Analyze(context.Background(), "deploys fail", 10)
	require.NoError(t, err)

	assert.Equal(t, StopInsufficientDepth, result.StopReason)
	assert.Len(t, result.WhyChain, 2)
}

func TestAnalyzeTooManyErrors(t *testing.T) {
	steps := []llm.ScenarioStep{
		{Text: clarificationText},
		{Malformed: "not json at all"},
		{Malformed: "not json at all"},
		{Malformed: "not json at all"},
		{Malformed: "not json at all"},
	}
	agent, _ := newTestAgent(t, steps, nil)

	result, err := agent.Analyze(context.Background(), "deploys fail", 5)
	require.NoError(t, err)

	assert.Equal(t, StopTooManyErrors, result.StopReason)
	assert.Len(t, result.Errors, 4)
	assert.Empty(t, result.WhyChain)
	assert.Empty(t, result.RootCause)
	assert.Empty(t, result.Report)
}

func TestAnalyzeZeroMaxWhysSkipsWhyLoop(t *testing.T) {
	steps := []llm.ScenarioStep{
		{Text: clarificationText},
		solutionStep(),
		{Text: "report without a chain"},
	}
	agent, _ := newTestAgent(t, steps, nil)

	result, err := agent.Analyze(context.Background(), "deploys fail", 0)
	require.NoError(t, err)

	assert.Equal(t, StopMaxWhysReached, result.StopReason)
	assert.Empty(t, result.WhyChain)
	assert.Empty(t, result.RootCause)
	assert.Equal(t, "report without a chain", result.Report)
	assert.Empty(t, result.Errors)
}

func TestAnalyzeIdempotent(t *testing.T) {
	steps := []llm.ScenarioStep{
		{Text: clarificationText},
		causeStep("runner pool exhausted", 0.85),
		validationStep(true),
		solutionStep(),
		{Text: "report"},
	}
	agent, provider := newTestAgent(t, steps, nil)

	first, err := agent.Analyze(context.Background(), "deploys fail", 5)
	require.NoError(t, err)

	provider.Reset()

	second, err := agent.Analyze(context.Background(), "deploys fail", 5)
	require.NoError(t, err)

	assert.Equal(t, first.WhyChain, second.WhyChain)
	assert.Equal(t, first.StopReason, second.StopReason)
}

func TestAnalyzeRecursionLimit(t *testing.T) {
	cfg := config.Default()
	cfg.Graph.RecursionLimit = 5

	steps := []llm.ScenarioStep{
		{Text: clarificationText},
		{Malformed: "still not json"},
		{Malformed: "still not json"},
	}
	agent, _ := newTestAgent(t, steps, cfg)

	result, err := agent.Analyze(context.Background(), "deploys fail", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRecursionLimit)
	require.NotNil(t, result)
	assert.NotEmpty(t, result.Errors)
}

func TestAnalyzeCancelledContext(t *testing.T) {
	agent, _ := newTestAgent(t, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := agent.Analyze(ctx, "deploys fail", 5)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name         string
		state        *State
		wantContinue bool
		wantReason   StopReason
	}{
		{
			name: "depth limit wins over root cause signal",
			state: &State{
				WhyLevel:          5,
				MaxWhyLevels:      5,
				ValidationResults: []ValidationOutput{{IsRootCauseLikely: true}},
			},
			wantContinue: false,
			wantReason:   StopMaxWhysReached,
		},
		{
			name: "root cause identified",
			state: &State{
				WhyLevel:          2,
				MaxWhyLevels:      5,
				ValidationResults: []ValidationOutput{{IsRootCauseLikely: false}, {IsRootCauseLikely: true}},
			},
			wantContinue: false,
			wantReason:   StopRootCauseIdentified,
		},
		{
			name: "stale root cause signal does not stop",
			state: &State{
				WhyLevel:          2,
				MaxWhyLevels:      5,
				ValidationResults: []ValidationOutput{{IsRootCauseLikely: true}, {IsRootCauseLikely: false}},
			},
			wantContinue: true,
			wantReason:   StopNone,
		},
		{
			name: "two low depth scores stop the run",
			state: &State{
				WhyLevel:     2,
				MaxWhyLevels: 10,
				DepthScores:  []float64{0.1, 0.2},
			},
			wantContinue: false,
			wantReason:   StopInsufficientDepth,
		},
		{
			name: "single low depth score continues",
			state: &State{
				WhyLevel:     1,
				MaxWhyLevels: 10,
				DepthScores:  []float64{0.1},
			},
			wantContinue: true,
			wantReason:   StopNone,
		},
		{
			name: "low score followed by recovery continues",
			state: &State{
				WhyLevel:     2,
				MaxWhyLevels: 10,
				DepthScores:  []float64{0.1, 0.8},
			},
			wantContinue: true,
			wantReason:   StopNone,
		},
		{
			name: "healthy chain continues",
			state: &State{
				WhyLevel:          2,
				MaxWhyLevels:      5,
				DepthScores:       []float64{0.8, 0.9},
				ValidationResults: []ValidationOutput{{IsRootCauseLikely: false}},
			},
			wantContinue: true,
			wantReason:   StopNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cont, reason := decide(tt.state)
			assert.Equal(t, tt.wantContinue, cont)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}

func TestErrorHandlingThreshold(t *testing.T) {
	agent := &Agent{}

	s := NewState("p", 5)
	s.Errors = []string{"a", "b", "c"}
	agent.runErrorHandling(s)
	assert.True(t, s.ShouldContinue, "three errors must not abort")
	assert.Equal(t, StopNone, s.StopReason)

	s.recordError("d")
	agent.runErrorHandling(s)
	assert.False(t, s.ShouldContinue, "four errors must abort")
	assert.Equal(t, StopTooManyErrors, s.StopReason)
}

func TestWhyQuestionRequiresPriorAnswer(t *testing.T) {
	agent := &Agent{}

	s := NewState("p", 5)
	s.WhyLevel = 2 // follow-up question without any recorded answer

	err := agent.runWhyQuestion(s)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPreconditionViolation)
}

func TestWhyQuestionIncrementsLevel(t *testing.T) {
	agent := &Agent{}

	s := NewState("servers crash nightly", 5)
	require.NoError(t, agent.runWhyQuestion(s))
	assert.Equal(t, 1, s.WhyLevel)
	require.Len(t, s.WhyQuestions, 1)
	assert.Contains(t, s.WhyQuestions[0], "servers crash nightly")

	s.WhyAnswers = append(s.WhyAnswers, "cron job exhausts memory")
	require.NoError(t, agent.runWhyQuestion(s))
	assert.Equal(t, 2, s.WhyLevel)
	assert.Contains(t, s.WhyQuestions[1], "cron job exhausts memory")
}

type fakeSearcher struct {
	response *websearch.Response
	err      error
	queries  []string
}

func (f *fakeSearcher) Search(ctx context.Context, query string) (*websearch.Response, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func TestWebSearchPopulatesContext(t *testing.T) {
	searcher := &fakeSearcher{
		response: &websearch.Response{
			Results: []websearch.Result{
				{Title: "a", Content: "first snippet", Score: 0.9},
				{Title: "b", Content: "second snippet", Score: 0.5},
			},
			ResponseTime: 0.42,
		},
	}
	agent := New(llm.NewMockProvider(&llm.Scenario{Name: "noop"}), searcher, nil)

	s := NewState("p", 5)
	s.WhyQuestions = []string{"Why does this problem occur: p?"}
	agent.runWebSearch(context.Background(), s)

	assert.Equal(t, []string{"Why does this problem occur: p?"}, searcher.queries)
	assert.Equal(t, []string{"first snippet", "second snippet"}, s.SearchContext.Results)
	assert.Equal(t, 0.42, s.SearchContext.ResponseTime)
	assert.Empty(t, s.Errors)
}

func TestWebSearchFailureIsRecorded(t *testing.T) {
	searcher := &fakeSearcher{err: fmt.Errorf("upstream unavailable")}
	agent := New(llm.NewMockProvider(&llm.Scenario{Name: "noop"}), searcher, nil)

	s := NewState("p", 5)
	s.WhyQuestions = []string{"why?"}
	agent.runWebSearch(context.Background(), s)

	require.Len(t, s.Errors, 1)
	assert.Contains(t, s.Errors[0], "web search failed")
	assert.Empty(t, s.SearchContext.Results)
}

func TestWebSearchDisabledIsNoop(t *testing.T) {
	cfg := config.Default()
	cfg.WebSearch.Enabled = false

	searcher := &fakeSearcher{err: errors.New("must not be called")}
	agent := New(llm.NewMockProvider(&llm.Scenario{Name: "noop"}), searcher, cfg)

	s := NewState("p", 5)
	s.WhyQuestions = []string{"why?"}
	agent.runWebSearch(context.Background(), s)

	assert.Empty(t, searcher.queries)
	assert.Empty(t, s.Errors)
}

func TestEntryFallsBackToOriginalProblem(t *testing.T) {
	steps := []llm.ScenarioStep{
		{Text: "this is not a JSON clarification"},
	}
	agent, _ := newTestAgent(t, steps, nil)

	s := NewState("original problem text", 5)
	agent.runEntry(context.Background(), s)

	assert.Equal(t, "original problem text", s.ProblemStatement)
	assert.Equal(t, "original problem text", s.CurrentFocus)
}

func TestChainLengthNeverExceedsLevel(t *testing.T) {
	steps := []llm.ScenarioStep{
		{Text: clarificationText},
		causeStep("c1", 0.8),
		validationStep(false),
		causeStep("c2", 0.8),
		validationStep(false),
		causeStep("c3", 0.8),
		validationStep(true),
		solutionStep(),
		{Text: "report"},
	}
	agent, _ := newTestAgent(t, steps, nil)

	result, err := agent.Analyze(context.Background(), "deploys fail", 5)
	require.NoError(t, err)

	assert.LessOrEqual(t, len(result.WhyChain), 5)
	for i, entry := range result.WhyChain {
		assert.Equal(t, i+1, entry.Level)
	}
}
