// Package fivewhys implements the iterative 5 Whys root-cause analysis
// controller.
//
// The controller is a fixed finite-state machine: a tagged set of node
// identifiers plus a transition function, bounded by a hard step ceiling
// that guarantees termination independently of the configured why depth.
//
// Known asymmetry, kept on purpose: a cause-analysis parse failure routes
// the walk through error_handling, while validation and solution-generation
// parse failures are only recorded and the walk proceeds. This mirrors the
// observed behavior of the process being modeled; do not unify it.
package fivewhys

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/retrolens/retrolens/internal/config"
	"github.com/retrolens/retrolens/internal/llm"
	"github.com/retrolens/retrolens/internal/logging"
	"github.com/retrolens/retrolens/internal/metrics"
	"github.com/retrolens/retrolens/internal/websearch"
)

// Node identifies one state of the analysis state machine.
type Node string

const (
	nodeEntry              Node = "entry"
	nodeWhyQuestion        Node = "why_question"
	nodeWebSearch          Node = "web_search"
	nodeCauseAnalysis      Node = "cause_analysis"
	nodeValidation         Node = "validation"
	nodeDecision           Node = "decision"
	nodeSolutionGeneration Node = "solution_generation"
	nodeSynthesis          Node = "synthesis"
	nodeErrorHandling      Node = "error_handling"
	nodeTerminal           Node = "terminal"
)

// errorThreshold is the number of accumulated recoverable errors beyond
// which the run aborts.
const errorThreshold = 3

// lowDepthThreshold marks a confidence score as indicating no progress.
const lowDepthThreshold = 0.3

// ErrPreconditionViolation indicates an internal state-machine invariant was
// broken. It is a bug in the controller, not a recoverable condition.
var ErrPreconditionViolation = errors.New("fivewhys: state machine precondition violated")

// ErrRecursionLimit indicates the hard step ceiling fired before a stop
// condition did.
var ErrRecursionLimit = errors.New("fivewhys: graph recursion limit reached")

// Agent runs 5 Whys analyses. It holds only immutable collaborators: one
// State is created per Analyze call, so a single Agent may serve concurrent
// callers.
type Agent struct {
	llm            llm.Provider
	search         websearch.Searcher
	recursionLimit int
	searchEnabled  bool
	defaultMaxWhys int
	logger         *logging.Logger
}

// Result is the outcome of one analysis run.
type Result struct {
	Problem        string        `json:"problem"`
	RootCause      string        `json:"root_cause"`
	WhyChain       []WhyEntry    `json:"why_chain"`
	Solutions      []string      `json:"solutions"`
	Report         string        `json:"report"`
	ProcessingTime time.Duration `json:"processing_time"`
	StopReason     StopReason    `json:"stop_reason"`
	Errors         []string      `json:"errors"`
}

// New creates an analysis agent. A nil cfg uses defaults; a nil searcher
// disables the search enrichment step.
func New(provider llm.Provider, searcher websearch.Searcher, cfg *config.Config) *Agent {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Agent{
		llm:            provider,
		search:         searcher,
		recursionLimit: cfg.Graph.RecursionLimit,
		searchEnabled:  cfg.WebSearch.Enabled && searcher != nil,
		defaultMaxWhys: cfg.Graph.MaxWhyLevels,
		logger:         logging.GetLogger("fivewhys"),
	}
}

// Analyze runs the 5 Whys analysis for one problem statement.
//
// maxWhys bounds the chain depth; a negative value selects the configured
// default. The walk is additionally bounded by the recursion limit; if that
// ceiling fires the partial result is returned together with
// ErrRecursionLimit.
func (a *Agent) Analyze(ctx context.Context, problem string, maxWhys int) (*Result, error) {
	if maxWhys < 0 {
		maxWhys = a.defaultMaxWhys
	}

	state := NewState(problem, maxWhys)
	start := time.Now()

	ctx = context.WithValue(ctx, logging.RunIDKey(), uuid.NewString())
	log := a.logger.WithContext(ctx)
	log.InfoWithFields("starting analysis",
		logging.Field("max_whys", maxWhys),
	)

	node := nodeEntry
	for steps := 0; node != nodeTerminal; steps++ {
		if steps >= a.recursionLimit {
			state.ProcessingTime = time.Since(start)
			return resultFrom(state), fmt.Errorf("%w after %d steps", ErrRecursionLimit, steps)
		}

		if err := ctx.Err(); err != nil {
			state.ProcessingTime = time.Since(start)
			return resultFrom(state), err
		}

		state.NodeHistory = append(state.NodeHistory, node)
		metrics.ObserveNode("fivewhys", string(node))
		log.DebugWithFields("executing node",
			logging.Field("node", node),
			logging.Field("why_level", state.WhyLevel),
		)

		next, err := a.step(ctx, node, state, start)
		if err != nil {
			state.ProcessingTime = time.Since(start)
			return resultFrom(state), err
		}
		node = next
	}

	log.InfoWithFields("analysis complete",
		logging.Field("stop_reason", state.StopReason),
		logging.Field("chain_length", len(state.WhyChain)),
		logging.Field("errors", len(state.Errors)),
	)

	return resultFrom(state), nil
}

// step executes one node and returns the next node per the transition table.
func (a *Agent) step(ctx context.Context, node Node, s *State, start time.Time) (Node, error) {
	switch node {
	case nodeEntry:
		a.runEntry(ctx, s)
		// A zero depth bound means the why loop never runs; conclude
		// immediately so the level invariant holds at every step.
		if s.MaxWhyLevels == 0 {
			s.ShouldContinue = false
			s.StopReason = StopMaxWhysReached
			return nodeSolutionGeneration, nil
		}
		return nodeWhyQuestion, nil

	case nodeWhyQuestion:
		if err := a.runWhyQuestion(s); err != nil {
			return nodeTerminal, err
		}
		return nodeWebSearch, nil

	case nodeWebSearch:
		a.runWebSearch(ctx, s)
		return nodeCauseAnalysis, nil

	case nodeCauseAnalysis:
		a.runCauseAnalysis(ctx, s)
		if len(s.Errors) > 0 {
			return nodeErrorHandling, nil
		}
		return nodeValidation, nil

	case nodeValidation:
		a.runValidation(ctx, s)
		return nodeDecision, nil

	case nodeDecision:
		a.runDecision(s)
		if s.ShouldContinue {
			return nodeWhyQuestion, nil
		}
		return nodeSolutionGeneration, nil

	case nodeSolutionGeneration:
		a.runSolutionGeneration(ctx, s)
		return nodeSynthesis, nil

	case nodeSynthesis:
		a.runSynthesis(ctx, s, start)
		return nodeTerminal, nil

	case nodeErrorHandling:
		a.runErrorHandling(s)
		if s.ShouldContinue {
			return nodeCauseAnalysis, nil
		}
		s.ProcessingTime = time.Since(start)
		return nodeTerminal, nil

	default:
		return nodeTerminal, fmt.Errorf("%w: unknown node %q", ErrPreconditionViolation, node)
	}
}

// runEntry clarifies the problem statement. Any failure falls back to the
// original text silently; this node has no other recovery policy.
func (a *Agent) runEntry(ctx context.Context, s *State) {
	resp, err := a.llm.Complete(ctx, clarificationPrompt, []llm.Message{
		{Role: llm.RoleUser, Content: fmt.Sprintf("Problem: %s", s.ProblemStatement)},
	})
	if err == nil {
		var clarification ClarificationOutput
		if json.Unmarshal([]byte(resp.Content), &clarification) == nil {
			if clarification.ClarifiedProblem != "" {
				s.ProblemStatement = clarification.ClarifiedProblem
			}
			s.AssumptionsMade = clarification.Assumptions
			s.EvidenceNeeded = clarification.EvidenceNeeded
		}
	}

	s.CurrentFocus = s.ProblemStatement
}

// runWhyQuestion constructs the next why question. Pure templating, no LLM
// call. A follow-up question without a prior answer is a controller bug and
// fails loudly.
func (a *Agent) runWhyQuestion(s *State) error {
	var question string
	if s.WhyLevel == 0 {
		question = formatWhyQuestion(s.ProblemStatement)
	} else {
		if len(s.WhyAnswers) == 0 {
			return fmt.Errorf("%w: why level %d with empty answer chain", ErrPreconditionViolation, s.WhyLevel)
		}
		question = formatWhyQuestionChain(s.ProblemStatement, s.WhyAnswers[len(s.WhyAnswers)-1])
	}

	s.WhyQuestions = append(s.WhyQuestions, question)
	s.WhyLevel++
	return nil
}

// runWebSearch enriches the current question with filtered web results.
// Zero results are valid; a transport failure is recorded and counts toward
// the abort threshold.
func (a *Agent) runWebSearch(ctx context.Context, s *State) {
	query := s.LastQuestion()
	s.SearchContext = SearchContext{Query: query}

	if !a.searchEnabled {
		return
	}

	resp, err := a.search.Search(ctx, query)
	if err != nil {
		s.recordError(fmt.Sprintf("web search failed: %v", err))
		return
	}

	s.SearchContext.Results = websearch.Contents(resp.Results)
	s.SearchContext.ResponseTime = resp.ResponseTime
}

// runCauseAnalysis asks the model to identify the cause answering the
// current question. A parse or transport failure is recorded and triggers
// the error-handling path; the focus is left unchanged.
func (a *Agent) runCauseAnalysis(ctx context.Context, s *State) {
	question := s.LastQuestion()
	prompt := formatCauseAnalysisPrompt(s, question)

	raw, err := a.llm.CompleteStructured(ctx, prompt, []llm.Message{
		{Role: llm.RoleUser, Content: question},
	}, causeAnalysisSpec)
	if err != nil {
		s.recordError(fmt.Sprintf("cause analysis request failed: %v", err))
		return
	}

	var analysis CauseAnalysisOutput
	if err := json.Unmarshal(raw, &analysis); err != nil {
		s.recordError("failed to parse cause analysis response")
		return
	}

	s.WhyAnswers = append(s.WhyAnswers, analysis.PrimaryCause)
	s.WhyChain = append(s.WhyChain, WhyEntry{
		Question:     question,
		Answer:       analysis.PrimaryCause,
		Evidence:     analysis.Evidence,
		Alternatives: analysis.AlternativeCauses,
		Level:        s.WhyLevel,
	})
	s.DepthScores = append(s.DepthScores, analysis.ConfidenceLevel)

	if analysis.Evidence != "" {
		s.EvidenceGathered = append(s.EvidenceGathered, analysis.Evidence)
	}

	s.CurrentFocus = analysis.PrimaryCause
}

// runValidation asks the model to assess the chain. Unlike cause analysis,
// a failure here is recorded but the walk proceeds to the decision node.
func (a *Agent) runValidation(ctx context.Context, s *State) {
	raw, err := a.llm.CompleteStructured(ctx, formatValidationPrompt(s), []llm.Message{
		{Role: llm.RoleUser, Content: "Please validate the current 5 Whys chain."},
	}, validationSpec)
	if err != nil {
		s.recordError(fmt.Sprintf("validation request failed: %v", err))
		return
	}

	var validation ValidationOutput
	if err := json.Unmarshal(raw, &validation); err != nil {
		s.recordError("failed to parse validation response")
		return
	}

	s.ValidationResults = append(s.ValidationResults, validation)
	s.RefinementSuggestions = append(s.RefinementSuggestions, validation.ImprovementSuggestions...)

	// Zero scores are treated as absent.
	if validation.ChainValidity > 0 {
		s.RelevanceScores = append(s.RelevanceScores, validation.ChainValidity)
	}
	if validation.Actionability > 0 {
		s.ActionabilityScores = append(s.ActionabilityScores, validation.Actionability)
	}
}

// runDecision evaluates the stop conditions. Deterministic, no LLM call.
func (a *Agent) runDecision(s *State) {
	s.ShouldContinue, s.StopReason = decide(s)
}

// decide evaluates the three stop conditions in fixed priority order; the
// first match wins. Reaching the depth limit always overrides a root-cause
// signal that arrived in the same check.
func decide(s *State) (bool, StopReason) {
	if s.WhyLevel >= s.MaxWhyLevels {
		return false, StopMaxWhysReached
	}

	if n := len(s.ValidationResults); n > 0 && s.ValidationResults[n-1].IsRootCauseLikely {
		return false, StopRootCauseIdentified
	}

	if n := len(s.DepthScores); n >= 2 &&
		s.DepthScores[n-1] < lowDepthThreshold &&
		s.DepthScores[n-2] < lowDepthThreshold {
		return false, StopInsufficientDepth
	}

	return true, StopNone
}

// runSolutionGeneration asks the model for remediation plans. Failures are
// recorded but the walk proceeds to synthesis unconditionally.
func (a *Agent) runSolutionGeneration(ctx context.Context, s *State) {
	raw, err := a.llm.CompleteStructured(ctx, formatSolutionPrompt(s), []llm.Message{
		{Role: llm.RoleUser, Content: "Generate solutions based on the 5 Whys analysis."},
	}, solutionSpec)
	if err != nil {
		s.recordError(fmt.Sprintf("solution generation request failed: %v", err))
		return
	}

	var solutions SolutionOutput
	if err := json.Unmarshal(raw, &solutions); err != nil {
		s.recordError("failed to parse solution response")
		return
	}

	s.SolutionDetails = &solutions
	s.PotentialSolutions = solutions.ImmediateActions
	s.RecommendedActions = solutions.PreventiveMeasures
}

// runSynthesis extracts the root cause and renders the final report. An
// empty chain yields an empty root cause, never a failure.
func (a *Agent) runSynthesis(ctx context.Context, s *State, start time.Time) {
	if len(s.WhyChain) > 0 {
		s.FinalRootCause = s.WhyChain[len(s.WhyChain)-1].Answer
	}

	resp, err := a.llm.Complete(ctx, formatReportPrompt(s), []llm.Message{
		{Role: llm.RoleUser, Content: "Generate the final 5 Whys analysis report."},
	})
	if err != nil {
		s.recordError(fmt.Sprintf("report generation failed: %v", err))
	} else {
		s.FinalReport = resp.Content
	}

	s.ProcessingTime = time.Since(start)
}

// runErrorHandling aborts the run once the error count exceeds the
// threshold; below it the previous continue decision stands and
// cause_analysis is retried.
func (a *Agent) runErrorHandling(s *State) {
	if len(s.Errors) > errorThreshold {
		s.ShouldContinue = false
		s.StopReason = StopTooManyErrors
	}
}

func resultFrom(s *State) *Result {
	return &Result{
		Problem:        s.ProblemStatement,
		RootCause:      s.FinalRootCause,
		WhyChain:       s.WhyChain,
		Solutions:      s.PotentialSolutions,
		Report:         s.FinalReport,
		ProcessingTime: s.ProcessingTime,
		StopReason:     s.StopReason,
		Errors:         s.Errors,
	}
}
