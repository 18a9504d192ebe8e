package fivewhys

import "time"

// StopReason enumerates why the iterative loop terminated.
type StopReason string

const (
	// StopNone means no stop condition has fired yet.
	StopNone StopReason = ""

	// StopMaxWhysReached fires when the why counter hits the depth bound.
	StopMaxWhysReached StopReason = "max_whys_reached"

	// StopRootCauseIdentified fires when validation marks the chain as
	// having reached a likely root cause.
	StopRootCauseIdentified StopReason = "root_cause_identified"

	// StopInsufficientDepth fires when the two most recent confidence
	// scores are both below the low-depth threshold.
	StopInsufficientDepth StopReason = "insufficient_depth"

	// StopTooManyErrors fires when the accumulated error count exceeds
	// the abort threshold.
	StopTooManyErrors StopReason = "too_many_errors"
)

// WhyEntry is one link of the why chain.
type WhyEntry struct {
	Question     string   `json:"question"`
	Answer       string   `json:"answer"`
	Evidence     string   `json:"evidence"`
	Alternatives []string `json:"alternatives"`
	Level        int      `json:"level"`
}

// SearchContext holds the filtered results of the most recent search step.
type SearchContext struct {
	Results      []string `json:"results"`
	Query        string   `json:"query"`
	ResponseTime float64  `json:"response_time"`
}

// State is the single mutable record threaded through all steps of one
// analysis run. It is created fresh per Analyze call and owned exclusively
// by that call; append-only sequences are never truncated.
type State struct {
	// Core problem
	ProblemStatement string
	CurrentFocus     string

	// Why chain
	WhyLevel     int
	MaxWhyLevels int
	WhyQuestions []string
	WhyAnswers   []string
	WhyChain     []WhyEntry

	// Web search
	SearchContext SearchContext

	// Analysis components
	AssumptionsMade  []string
	EvidenceNeeded   []string
	EvidenceGathered []string

	// Quality metrics
	DepthScores         []float64
	RelevanceScores     []float64
	ActionabilityScores []float64

	// Validation and refinement
	ValidationResults     []ValidationOutput
	RefinementSuggestions []string

	// Solutions
	PotentialSolutions []string
	RecommendedActions []string
	SolutionDetails    *SolutionOutput

	// Final results
	FinalRootCause string
	FinalReport    string

	// Control
	ShouldContinue bool
	StopReason     StopReason

	// Debugging and monitoring
	NodeHistory    []Node
	ProcessingTime time.Duration

	// Error handling
	Errors []string
}

// NewState creates the initial state for one analysis run.
func NewState(problem string, maxWhys int) *State {
	return &State{
		ProblemStatement: problem,
		MaxWhyLevels:     maxWhys,
		ShouldContinue:   true,
	}
}

// LastQuestion returns the most recent why question, or "" if none exists.
func (s *State) LastQuestion() string {
	if len(s.WhyQuestions) == 0 {
		return ""
	}
	return s.WhyQuestions[len(s.WhyQuestions)-1]
}

// recordError appends a recoverable failure to the error log.
func (s *State) recordError(msg string) {
	s.Errors = append(s.Errors, msg)
}
