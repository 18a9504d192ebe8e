package fivewhys

import "github.com/retrolens/retrolens/internal/llm"

// ClarificationOutput is the structured response of the entry step.
type ClarificationOutput struct {
	ClarifiedProblem string   `json:"clarified_problem" jsonschema:"description=The problem statement rephrased to be specific and actionable"`
	Assumptions      []string `json:"assumptions" jsonschema:"description=Assumptions that need to be validated"`
	EvidenceNeeded   []string `json:"evidence_needed" jsonschema:"description=Evidence or data that would help the analysis"`
}

// CauseAnalysisOutput is the structured response of the cause-analysis step.
type CauseAnalysisOutput struct {
	PrimaryCause      string   `json:"primary_cause" jsonschema:"description=The main cause that answers the why question"`
	Evidence          string   `json:"evidence" jsonschema:"description=Evidence or reasoning supporting this cause"`
	AlternativeCauses []string `json:"alternative_causes" jsonschema:"description=Alternative causes"`
	DepthAssessment   string   `json:"depth_assessment" jsonschema:"description=How deep this cause is (surface/intermediate/deep)"`
	ConfidenceLevel   float64  `json:"confidence_level" jsonschema:"description=Confidence in the primary cause from 0.0 to 1.0"`
	Actionability     string   `json:"actionability" jsonschema:"description=How actionable this cause is (low/medium/high)"`
}

// ValidationOutput is the structured assessment of the current chain.
type ValidationOutput struct {
	ChainValidity          float64  `json:"chain_validity" jsonschema:"description=Logical consistency of the chain from 0.0 to 1.0"`
	DepthAdequacy          float64  `json:"depth_adequacy" jsonschema:"description=Whether the chain reaches root causes from 0.0 to 1.0"`
	EvidenceStrength       float64  `json:"evidence_strength" jsonschema:"description=Strength of supporting evidence from 0.0 to 1.0"`
	Actionability          float64  `json:"actionability" jsonschema:"description=Actionability of the identified causes from 0.0 to 1.0"`
	IssuesFound            []string `json:"issues_found" jsonschema:"description=Issues found in the chain"`
	ImprovementSuggestions []string `json:"improvement_suggestions" jsonschema:"description=Suggestions for improving the chain"`
	IsRootCauseLikely      bool     `json:"is_root_cause_likely" jsonschema:"description=Whether the latest cause is likely the root cause"`
	RecommendedAction      string   `json:"recommended_action" jsonschema:"description=Recommended next action"`
}

// SolutionOutput is the structured response of the solution-generation step.
type SolutionOutput struct {
	ImmediateActions      []string `json:"immediate_actions" jsonschema:"description=Immediate actions to address the root cause"`
	PreventiveMeasures    []string `json:"preventive_measures" jsonschema:"description=Preventive measures to avoid recurrence"`
	MonitoringStrategies  []string `json:"monitoring_strategies" jsonschema:"description=Monitoring strategies to track effectiveness"`
	AlternativeApproaches []string `json:"alternative_approaches" jsonschema:"description=Alternative approaches if the primary solution fails"`
	SuccessMetrics        []string `json:"success_metrics" jsonschema:"description=Success metrics"`
	Timeline              string   `json:"timeline" jsonschema:"description=Suggested implementation timeline"`
}

var (
	causeAnalysisSpec = llm.MustSpecFor("cause_analysis",
		"The identified cause answering the current why question", &CauseAnalysisOutput{})

	validationSpec = llm.MustSpecFor("chain_validation",
		"Assessment of the current why chain", &ValidationOutput{})

	solutionSpec = llm.MustSpecFor("solution_plan",
		"Actionable solutions derived from the why chain", &SolutionOutput{})
)
