package fivewhys

import (
	"encoding/json"
	"fmt"
	"strings"
)

const clarificationPrompt = `You are starting a 5 Whys root cause analysis. The user has provided a problem statement.
Your task is to:
1. Clarify and rephrase the problem statement to be specific and actionable
2. Identify any assumptions that need to be validated
3. Suggest what evidence or data might be helpful

Respond with a JSON object containing "clarified_problem", "assumptions", and "evidence_needed".`

// formatWhyQuestion builds the first why question from the problem itself.
func formatWhyQuestion(problem string) string {
	return fmt.Sprintf("Why does this problem occur: %s?", problem)
}

// formatWhyQuestionChain builds a follow-up why question from the most
// recently identified cause.
func formatWhyQuestionChain(problem, lastCause string) string {
	return fmt.Sprintf("The original problem is %s. The last potential cause is identified as: %s. Why does this cause occur?", problem, lastCause)
}

func formatCauseAnalysisPrompt(s *State, currentQuestion string) string {
	var b strings.Builder

	b.WriteString("You are conducting a 5 Whys root cause analysis.\n\n")
	fmt.Fprintf(&b, "Problem Context: %s\n", s.ProblemStatement)
	fmt.Fprintf(&b, "Previous Why Chain: %s\n", chainJSON(s.WhyChain))
	fmt.Fprintf(&b, "Current Question: %s\n", currentQuestion)

	if len(s.SearchContext.Results) > 0 {
		b.WriteString("\nWeb Search Results:\n")
		for _, r := range s.SearchContext.Results {
			fmt.Fprintf(&b, "- %s\n", r)
		}
	}

	b.WriteString(`
Your task is to:
1. Identify the most likely cause that answers the current question
2. Provide evidence or reasoning for this cause
3. Consider if there are alternative causes
4. Assess how deep this cause goes (is it a symptom or root cause?)`)

	return b.String()
}

func formatValidationPrompt(s *State) string {
	return fmt.Sprintf(`You are validating a 5 Whys analysis chain. Review the current chain and assess:

Problem: %s
Current Why Chain: %s

Validate:
1. Logical consistency - does each why logically follow from the previous?
2. Depth adequacy - are we getting to root causes or stuck on symptoms?
3. Evidence strength - is there sufficient evidence for each cause?
4. Actionability - can we act on the identified causes?`,
		s.ProblemStatement, chainJSON(s.WhyChain))
}

func formatSolutionPrompt(s *State) string {
	return fmt.Sprintf(`Based on the 5 Whys analysis, generate actionable solutions.

Problem: %s
Root Cause Chain: %s

Generate:
1. Immediate actions to address the root cause
2. Preventive measures to avoid recurrence
3. Monitoring strategies to track effectiveness
4. Alternative approaches if the primary solution fails`,
		s.ProblemStatement, chainJSON(s.WhyChain))
}

func formatReportPrompt(s *State) string {
	solutions := "{}"
	if s.SolutionDetails != nil {
		if data, err := json.MarshalIndent(s.SolutionDetails, "", "  "); err == nil {
			solutions = string(data)
		}
	}

	return fmt.Sprintf(`Create a comprehensive 5 Whys analysis report.

Problem: %s
Analysis Chain: %s
Solutions: %s

Create a structured report with:
1. Executive summary
2. Problem analysis
3. Root cause identification
4. Recommended actions
5. Implementation plan`,
		s.ProblemStatement, chainJSON(s.WhyChain), solutions)
}

// chainJSON renders the why chain for prompt embedding. Marshal errors
// cannot occur for WhyEntry but the fallback keeps prompts well-formed.
func chainJSON(chain []WhyEntry) string {
	if len(chain) == 0 {
		return "[]"
	}
	data, err := json.MarshalIndent(chain, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(data)
}
