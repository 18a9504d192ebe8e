package votestories

import "strings"

// StoryScore is a deterministic offline scorer for user stories. It awards
// one point per structural quality of a well-formed story, clamped to the
// same 0..5 range as a model vote. It needs no network and exists for
// offline use and as a sanity baseline next to model votes.
//
// Points:
//   - names a role ("as a ...")
//   - states a goal ("i want ...")
//   - states a benefit ("so that ...")
//   - is neither trivially short nor a wall of text
//   - carries testable acceptance language (given/when/then or
//     "acceptance criteria")
func StoryScore(story string) int {
	lower := strings.ToLower(story)

	score := 0
	if strings.Contains(lower, "as a ") || strings.Contains(lower, "as an ") {
		score++
	}
	if strings.Contains(lower, "i want") || strings.Contains(lower, "we want") {
		score++
	}
	if strings.Contains(lower, "so that") || strings.Contains(lower, "in order to") {
		score++
	}
	if n := len(strings.TrimSpace(story)); n >= 20 && n <= 500 {
		score++
	}
	if strings.Contains(lower, "acceptance criteria") ||
		(strings.Contains(lower, "given") && strings.Contains(lower, "when") && strings.Contains(lower, "then")) {
		score++
	}

	return clampScore(score)
}
