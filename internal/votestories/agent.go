// Package votestories implements a single-round agent that votes on agile
// user stories: one structured completion per story, scored 0 (weak) to
// 5 (good), plus a deterministic offline scorer.
package votestories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/retrolens/retrolens/internal/llm"
	"github.com/retrolens/retrolens/internal/logging"
	"github.com/retrolens/retrolens/internal/metrics"
)

// MinScore and MaxScore bound a story vote.
const (
	MinScore = 0
	MaxScore = 5
)

// defaultArguments seeds the vote when the caller supplies none.
var defaultArguments = []string{
	"However, the tradeoff between UX and security is a concern.",
}

// VoteOutput is the structured response requested from the model.
type VoteOutput struct {
	Score     int      `json:"score" jsonschema:"description=Vote from 0 (weak) to 5 (good)"`
	Rationale string   `json:"rationale" jsonschema:"description=Why the story earned this score"`
	Risks     []string `json:"risks" jsonschema:"description=Risks or concerns with the story"`
}

var voteSpec = llm.MustSpecFor(
	"record_story_vote",
	"Record the vote on an agile user story.",
	&VoteOutput{},
)

// Vote is the outcome of voting on one story.
type Vote struct {
	Story     string   `json:"story"`
	Score     int      `json:"score"`
	Rationale string   `json:"rationale"`
	Risks     []string `json:"risks,omitempty"`

	// Notes records adjustments made to the raw model output, such as
	// clamping an out-of-range score.
	Notes []string `json:"notes,omitempty"`

	ProcessingTime time.Duration `json:"processing_time"`
}

// Agent votes on user stories.
type Agent struct {
	llm    llm.Provider
	logger *logging.Logger
}

// New creates a story-voting agent.
func New(provider llm.Provider) *Agent {
	return &Agent{
		llm:    provider,
		logger: logging.GetLogger("votestories"),
	}
}

// Vote scores one story against the given arguments. Empty arguments fall
// back to the default set. Scores outside 0..5 are clamped and noted.
func (a *Agent) Vote(ctx context.Context, story string, arguments []string) (*Vote, error) {
	if story == "" {
		return nil, fmt.Errorf("votestories: story must not be empty")
	}
	if len(arguments) == 0 {
		arguments = defaultArguments
	}

	start := time.Now()
	ctx = context.WithValue(ctx, logging.RunIDKey(), uuid.NewString())
	log := a.logger.WithContext(ctx)
	metrics.ObserveNode("votestories", "vote")

	raw, err := a.llm.CompleteStructured(ctx, formatVotePrompt(story, arguments), []llm.Message{
		{Role: llm.RoleUser, Content: "Vote on the story."},
	}, voteSpec)
	if err != nil {
		return nil, fmt.Errorf("vote request failed: %w", err)
	}

	var output VoteOutput
	if err := json.Unmarshal(raw, &output); err != nil {
		return nil, fmt.Errorf("failed to parse vote response: %w", err)
	}

	vote := &Vote{
		Story:          story,
		Score:          output.Score,
		Rationale:      output.Rationale,
		Risks:          output.Risks,
		ProcessingTime: time.Since(start),
	}

	if clamped := clampScore(output.Score); clamped != output.Score {
		vote.Score = clamped
		vote.Notes = append(vote.Notes,
			fmt.Sprintf("score %d out of range, clamped to %d", output.Score, clamped))
	}

	log.InfoWithFields("story voted",
		logging.Field("score", vote.Score),
		logging.Field("risks", len(vote.Risks)),
	)

	return vote, nil
}

func clampScore(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}
