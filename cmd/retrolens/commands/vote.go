package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/retrolens/retrolens/internal/votestories"
)

var voteCmd = &cobra.Command{
	Use:   "vote",
	Short: "Vote on an agile user story",
	Long: `Score a user story from 0 (weak) to 5 (good) against a set of
arguments. Without --argument a default argument set is used.

Examples:
  retrolens vote --story "As a user, I want to create a report in a click."
  retrolens vote --story "..." --argument "conflicts with the audit policy" --argument "high churn area"

  # Deterministic offline score, no model call
  retrolens vote --story "..." --offline`,
	RunE: runVote,
}

var (
	voteStory     string
	voteArguments []string
	voteOffline   bool
)

func init() {
	rootCmd.AddCommand(voteCmd)

	voteCmd.Flags().StringVar(&voteStory, "story", "",
		"User story to vote on (required)")
	voteCmd.Flags().StringArrayVar(&voteArguments, "argument", nil,
		"Argument to weigh in the vote (repeatable)")
	voteCmd.Flags().BoolVar(&voteOffline, "offline", false,
		"Use the deterministic local scorer instead of the model")
	_ = voteCmd.MarkFlagRequired("story")
}

func runVote(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if voteOffline {
		fmt.Fprintf(out, "Score: %d/%d\n", votestories.StoryScore(voteStory), votestories.MaxScore)
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	agent := votestories.New(provider)
	vote, err := agent.Vote(ctx, voteStory, voteArguments)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Score: %d/%d\n", vote.Score, votestories.MaxScore)
	if vote.Rationale != "" {
		fmt.Fprintf(out, "Rationale: %s\n", vote.Rationale)
	}
	for _, risk := range vote.Risks {
		fmt.Fprintf(out, "Risk: %s\n", risk)
	}
	for _, note := range vote.Notes {
		fmt.Fprintf(out, "Note: %s\n", note)
	}
	return nil
}
