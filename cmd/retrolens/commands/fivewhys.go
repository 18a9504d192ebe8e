package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/retrolens/retrolens/internal/config"
	"github.com/retrolens/retrolens/internal/fivewhys"
	"github.com/retrolens/retrolens/internal/websearch"
)

var fivewhysCmd = &cobra.Command{
	Use:   "fivewhys",
	Short: "Run a 5 Whys root-cause analysis on a problem statement",
	Long: `Run an iterative 5 Whys root-cause analysis. The agent asks why the
problem occurs, analyzes each answer, validates the chain, and stops when a
root cause is identified or the depth limit is reached.

Examples:
  # Analyze a problem
  retrolens fivewhys --problem "deploys fail every Friday"

  # Deeper analysis without web search
  retrolens fivewhys --problem "checkout latency spiked" --max-whys 7 --no-search

  # Offline run against a scripted scenario
  retrolens fivewhys --problem "build is flaky" --model mock:scenario.yaml`,
	RunE: runFivewhys,
}

var (
	fivewhysProblem  string
	fivewhysMaxWhys  int
	fivewhysNoSearch bool
)

func init() {
	rootCmd.AddCommand(fivewhysCmd)

	fivewhysCmd.Flags().StringVar(&fivewhysProblem, "problem", "",
		"Problem statement to analyze (required)")
	fivewhysCmd.Flags().IntVar(&fivewhysMaxWhys, "max-whys", -1,
		"Maximum why levels (-1 uses the configured default)")
	fivewhysCmd.Flags().BoolVar(&fivewhysNoSearch, "no-search", false,
		"Disable web search enrichment")
	_ = fivewhysCmd.MarkFlagRequired("problem")
}

func runFivewhys(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if fivewhysNoSearch {
		cfg.WebSearch.Enabled = false
	}

	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}

	var searcher websearch.Searcher
	if cfg.WebSearch.Enabled {
		searcher = websearch.NewClient("", searchConfig(cfg))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	agent := fivewhys.New(provider, searcher, cfg)
	result, err := agent.Analyze(ctx, fivewhysProblem, fivewhysMaxWhys)
	if err != nil && !errors.Is(err, fivewhys.ErrRecursionLimit) {
		return err
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v (showing partial result)\n", err)
	}

	printFivewhysResult(cmd, result)
	return nil
}

func printFivewhysResult(cmd *cobra.Command, result *fivewhys.Result) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Problem: %s\n", result.Problem)
	fmt.Fprintf(out, "Stop reason: %s\n\n", result.StopReason)

	for _, entry := range result.WhyChain {
		fmt.Fprintf(out, "Why %d: %s\n", entry.Level, entry.Question)
		fmt.Fprintf(out, "  -> %s\n", entry.Answer)
	}
	if len(result.WhyChain) > 0 {
		fmt.Fprintln(out)
	}

	if result.RootCause != "" {
		fmt.Fprintf(out, "Root cause: %s\n\n", result.RootCause)
	}
	for _, s := range result.Solutions {
		fmt.Fprintf(out, "- %s\n", s)
	}
	if result.Report != "" {
		fmt.Fprintf(out, "\n%s\n", result.Report)
	}
	for _, e := range result.Errors {
		fmt.Fprintf(os.Stderr, "error during analysis: %s\n", e)
	}
	fmt.Fprintf(out, "\nCompleted in %s\n", result.ProcessingTime.Round(timeRounding))
}

func searchConfig(cfg *config.Config) websearch.Config {
	return websearch.Config{
		ScoreThreshold: cfg.WebSearch.ScoreThreshold,
		MaxResults:     cfg.WebSearch.MaxResults,
		MaxQueryLength: cfg.WebSearch.MaxQueryLength,
		SearchDepth:    cfg.WebSearch.SearchDepth,
	}
}
