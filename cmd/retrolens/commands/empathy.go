package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/retrolens/retrolens/internal/empathy"
)

// timeRounding keeps printed durations readable.
const timeRounding = time.Millisecond

var empathyCmd = &cobra.Command{
	Use:   "empathy",
	Short: "Build an empathy map from a support-ticket batch",
	Long: `Run the empathy-mapping pipeline over a YAML batch of support tickets.
Tickets without granted consent are skipped; PII is redacted before any
ticket reaches the model.

The batch file holds tickets and inline consent records:

  tickets:
    - id: t1
      title: Cannot log in
      description: I keep getting locked out
      customer_id: u1
  consents:
    - consent_id: c1
      user_id: u1
      status: granted

Examples:
  retrolens empathy --tickets batch.yaml
  retrolens empathy --tickets batch.yaml --model mock:scenario.yaml`,
	RunE: runEmpathy,
}

var empathyTicketsPath string

func init() {
	rootCmd.AddCommand(empathyCmd)

	empathyCmd.Flags().StringVar(&empathyTicketsPath, "tickets", "",
		"Path to a YAML ticket batch file (required)")
	_ = empathyCmd.MarkFlagRequired("tickets")
}

func runEmpathy(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}

	source := empathy.NewFileTicketSource(empathyTicketsPath)
	registry, err := source.ConsentRegistry()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	agent := empathy.New(provider, source, registry, &empathy.MockDocumentSink{})
	result, err := agent.Run(ctx)
	if err != nil {
		return err
	}

	printEmpathyResult(cmd, result)
	return nil
}

func printEmpathyResult(cmd *cobra.Command, result *empathy.Result) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Tickets: %d ingested, %d analyzed\n", result.TicketsIngested, result.TicketsAnalyzed)
	if len(result.ConsentViolations) > 0 {
		fmt.Fprintf(out, "Consent violations: %d\n", len(result.ConsentViolations))
		for _, v := range result.ConsentViolations {
			fmt.Fprintf(out, "  - %s\n", v)
		}
	}
	if result.PIIRedactions > 0 {
		fmt.Fprintf(out, "PII redactions: %d\n", result.PIIRedactions)
	}
	fmt.Fprintln(out)

	printQuadrant(out, result.Map.Say)
	printQuadrant(out, result.Map.Think)
	printQuadrant(out, result.Map.Do)
	printQuadrant(out, result.Map.Feel)

	printList(out, "Goals", result.Map.Goals)
	printList(out, "Pains", result.Map.Pains)
	printList(out, "Gains", result.Map.Gains)
	printList(out, "Latent needs", result.Map.LatentNeeds)

	if result.Summary != "" {
		fmt.Fprintf(out, "\n%s\n", result.Summary)
	}
	if result.Receipt != nil {
		fmt.Fprintf(out, "\nPublished: %s\n", result.Receipt.URL)
	}
	for _, e := range result.Errors {
		fmt.Fprintf(os.Stderr, "error during pipeline: %s\n", e)
	}
	fmt.Fprintf(out, "\nCompleted in %s\n", result.ProcessingTime.Round(timeRounding))
}

func printQuadrant(out io.Writer, q empathy.Quadrant) {
	if len(q.Insights) == 0 {
		return
	}
	fmt.Fprintf(out, "%s:\n", strings.ToUpper(q.Type))
	for _, insight := range q.Insights {
		fmt.Fprintf(out, "  - %s\n", insight)
	}
}

func printList(out io.Writer, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(out, "%s:\n", label)
	for _, item := range items {
		fmt.Fprintf(out, "  - %s\n", item)
	}
}
