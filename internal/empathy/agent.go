package empathy

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

// Pipeline phases, recorded in order of execution.
const (
	phaseIngestion      = "ingestion"
	phaseConsent        = "consent_validation"
	phaseRedaction      = "pii_redaction"
	phaseTicketAnalysis = "ticket_analysis"
	phaseSynthesis      = "synthesis"
	phaseSummary        = "summary"
	phasePublication    = "publication"
)

// Agent runs the empathy-mapping pipeline. Collaborators are immutable;
// one Result is produced per Run call.
type Agent struct {
	llm      llm.Provider
	source   TicketSource
	registry ConsentRegistry
	sink     DocumentSink
	logger   *logging.Logger
}

// Result is the outcome of one pipeline run.
type Result struct {
	Map     *Map            `json:"map"`
	Summary string          `json:"summary"`
	Receipt *PublishReceipt `json:"receipt,omitempty"`

	TicketsIngested   int      `json:"tickets_ingested"`
	TicketsAnalyzed   int      `json:"tickets_analyzed"`
	ConsentViolations []string `json:"consent_violations"`
	PIIRedactions     int      `json:"pii_redactions"`

	Phases         []string      `json:"phases"`
	ProcessingTime time.Duration `json:"processing_time"`
	Errors         []string      `json:"errors"`
}

// New creates an empathy-mapping agent. A nil sink skips publication.
func New(provider llm.Provider, source TicketSource, registry ConsentRegistry, sink DocumentSink) *Agent {
	return &Agent{
		llm:      provider,
		source:   source,
		registry: registry,
		sink:     sink,
		logger:   logging.GetLogger("empathy"),
	}
}

// analyzedTicket pairs a redacted ticket with its per-ticket analysis.
type analyzedTicket struct {
	ticket   Ticket
	redacted string
}

// Run executes the pipeline for one ticket batch. Ingestion failure aborts
// the run; per-ticket analysis failures are recorded and the ticket is
// skipped.
func (a *Agent) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	ctx = context.WithValue(ctx, logging.RunIDKey(), uuid.NewString())
	log := a.logger.WithContext(ctx)

	result := &Result{}
	phase := func(name string) {
		result.Phases = append(result.Phases, name)
		metrics.ObserveNode("empathy", name)
	}

	// Ingestion.
	phase(phaseIngestion)
	tickets, err := a.source.FetchTickets(ctx)
	if err != nil {
		return nil, fmt.Errorf("ticket ingestion failed: %w", err)
	}
	result.TicketsIngested = len(tickets)
	log.InfoWithFields("ingested tickets", logging.Field("count", len(tickets)))

	// Consent gate. Tickets without a valid consent record are dropped
	// here and never reach redaction or the model.
	phase(phaseConsent)
	approved := make([]Ticket, 0, len(tickets))
	for _, t := range tickets {
		record, err := a.registry.Lookup(ctx, t.CustomerID)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("consent lookup failed for ticket %s: %v", t.ID, err))
			continue
		}
		if !record.ValidAt(now()) {
			result.ConsentViolations = append(result.ConsentViolations,
				fmt.Sprintf("ticket %s: no granted consent for customer %s", t.ID, t.CustomerID))
			continue
		}
		approved = append(approved, t)
	}
	log.InfoWithFields("consent validated",
		logging.Field("approved", len(approved)),
		logging.Field("violations", len(result.ConsentViolations)),
	)

	// Redaction.
	phase(phaseRedaction)
	redacted := make([]analyzedTicket, 0, len(approved))
	for _, t := range approved {
		clean, entities := Redact(t.Description)
		result.PIIRedactions += len(entities)
		redacted = append(redacted, analyzedTicket{ticket: t, redacted: clean})
	}

	// Per-ticket analysis.
	phase(phaseTicketAnalysis)
	analyses := make([]TicketAnalysisOutput, 0, len(redacted))
	for _, rt := range redacted {
		analysis, err := a.analyzeTicket(ctx, rt)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		analyses = append(analyses, *analysis)
	}
	result.TicketsAnalyzed = len(analyses)

	// Synthesis.
	phase(phaseSynthesis)
	result.Map = a.synthesize(ctx, analyses, result)

	// Summary.
	phase(phaseSummary)
	resp, err := a.llm.Complete(ctx, summaryPrompt, []llm.Message{
		{Role: llm.RoleUser, Content: formatSummaryMessage(result.Map)},
	})
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("summary generation failed: %v", err))
	} else {
		result.Summary = resp.Content
	}

	// Publication.
	if a.sink != nil {
		phase(phasePublication)
		receipt, err := a.sink.Publish(ctx, result.Map, result.Summary)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("publication failed: %v", err))
		} else {
			result.Receipt = receipt
		}
	}

	result.ProcessingTime = time.Since(start)
	log.InfoWithFields("pipeline complete",
		logging.Field("analyzed", result.TicketsAnalyzed),
		logging.Field("errors", len(result.Errors)),
	)

	return result, nil
}

func (a *Agent) analyzeTicket(ctx context.Context, rt analyzedTicket) (*TicketAnalysisOutput, error) {
	raw, err := a.llm.CompleteStructured(ctx, ticketAnalysisPrompt, []llm.Message{
		{Role: llm.RoleUser, Content: formatTicketMessage(rt.ticket, rt.redacted)},
	}, ticketAnalysisSpec)
	if err != nil {
		return nil, fmt.Errorf("analysis failed for ticket %s: %w", rt.ticket.ID, err)
	}

	var analysis TicketAnalysisOutput
	if err := json.Unmarshal(raw, &analysis); err != nil {
		return nil, fmt.Errorf("failed to parse analysis for ticket %s", rt.ticket.ID)
	}
	return &analysis, nil
}

// synthesize consolidates per-ticket analyses into one map. On an empty
// batch or a synthesis failure it falls back to a locally merged map so the
// pipeline always yields a result.
func (a *Agent) synthesize(ctx context.Context, analyses []TicketAnalysisOutput, result *Result) *Map {
	if len(analyses) == 0 {
		return a.emptyMap()
	}

	raw, err := a.llm.CompleteStructured(ctx, synthesisPrompt, []llm.Message{
		{Role: llm.RoleUser, Content: formatSynthesisMessage(analyses)},
	}, synthesisSpec)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("synthesis request failed: %v", err))
		return a.mergeLocally(analyses)
	}

	var synthesis SynthesisOutput
	if err := json.Unmarshal(raw, &synthesis); err != nil {
		result.Errors = append(result.Errors, "failed to parse synthesis response")
		return a.mergeLocally(analyses)
	}

	quotes := collectQuotes(analyses)
	return &Map{
		Say:         Quadrant{Type: "say", Insights: synthesis.SayInsights, Quotes: quotes, Confidence: synthesis.Confidence},
		Think:       Quadrant{Type: "think", Insights: synthesis.ThinkInsights, Confidence: synthesis.Confidence},
		Do:          Quadrant{Type: "do", Insights: synthesis.DoInsights, Confidence: synthesis.Confidence},
		Feel:        Quadrant{Type: "feel", Insights: synthesis.FeelInsights, Confidence: synthesis.Confidence},
		Goals:       synthesis.Goals,
		Pains:       synthesis.Pains,
		Gains:       synthesis.Gains,
		LatentNeeds: synthesis.LatentNeeds,
		TicketCount: len(analyses),
		Confidence:  synthesis.Confidence,
		CreatedAt:   now(),
	}
}

// mergeLocally concatenates per-ticket fields into a map without another
// model call. Confidence is the mean of the per-ticket confidences.
func (a *Agent) mergeLocally(analyses []TicketAnalysisOutput) *Map {
	m := a.emptyMap()
	m.TicketCount = len(analyses)

	var confidence float64
	for _, an := range analyses {
		m.Say.Insights = append(m.Say.Insights, an.Say...)
		m.Think.Insights = append(m.Think.Insights, an.Think...)
		m.Do.Insights = append(m.Do.Insights, an.Do...)
		m.Feel.Insights = append(m.Feel.Insights, an.Feel...)
		m.Say.Quotes = append(m.Say.Quotes, an.Quotes...)
		m.Goals = append(m.Goals, an.Goals...)
		m.Pains = append(m.Pains, an.Pains...)
		m.LatentNeeds = append(m.LatentNeeds, an.LatentNeeds...)
		confidence += an.Confidence
	}
	if len(analyses) > 0 {
		confidence /= float64(len(analyses))
	}
	m.Confidence = confidence
	m.Say.Confidence = confidence
	m.Think.Confidence = confidence
	m.Do.Confidence = confidence
	m.Feel.Confidence = confidence
	return m
}

func (a *Agent) emptyMap() *Map {
	return &Map{
		Say:       Quadrant{Type: "say"},
		Think:     Quadrant{Type: "think"},
		Do:        Quadrant{Type: "do"},
		Feel:      Quadrant{Type: "feel"},
		CreatedAt: now(),
	}
}

func collectQuotes(analyses []TicketAnalysisOutput) []string {
	var quotes []string
	for _, a := range analyses {
		quotes = append(quotes, a.Quotes...)
	}
	return quotes
}
