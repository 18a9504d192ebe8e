package empathy

import (
	"fmt"
	"strings"
)

const ticketAnalysisPrompt = `You are an empathy mapping specialist analyzing support tickets to understand user needs, pains, and goals.
Directly analyze the provided support ticket content to extract user goals, pains, and key quotes.

Focus on:
- What users are saying (Say quadrant)
- What users are thinking (Think quadrant)
- What users are doing (Do quadrant)
- How users are feeling (Feel quadrant)

Process the ticket directly. Extract key insights and identify latent needs.
Quote only text that appears in the ticket.`

const synthesisPrompt = `You are an empathy mapping specialist consolidating per-ticket analyses into one empathy map for the whole batch.
Merge overlapping insights, keep the strongest evidence, and surface patterns a single ticket cannot show.`

const summaryPrompt = `You are an empathy mapping specialist. Write a concise prose summary of the empathy map for a product team: who these users are, what they struggle with, and the top opportunities. No headings, no bullet lists.`

func formatTicketMessage(t Ticket, redactedDescription string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ticket %s\n", t.ID)
	fmt.Fprintf(&b, "Title: %s\n", t.Title)
	if t.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", t.Category)
	}
	if t.Priority != "" {
		fmt.Fprintf(&b, "Priority: %s\n", t.Priority)
	}
	fmt.Fprintf(&b, "\n%s", redactedDescription)
	return b.String()
}

func formatSynthesisMessage(analyses []TicketAnalysisOutput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Per-ticket analyses (%d tickets):\n", len(analyses))
	for i, a := range analyses {
		fmt.Fprintf(&b, "\nTicket analysis %d:\n", i+1)
		writeList(&b, "Say", a.Say)
		writeList(&b, "Think", a.Think)
		writeList(&b, "Do", a.Do)
		writeList(&b, "Feel", a.Feel)
		writeList(&b, "Goals", a.Goals)
		writeList(&b, "Pains", a.Pains)
		writeList(&b, "Latent needs", a.LatentNeeds)
		fmt.Fprintf(&b, "- Sentiment: %s (confidence %.2f)\n", a.Sentiment, a.Confidence)
	}
	return b.String()
}

func formatSummaryMessage(m *Map) string {
	var b strings.Builder
	b.WriteString("Empathy map:\n")
	writeList(&b, "Say", m.Say.Insights)
	writeList(&b, "Think", m.Think.Insights)
	writeList(&b, "Do", m.Do.Insights)
	writeList(&b, "Feel", m.Feel.Insights)
	writeList(&b, "Goals", m.Goals)
	writeList(&b, "Pains", m.Pains)
	writeList(&b, "Gains", m.Gains)
	writeList(&b, "Latent needs", m.LatentNeeds)
	fmt.Fprintf(&b, "Tickets analyzed: %d\n", m.TicketCount)
	return b.String()
}

func writeList(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "- %s: %s\n", label, strings.Join(items, "; "))
}
