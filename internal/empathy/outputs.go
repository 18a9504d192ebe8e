package empathy

import "github.com/retrolens/retrolens/internal/llm"

// TicketAnalysisOutput is the structured result of analyzing one ticket.
type TicketAnalysisOutput struct {
	Say         []string `json:"say" jsonschema:"description=What the user is saying, in their own words"`
	Think       []string `json:"think" jsonschema:"description=What the user is likely thinking"`
	Do          []string `json:"do" jsonschema:"description=What the user is doing or has tried"`
	Feel        []string `json:"feel" jsonschema:"description=How the user is feeling"`
	Quotes      []string `json:"quotes" jsonschema:"description=Key verbatim quotes from the ticket"`
	Goals       []string `json:"goals" jsonschema:"description=What the user is trying to achieve"`
	Pains       []string `json:"pains" jsonschema:"description=Frustrations and obstacles"`
	LatentNeeds []string `json:"latent_needs" jsonschema:"description=Unstated needs implied by the ticket"`
	Sentiment   string   `json:"sentiment" jsonschema:"description=Overall sentiment (positive/negative/neutral/mixed)"`
	Confidence  float64  `json:"confidence" jsonschema:"description=Confidence in this analysis from 0.0 to 1.0"`
}

// SynthesisOutput is the structured batch-level synthesis across all
// analyzed tickets.
type SynthesisOutput struct {
	SayInsights   []string `json:"say_insights" jsonschema:"description=Consolidated say-quadrant insights"`
	ThinkInsights []string `json:"think_insights" jsonschema:"description=Consolidated think-quadrant insights"`
	DoInsights    []string `json:"do_insights" jsonschema:"description=Consolidated do-quadrant insights"`
	FeelInsights  []string `json:"feel_insights" jsonschema:"description=Consolidated feel-quadrant insights"`
	Goals         []string `json:"goals" jsonschema:"description=Consolidated user goals"`
	Pains         []string `json:"pains" jsonschema:"description=Consolidated user pains"`
	Gains         []string `json:"gains" jsonschema:"description=What would delight these users"`
	LatentNeeds   []string `json:"latent_needs" jsonschema:"description=Consolidated latent needs"`
	Confidence    float64  `json:"confidence" jsonschema:"description=Confidence in the synthesis from 0.0 to 1.0"`
}

var (
	ticketAnalysisSpec = llm.MustSpecFor(
		"record_ticket_analysis",
		"Record the empathy-map analysis of one support ticket.",
		&TicketAnalysisOutput{},
	)

	synthesisSpec = llm.MustSpecFor(
		"record_empathy_synthesis",
		"Record the consolidated empathy map for the ticket batch.",
		&SynthesisOutput{},
	)
)
