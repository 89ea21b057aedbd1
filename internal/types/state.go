// Package types provides the shared data model for the prospecting engine:
// the pipeline state, persisted run/project records and API request types.
package types

// Citation is a source reference extracted from research output.
type Citation struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// CompetitorProof is a competitor AI case study used as market leverage.
type CompetitorProof struct {
	CompetitorName string   `json:"competitor_name"`
	Vertical       string   `json:"vertical,omitempty"`
	UseCase        string   `json:"use_case"`
	Outcome        string   `json:"outcome"`
	Source         Citation `json:"source"`
}

// SalesPlay is a proposed AI sales play for the client.
type SalesPlay struct {
	Title            string     `json:"title"`
	Challenge        string     `json:"challenge"`
	MarketStandard   string     `json:"market_standard,omitempty"`
	ProposedSolution string     `json:"proposed_solution"`
	BusinessOutcome  string     `json:"business_outcome"`
	TechnicalStack   []string   `json:"technical_stack,omitempty"`
	ConfidenceScore  float64    `json:"confidence_score"`
	Citations        []Citation `json:"citations,omitempty"`
}

// HistoricalPlay is a past outcome retrieved from the vector memory.
type HistoricalPlay struct {
	ClientName      string  `json:"client_name"`
	Vertical        string  `json:"vertical"`
	Title           string  `json:"title,omitempty"`
	PlaySummary     string  `json:"play_summary"`
	Outcome         string  `json:"outcome,omitempty"`
	SimilarityScore float64 `json:"similarity_score"`
}

// ProspectState is the working state threaded through the pipeline for one
// run. Each stage receives the current value and returns an updated copy;
// stages never share mutable state. The executor owns the authoritative copy
// for the run's lifetime and publishes read-only snapshots to the store.
type ProspectState struct {
	// Input
	ClientName         string `json:"client_name"`
	PastSalesHistory   string `json:"past_sales_history,omitempty"`
	BaseResearchPrompt string `json:"base_research_prompt,omitempty"`

	// Iteration seeding (set by StartIteration with build_on_previous)
	PriorResearch string      `json:"prior_research,omitempty"`
	PriorPlays    []SalesPlay `json:"prior_plays,omitempty"`

	// Deep research output
	DeepResearchReport      string     `json:"deep_research_report,omitempty"`
	ResearchCitations       []Citation `json:"research_citations,omitempty"`
	ClientVertical          string     `json:"client_vertical,omitempty"`
	ClientDomain            string     `json:"client_domain,omitempty"`
	DigitalMaturitySummary  string     `json:"digital_maturity_summary,omitempty"`

	// History synthesis
	HistorySynthesis string `json:"history_synthesis,omitempty"`

	// Memory context (supplementary; never overrides live research)
	SimilarVerticals []HistoricalPlay `json:"similar_verticals,omitempty"`
	SimilarPlays     []HistoricalPlay `json:"similar_plays,omitempty"`

	// Competitor analysis
	CompetitorProofs []CompetitorProof `json:"competitor_proofs,omitempty"`

	// Ideation
	RawIdeas     []SalesPlay `json:"raw_ideas,omitempty"`
	RefinedPlays []SalesPlay `json:"refined_plays,omitempty"`

	// Asset generation
	OnePagers     map[string]string `json:"one_pagers,omitempty"`
	StrategicPlan string            `json:"strategic_plan,omitempty"`

	// Non-fatal stage failures accumulated across the run.
	Errors []string `json:"errors,omitempty"`
}

// WithError returns a copy of the state with msg appended to the error list.
func (s ProspectState) WithError(msg string) ProspectState {
	errs := make([]string, 0, len(s.Errors)+1)
	errs = append(errs, s.Errors...)
	errs = append(errs, msg)
	s.Errors = errs
	return s
}
