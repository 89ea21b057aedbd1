package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/pellera/prospect-engine/internal/llm"
	"github.com/pellera/prospect-engine/internal/prompts"
	"github.com/pellera/prospect-engine/internal/schemas"
	"github.com/pellera/prospect-engine/internal/types"
)

// DivergentIdeation generates a wide pool of raw AI use case ideas by
// cross-pollinating the research report, history gaps, competitor proofs and
// historical plays.
type DivergentIdeation struct{}

func (DivergentIdeation) Name() string { return StageDivergentIdeation }

func (DivergentIdeation) Run(ctx context.Context, state types.ProspectState, deps Deps) (types.ProspectState, error) {
	log.Printf("[pipeline] starting divergent ideation for %s", state.ClientName)

	template, err := prompts.Get("ideation.json", "divergent")
	if err != nil {
		return state, fmt.Errorf("failed to load divergent prompt: %w", err)
	}
	prompt := prompts.Format(template, map[string]string{
		"ClientName":       state.ClientName,
		"Vertical":         state.ClientVertical,
		"Domain":           state.ClientDomain,
		"ResearchSummary":  truncate(state.DeepResearchReport, 3000),
		"HistoryGaps":      formatHistoryGaps(state),
		"CompetitorProofs": formatProofs(state.CompetitorProofs),
		"HistoricalPlays":  formatHistoricalPlays(state.SimilarPlays),
		"MinIdeas":         strconv.Itoa(deps.Settings.MinIdeas),
	})

	response, err := deps.LLM.GenerateJSON(ctx, prompt, llm.TierAdvanced)
	if err != nil {
		return state, fmt.Errorf("ideation failed: %w", err)
	}

	ideas, err := parsePlays(response)
	if err != nil {
		return state, fmt.Errorf("failed to parse ideas: %w", err)
	}
	if len(ideas) == 0 {
		return state, fmt.Errorf("no raw ideas generated")
	}

	log.Printf("[pipeline] generated %d raw ideas", len(ideas))
	state.RawIdeas = ideas
	return state, nil
}

// ConvergentRefinement scores the raw idea pool and keeps the strongest
// plays, refined for client delivery.
type ConvergentRefinement struct{}

func (ConvergentRefinement) Name() string { return StageConvergentRefinement }

func (ConvergentRefinement) Run(ctx context.Context, state types.ProspectState, deps Deps) (types.ProspectState, error) {
	log.Printf("[pipeline] starting convergent refinement: %d raw ideas", len(state.RawIdeas))

	if len(state.RawIdeas) == 0 {
		return state, fmt.Errorf("no raw ideas to refine")
	}

	rawJSON, err := json.MarshalIndent(state.RawIdeas, "", "  ")
	if err != nil {
		return state, fmt.Errorf("failed to serialize raw ideas: %w", err)
	}

	template, err := prompts.Get("ideation.json", "convergent")
	if err != nil {
		return state, fmt.Errorf("failed to load convergent prompt: %w", err)
	}
	prompt := prompts.Format(template, map[string]string{
		"RawIdeas": string(rawJSON),
		"TopPlays": strconv.Itoa(deps.Settings.TopPlays),
	})

	response, err := deps.LLM.GenerateJSON(ctx, prompt, llm.TierAdvanced)
	if err != nil {
		return state, fmt.Errorf("refinement failed: %w", err)
	}

	refined, err := parsePlays(response)
	if err != nil {
		return state, fmt.Errorf("failed to parse refined plays: %w", err)
	}
	if len(refined) == 0 {
		return state, fmt.Errorf("refinement produced no plays")
	}
	if len(refined) > deps.Settings.TopPlays {
		refined = refined[:deps.Settings.TopPlays]
	}

	log.Printf("[pipeline] refined to %d top plays", len(refined))
	state.RefinedPlays = refined
	return state, nil
}

// parsePlays validates the model's JSON array against the play schema and
// decodes it.
func parsePlays(response string) ([]types.SalesPlay, error) {
	cleaned := llm.CleanJSONBlock(response)

	if err := schemas.ValidateJSONString(schemas.PlayArraySchema, cleaned); err != nil {
		return nil, err
	}

	var plays []types.SalesPlay
	if err := json.Unmarshal([]byte(cleaned), &plays); err != nil {
		return nil, err
	}
	for i := range plays {
		if plays[i].Title == "" {
			plays[i].Title = "Untitled"
		}
	}
	return plays, nil
}

func formatHistoryGaps(state types.ProspectState) string {
	if state.HistorySynthesis != "" {
		return truncate(state.HistorySynthesis, 1000)
	}
	return "No sales history available."
}

func formatProofs(proofs []types.CompetitorProof) string {
	if len(proofs) == 0 {
		return "No competitor data available."
	}
	var sb strings.Builder
	for _, p := range proofs {
		fmt.Fprintf(&sb, "- **%s**: %s. Outcome: %s\n", p.CompetitorName, p.UseCase, p.Outcome)
	}
	return sb.String()
}

func formatHistoricalPlays(plays []types.HistoricalPlay) string {
	if len(plays) == 0 {
		return "No historical data yet (cold start)."
	}
	var sb strings.Builder
	for _, p := range plays {
		fmt.Fprintf(&sb, "- **%s** (%s): %s [similarity: %.2f]\n",
			p.ClientName, p.Vertical, truncate(p.PlaySummary, 200), p.SimilarityScore)
	}
	return sb.String()
}
