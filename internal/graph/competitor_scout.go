package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/pellera/prospect-engine/internal/llm"
	"github.com/pellera/prospect-engine/internal/memory"
	"github.com/pellera/prospect-engine/internal/prompts"
	"github.com/pellera/prospect-engine/internal/types"
)

// CompetitorScout finds competitor AI case studies in the client's vertical.
// Prior proofs retrieved from memory are fed back into the prompt so repeat
// runs in a vertical build on earlier scouting instead of starting cold.
type CompetitorScout struct{}

func (CompetitorScout) Name() string { return StageCompetitorScout }

func (CompetitorScout) Run(ctx context.Context, state types.ProspectState, deps Deps) (types.ProspectState, error) {
	log.Printf("[pipeline] scouting competitors for %s in %s", state.ClientName, state.ClientVertical)

	priorProofs, err := deps.Memory.Query(ctx, state.ClientVertical,
		memory.Filters{Kind: memory.KindProof, Vertical: state.ClientVertical}, deps.Settings.MemoryTopK)
	if err != nil {
		// Prior proofs are an enrichment; scouting proceeds without them.
		log.Printf("[pipeline] prior-proof query failed: %v", err)
		priorProofs = nil
	}

	template, err := prompts.Get("competitors.json", "scout")
	if err != nil {
		return state, fmt.Errorf("failed to load scout prompt: %w", err)
	}
	prompt := prompts.Format(template, map[string]string{
		"ClientName":      state.ClientName,
		"Vertical":        state.ClientVertical,
		"ResearchExcerpt": truncate(state.DeepResearchReport, 4000),
		"PriorProofs":     formatPriorProofs(priorProofs),
	})

	response, err := deps.LLM.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return state, fmt.Errorf("competitor scouting failed: %w", err)
	}

	proofs, err := parseCompetitors(response)
	if err != nil {
		return state, fmt.Errorf("failed to parse competitor data: %w", err)
	}

	log.Printf("[pipeline] found %d competitor proof points", len(proofs))
	state.CompetitorProofs = proofs
	return state, nil
}

func formatPriorProofs(records []memory.Record) string {
	if len(records) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Previously verified proof points in this vertical (extend, do not repeat):\n")
	for _, rec := range records {
		fmt.Fprintf(&sb, "- %s: %s\n", rec.Title, rec.Document)
	}
	return sb.String()
}

type competitorItem struct {
	CompetitorName string `json:"competitor_name"`
	Vertical       string `json:"vertical"`
	UseCase        string `json:"use_case"`
	Outcome        string `json:"outcome"`
	SourceTitle    string `json:"source_title"`
	SourceURL      string `json:"source_url"`
}

func parseCompetitors(response string) ([]types.CompetitorProof, error) {
	var items []competitorItem
	if err := json.Unmarshal([]byte(llm.CleanJSONBlock(response)), &items); err != nil {
		return nil, err
	}

	proofs := make([]types.CompetitorProof, 0, len(items))
	for _, item := range items {
		name := item.CompetitorName
		if name == "" {
			name = "Unknown"
		}
		proofs = append(proofs, types.CompetitorProof{
			CompetitorName: name,
			Vertical:       item.Vertical,
			UseCase:        item.UseCase,
			Outcome:        item.Outcome,
			Source: types.Citation{
				Title: item.SourceTitle,
				URL:   item.SourceURL,
			},
		})
	}
	return proofs, nil
}
