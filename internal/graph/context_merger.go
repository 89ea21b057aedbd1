package graph

import (
	"context"
	"fmt"
	"log"

	"github.com/pellera/prospect-engine/internal/memory"
	"github.com/pellera/prospect-engine/internal/types"
)

// ContextMerger retrieves similar past clients and plays from the vector
// memory and merges them into the state as supplementary context. Memory hits
// never override live research: they are deduplicated against the run's own
// competitor proofs by exact title and appended as lower-priority context.
type ContextMerger struct{}

func (ContextMerger) Name() string { return StageContextMerger }

func (ContextMerger) Run(ctx context.Context, state types.ProspectState, deps Deps) (types.ProspectState, error) {
	log.Printf("[pipeline] merging context for %s [%s/%s]",
		state.ClientName, state.ClientVertical, state.ClientDomain)

	profileQuery := fmt.Sprintf("%s %s", state.ClientVertical, state.ClientDomain)
	profiles, err := deps.Memory.Query(ctx, profileQuery, memory.Filters{Kind: memory.KindProfile}, deps.Settings.MemoryTopK)
	if err != nil {
		return state, fmt.Errorf("similar-vertical query failed: %w", err)
	}

	playQuery := fmt.Sprintf("%s %s", state.ClientVertical, truncate(state.DeepResearchReport, 1000))
	plays, err := deps.Memory.Query(ctx, playQuery,
		memory.Filters{Kind: memory.KindPlay, Vertical: state.ClientVertical}, deps.Settings.MemoryTopK)
	if err != nil {
		return state, fmt.Errorf("similar-play query failed: %w", err)
	}

	state.SimilarVerticals = dedupAgainstProofs(toHistoricalPlays(profiles), state.CompetitorProofs)
	state.SimilarPlays = dedupAgainstProofs(toHistoricalPlays(plays), state.CompetitorProofs)

	log.Printf("[pipeline] context merged: %d similar verticals, %d similar plays",
		len(state.SimilarVerticals), len(state.SimilarPlays))
	return state, nil
}

func toHistoricalPlays(records []memory.Record) []types.HistoricalPlay {
	plays := make([]types.HistoricalPlay, 0, len(records))
	for _, rec := range records {
		plays = append(plays, types.HistoricalPlay{
			ClientName:      rec.ClientName,
			Vertical:        rec.Vertical,
			Title:           rec.Title,
			PlaySummary:     rec.Document,
			Outcome:         rec.Outcome,
			SimilarityScore: rec.Similarity,
		})
	}
	return plays
}

// dedupAgainstProofs drops retrieved plays whose title exactly matches a
// live competitor proof, so stale memory never shadows current findings.
func dedupAgainstProofs(plays []types.HistoricalPlay, proofs []types.CompetitorProof) []types.HistoricalPlay {
	if len(proofs) == 0 {
		return plays
	}
	live := make(map[string]bool, len(proofs))
	for _, p := range proofs {
		live[p.CompetitorName] = true
	}
	kept := plays[:0]
	for _, play := range plays {
		if play.Title != "" && live[play.Title] {
			continue
		}
		kept = append(kept, play)
	}
	return kept
}
