package graph

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/pellera/prospect-engine/internal/memory"
	"github.com/pellera/prospect-engine/internal/types"
)

// KnowledgeCapture writes the run's output back into the vector memory:
// one record per refined play, one per competitor proof, and one client
// profile. It is the final stage, so failed runs never reach it; record ids
// are deterministic, so a retried capture cannot duplicate.
type KnowledgeCapture struct{}

func (KnowledgeCapture) Name() string { return StageKnowledgeCapture }

func (KnowledgeCapture) Run(ctx context.Context, state types.ProspectState, deps Deps) (types.ProspectState, error) {
	records := BuildRecords(deps.RunID, state)
	if len(records) == 0 {
		log.Printf("[pipeline] no records to capture for %s", state.ClientName)
		return state, nil
	}

	if err := deps.Memory.Upsert(ctx, records); err != nil {
		return state, fmt.Errorf("knowledge capture failed: %w", err)
	}

	log.Printf("[pipeline] knowledge capture: %d records stored for %s", len(records), state.ClientName)
	return state, nil
}

// BuildRecords assembles the memory records for a completed run.
func BuildRecords(runID string, state types.ProspectState) []memory.Record {
	now := time.Now().UTC()
	var records []memory.Record

	for i, play := range state.RefinedPlays {
		doc := fmt.Sprintf("%s: %s. Solution: %s. Outcome: %s",
			play.Title, play.Challenge, play.ProposedSolution, play.BusinessOutcome)
		records = append(records, memory.Record{
			ID:         memory.RecordID(runID, memory.KindPlay, i),
			RunID:      runID,
			Kind:       memory.KindPlay,
			ClientName: state.ClientName,
			Vertical:   state.ClientVertical,
			Title:      play.Title,
			Document:   doc,
			Outcome:    play.BusinessOutcome,
			CreatedAt:  now,
		})
	}

	for i, proof := range state.CompetitorProofs {
		doc := fmt.Sprintf("%s: %s. Outcome: %s", proof.CompetitorName, proof.UseCase, proof.Outcome)
		records = append(records, memory.Record{
			ID:         memory.RecordID(runID, memory.KindProof, i),
			RunID:      runID,
			Kind:       memory.KindProof,
			ClientName: state.ClientName,
			Vertical:   state.ClientVertical,
			Title:      proof.CompetitorName,
			Document:   doc,
			Outcome:    proof.Outcome,
			CreatedAt:  now,
		})
	}

	if state.ClientVertical != "" || len(state.RefinedPlays) > 0 {
		titles := make([]string, 0, len(state.RefinedPlays))
		for _, play := range state.RefinedPlays {
			titles = append(titles, play.Title)
		}
		doc := fmt.Sprintf("%s - %s / %s. %s Plays: %s",
			state.ClientName, state.ClientVertical, state.ClientDomain,
			state.DigitalMaturitySummary, strings.Join(titles, ", "))
		records = append(records, memory.Record{
			ID:         memory.RecordID(runID, memory.KindProfile, 0),
			RunID:      runID,
			Kind:       memory.KindProfile,
			ClientName: state.ClientName,
			Vertical:   state.ClientVertical,
			Title:      state.ClientName,
			Document:   doc,
			Outcome:    fmt.Sprintf("%d plays generated", len(state.RefinedPlays)),
			CreatedAt:  now,
		})
	}

	return records
}
