package graph

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pellera/prospect-engine/internal/llm"
	"github.com/pellera/prospect-engine/internal/types"
)

const playsJSON = `[
	{"title": "Demand Forecasting", "challenge": "stockouts", "proposed_solution": "ML forecasting", "business_outcome": "fewer stockouts", "confidence_score": 0.8},
	{"title": "Vision QA", "challenge": "manual inspection", "proposed_solution": "CV pipeline", "business_outcome": "faster QA", "confidence_score": 0.6},
	{"title": "Churn Model", "challenge": "attrition", "proposed_solution": "churn scoring", "business_outcome": "retention lift", "confidence_score": 0.7},
	{"title": "Doc Intelligence", "challenge": "manual intake", "proposed_solution": "LLM extraction", "business_outcome": "hours saved", "confidence_score": 0.5}
]`

func TestParsePlays_Valid(t *testing.T) {
	plays, err := parsePlays(playsJSON)
	require.NoError(t, err)
	require.Len(t, plays, 4)
	assert.Equal(t, "Demand Forecasting", plays[0].Title)
	assert.Equal(t, 0.8, plays[0].ConfidenceScore)
}

func TestParsePlays_SchemaRejectsMissingFields(t *testing.T) {
	_, err := parsePlays(`[{"title": "Incomplete"}]`)
	assert.Error(t, err)
}

func TestParsePlays_SchemaRejectsBadConfidence(t *testing.T) {
	_, err := parsePlays(`[{"title": "X", "challenge": "c", "proposed_solution": "s", "business_outcome": "o", "confidence_score": 7}]`)
	assert.Error(t, err)
}

func TestParsePlays_StripsCodeFence(t *testing.T) {
	plays, err := parsePlays("```json\n" + playsJSON + "\n```")
	require.NoError(t, err)
	assert.Len(t, plays, 4)
}

func TestDivergentIdeation_GeneratesRawIdeas(t *testing.T) {
	var captured string
	client := &stubClient{
		jsonFunc: func(prompt string, tier llm.ModelTier) (string, error) {
			captured = prompt
			return playsJSON, nil
		},
	}

	stage := DivergentIdeation{}
	state, err := stage.Run(context.Background(), types.ProspectState{
		ClientName:         "Acme Corp",
		ClientVertical:     "Retail",
		ClientDomain:       "E-commerce",
		DeepResearchReport: "Acme is a retailer.",
		HistorySynthesis:   "They bought storage but no compute.",
		CompetitorProofs: []types.CompetitorProof{
			{CompetitorName: "RivalMart", UseCase: "forecasting", Outcome: "won"},
		},
	}, testDeps(client))
	require.NoError(t, err)

	assert.Len(t, state.RawIdeas, 4)
	assert.Contains(t, captured, "Acme Corp")
	assert.Contains(t, captured, "RivalMart")
	assert.Contains(t, captured, "storage but no compute")
	assert.True(t, strings.Contains(captured, "10"), "min ideas should appear in prompt")
}

func TestDivergentIdeation_EmptyResultIsError(t *testing.T) {
	client := &stubClient{
		jsonFunc: func(prompt string, tier llm.ModelTier) (string, error) {
			return "[]", nil
		},
	}

	stage := DivergentIdeation{}
	_, err := stage.Run(context.Background(), types.ProspectState{ClientName: "Acme"}, testDeps(client))
	assert.Error(t, err)
}

func TestConvergentRefinement_CapsAtTopPlays(t *testing.T) {
	client := &stubClient{
		jsonFunc: func(prompt string, tier llm.ModelTier) (string, error) {
			return playsJSON, nil // four plays back, cap is three
		},
	}

	stage := ConvergentRefinement{}
	state, err := stage.Run(context.Background(), types.ProspectState{
		ClientName: "Acme Corp",
		RawIdeas:   []types.SalesPlay{{Title: "A"}, {Title: "B"}},
	}, testDeps(client))
	require.NoError(t, err)
	assert.Len(t, state.RefinedPlays, 3)
}

func TestConvergentRefinement_NoRawIdeasIsError(t *testing.T) {
	stage := ConvergentRefinement{}
	_, err := stage.Run(context.Background(), types.ProspectState{ClientName: "Acme"}, testDeps(&stubClient{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no raw ideas")
}
