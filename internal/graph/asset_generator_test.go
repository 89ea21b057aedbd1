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

func TestAssetGenerator_OnePagerPerPlayPlusPlan(t *testing.T) {
	client := &stubClient{
		generateFunc: func(prompt string, tier llm.ModelTier) (string, error) {
			if strings.Contains(prompt, "Strategic Account Plan") {
				return "# Strategic Account Plan\n...", nil
			}
			return "# One-Pager\n...", nil
		},
	}

	stage := AssetGenerator{}
	state, err := stage.Run(context.Background(), types.ProspectState{
		ClientName:     "Acme Corp",
		ClientVertical: "Retail",
		RefinedPlays: []types.SalesPlay{
			{Title: "Demand Forecasting", Challenge: "stockouts", ProposedSolution: "ML", BusinessOutcome: "fewer stockouts"},
			{Title: "Vision QA", Challenge: "manual QA", ProposedSolution: "CV", BusinessOutcome: "faster QA"},
		},
	}, testDeps(client))
	require.NoError(t, err)

	require.Len(t, state.OnePagers, 2)
	assert.Contains(t, state.OnePagers, "Demand Forecasting")
	assert.Contains(t, state.OnePagers, "Vision QA")
	assert.Contains(t, state.StrategicPlan, "Strategic Account Plan")
	// Two one-pagers plus one plan.
	assert.Equal(t, int32(3), client.calls.Load())
}

func TestAssetGenerator_NoPlaysIsError(t *testing.T) {
	stage := AssetGenerator{}
	_, err := stage.Run(context.Background(), types.ProspectState{ClientName: "Acme"}, testDeps(&stubClient{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no plays")
}

func TestAssetGenerator_OnePagerFailureAborts(t *testing.T) {
	client := &stubClient{
		generateFunc: func(prompt string, tier llm.ModelTier) (string, error) {
			return "", assert.AnError
		},
	}

	stage := AssetGenerator{}
	_, err := stage.Run(context.Background(), types.ProspectState{
		ClientName:   "Acme Corp",
		RefinedPlays: []types.SalesPlay{{Title: "A", Challenge: "c", ProposedSolution: "s", BusinessOutcome: "o"}},
	}, testDeps(client))
	assert.Error(t, err)
}
