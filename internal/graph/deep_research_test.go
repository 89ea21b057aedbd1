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

func TestExtractCitations_MarkdownLinks(t *testing.T) {
	report := "Per [Acme 10-K](https://sec.gov/acme-10k), revenue grew. See also [press release](https://acme.com/pr)."

	citations := ExtractCitations(report)
	require.Len(t, citations, 2)
	assert.Equal(t, "Acme 10-K", citations[0].Title)
	assert.Equal(t, "https://sec.gov/acme-10k", citations[0].URL)
	assert.Equal(t, "press release", citations[1].Title)
}

func TestExtractCitations_BareURLs(t *testing.T) {
	report := "Source: https://example.com/report, and https://other.com/data."

	citations := ExtractCitations(report)
	require.Len(t, citations, 2)
	assert.Empty(t, citations[0].Title)
	assert.Equal(t, "https://example.com/report", citations[0].URL)
	assert.Equal(t, "https://other.com/data.", citations[1].URL)
}

func TestExtractCitations_NoDuplicates(t *testing.T) {
	report := "[Report](https://example.com/r) and again https://example.com/r here."

	citations := ExtractCitations(report)
	require.Len(t, citations, 1)
	assert.Equal(t, "https://example.com/r", citations[0].URL)
}

func TestExtractCitations_Empty(t *testing.T) {
	assert.Empty(t, ExtractCitations("No links in this report."))
}

func TestDeepResearch_PopulatesStateFields(t *testing.T) {
	client := &stubClient{
		generateFunc: func(prompt string, tier llm.ModelTier) (string, error) {
			if strings.Contains(prompt, "past sales history") {
				return "Gap analysis: they bought storage but no compute.", nil
			}
			return "Acme is a manufacturer. See [filing](https://sec.gov/acme).", nil
		},
		jsonFunc: func(prompt string, tier llm.ModelTier) (string, error) {
			return `{"vertical": "Manufacturing", "domain": "Discrete Manufacturing", "maturity_level": 2, "maturity_summary": "Legacy systems dominate."}`, nil
		},
	}

	stage := DeepResearch{}
	state, err := stage.Run(context.Background(), types.ProspectState{
		ClientName:         "Acme Corp",
		BaseResearchPrompt: "Research Acme Corp.",
		PastSalesHistory:   "2023: storage arrays.",
	}, testDeps(client))
	require.NoError(t, err)

	assert.Contains(t, state.DeepResearchReport, "Acme is a manufacturer")
	require.Len(t, state.ResearchCitations, 1)
	assert.Equal(t, "https://sec.gov/acme", state.ResearchCitations[0].URL)
	assert.Equal(t, "Manufacturing", state.ClientVertical)
	assert.Equal(t, "Discrete Manufacturing", state.ClientDomain)
	assert.Equal(t, "Legacy systems dominate.", state.DigitalMaturitySummary)
	assert.NotEmpty(t, state.HistorySynthesis)
}

func TestDeepResearch_ClassificationFailureDegrades(t *testing.T) {
	client := &stubClient{
		jsonFunc: func(prompt string, tier llm.ModelTier) (string, error) {
			return "not json at all", nil
		},
	}

	stage := DeepResearch{}
	state, err := stage.Run(context.Background(), types.ProspectState{
		ClientName:         "Acme Corp",
		BaseResearchPrompt: "Research Acme Corp.",
	}, testDeps(client))
	require.NoError(t, err)
	assert.Equal(t, "Unknown", state.ClientVertical)
	assert.Equal(t, "Unknown", state.ClientDomain)
}

func TestDeepResearch_NoHistorySkipsSynthesisCall(t *testing.T) {
	client := &stubClient{
		jsonFunc: func(prompt string, tier llm.ModelTier) (string, error) {
			return `{"vertical": "Retail", "domain": "E-commerce", "maturity_level": 3, "maturity_summary": "ok"}`, nil
		},
	}

	stage := DeepResearch{}
	state, err := stage.Run(context.Background(), types.ProspectState{
		ClientName:         "Acme Corp",
		BaseResearchPrompt: "Research Acme Corp.",
	}, testDeps(client))
	require.NoError(t, err)
	assert.Equal(t, "No sales history provided.", state.HistorySynthesis)
	// One research call + one classification call, no synthesis call.
	assert.Equal(t, int32(2), client.calls.Load())
}
