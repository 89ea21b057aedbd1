package observability

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pellera/prospect-engine/internal/types"
)

func TestPrintClientProfile(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	state := types.ProspectState{
		ClientName:             "Acme Corp",
		ClientVertical:         "Retail",
		ClientDomain:           "E-commerce",
		DigitalMaturitySummary: "Developing AI maturity.",
	}

	p.PrintClientProfile(state)
	output := buf.String()

	assert.Contains(t, output, "CLIENT PROFILE")
	assert.Contains(t, output, "Acme Corp")
	assert.Contains(t, output, "Retail")
	assert.Contains(t, output, "E-commerce")
	assert.Contains(t, output, "Developing AI maturity.")
}

func TestPrintPlays(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	plays := []types.SalesPlay{
		{
			Title:           "Demand Forecasting",
			BusinessOutcome: "Fewer stockouts",
			ConfidenceScore: 0.85,
			TechnicalStack:  []string{"Vertex AI", "BigQuery"},
		},
		{
			Title:           "Vision QA",
			BusinessOutcome: "Faster inspection",
			ConfidenceScore: 0.6,
		},
	}

	p.PrintPlays(plays)
	output := buf.String()

	assert.Contains(t, output, "REFINED PLAYS")
	assert.Contains(t, output, "Demand Forecasting")
	assert.Contains(t, output, "0.85")
	assert.Contains(t, output, "Vertex AI, BigQuery")
	assert.Contains(t, output, "Vision QA")
}

func TestPrintPlays_Empty(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintPlays(nil)

	assert.Empty(t, buf.String())
}

func TestPrintPlays_TruncatesLongList(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	plays := make([]types.SalesPlay, 8)
	for i := range plays {
		plays[i] = types.SalesPlay{Title: "Play", BusinessOutcome: "Outcome"}
	}

	p.PrintPlays(plays)

	assert.Contains(t, buf.String(), "... and 3 more plays")
}

func TestPrintProofs(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	proofs := []types.CompetitorProof{
		{
			CompetitorName: "RivalMart",
			UseCase:        "Demand forecasting with ML",
			Source:         types.Citation{URL: "https://rivalmart.com/ai"},
		},
	}

	p.PrintProofs(proofs)
	output := buf.String()

	assert.Contains(t, output, "COMPETITOR PROOF POINTS")
	assert.Contains(t, output, "RivalMart")
	assert.Contains(t, output, "Demand forecasting")
	assert.Contains(t, output, "https://rivalmart.com/ai")
}

func TestPrintErrors_None(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintErrors(nil)

	assert.Contains(t, buf.String(), "ALL STAGES COMPLETED CLEANLY")
}

func TestPrintErrors_Some(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintErrors([]string{"competitor_scout: request timed out"})
	output := buf.String()

	assert.Contains(t, output, "STAGE ERRORS")
	assert.Contains(t, output, "competitor_scout")
}

func TestPrintProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintProgress(types.NodeProgress{Node: "deep_research", Status: types.StageStarted})
	p.PrintProgress(types.NodeProgress{Node: "deep_research", Status: types.StageCompleted})
	p.PrintProgress(types.NodeProgress{Node: "competitor_scout", Status: types.StageFailed, Detail: "timed out"})

	output := buf.String()
	assert.Contains(t, output, "▸ deep_research")
	assert.Contains(t, output, "✓ deep_research")
	assert.Contains(t, output, "✗ competitor_scout — timed out")
}
