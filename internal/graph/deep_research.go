package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/pellera/prospect-engine/internal/llm"
	"github.com/pellera/prospect-engine/internal/prompts"
	"github.com/pellera/prospect-engine/internal/types"
)

// DeepResearch produces the comprehensive client report, extracts citations,
// classifies the client's vertical and domain, and synthesizes the past sales
// history into gaps and opportunities.
type DeepResearch struct{}

func (DeepResearch) Name() string { return StageDeepResearch }

func (DeepResearch) Run(ctx context.Context, state types.ProspectState, deps Deps) (types.ProspectState, error) {
	log.Printf("[pipeline] starting deep research for: %s", state.ClientName)

	report, err := deps.LLM.GenerateContent(ctx, state.BaseResearchPrompt, llm.TierAdvanced)
	if err != nil {
		return state, fmt.Errorf("research generation failed: %w", err)
	}

	state.DeepResearchReport = report
	state.ResearchCitations = ExtractCitations(report)

	classification, err := classifyVertical(ctx, deps.LLM, report)
	if err != nil {
		// Classification failure degrades to defaults rather than aborting a
		// run that already has a usable report.
		log.Printf("[pipeline] vertical classification failed, using defaults: %v", err)
		classification = verticalClassification{Vertical: "Unknown", Domain: "Unknown"}
	}
	state.ClientVertical = classification.Vertical
	state.ClientDomain = classification.Domain
	state.DigitalMaturitySummary = classification.MaturitySummary

	synthesis, err := synthesizeHistory(ctx, deps.LLM, state.ClientName, state.ClientVertical, state.PastSalesHistory)
	if err != nil {
		log.Printf("[pipeline] history synthesis failed: %v", err)
		state = state.WithError(fmt.Sprintf("History synthesis failed: %v", err))
	} else {
		state.HistorySynthesis = synthesis
	}

	return state, nil
}

var (
	markdownLinkPattern = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^\)]+)\)`)
	bareURLPattern      = regexp.MustCompile(`https?://[^\s,\)\]]+`)
)

// ExtractCitations pulls source references out of a research report: markdown
// links first, then bare URLs not already captured.
func ExtractCitations(report string) []types.Citation {
	var citations []types.Citation
	seen := make(map[string]bool)

	for _, match := range markdownLinkPattern.FindAllStringSubmatch(report, -1) {
		citations = append(citations, types.Citation{Title: match[1], URL: match[2]})
		seen[match[2]] = true
	}

	stripped := markdownLinkPattern.ReplaceAllString(report, "")
	for _, url := range bareURLPattern.FindAllString(stripped, -1) {
		if seen[url] {
			continue
		}
		citations = append(citations, types.Citation{URL: url})
		seen[url] = true
	}

	return citations
}

type verticalClassification struct {
	Vertical        string `json:"vertical"`
	Domain          string `json:"domain"`
	MaturityLevel   int    `json:"maturity_level"`
	MaturitySummary string `json:"maturity_summary"`
}

func classifyVertical(ctx context.Context, client llm.Client, report string) (verticalClassification, error) {
	prompt := llm.BuildExtractionPrompt(llm.VerticalClassificationSchema(), truncate(report, 8000))

	response, err := client.GenerateJSON(ctx, prompt, llm.TierLite)
	if err != nil {
		return verticalClassification{}, err
	}

	var result verticalClassification
	if err := json.Unmarshal([]byte(response), &result); err != nil {
		return verticalClassification{}, fmt.Errorf("failed to parse classification: %w", err)
	}
	if result.Vertical == "" {
		result.Vertical = "Unknown"
	}
	if result.Domain == "" {
		result.Domain = "Unknown"
	}
	return result, nil
}

func synthesizeHistory(ctx context.Context, client llm.Client, clientName, vertical, salesHistory string) (string, error) {
	if strings.TrimSpace(salesHistory) == "" {
		return "No sales history provided.", nil
	}

	template, err := prompts.Get("research.json", "history-synthesis")
	if err != nil {
		return "", err
	}
	prompt := prompts.Format(template, map[string]string{
		"ClientName":   clientName,
		"Vertical":     vertical,
		"SalesHistory": salesHistory,
	})

	return client.GenerateContent(ctx, prompt, llm.TierStandard)
}
