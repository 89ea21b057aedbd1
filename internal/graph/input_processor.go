package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/pellera/prospect-engine/internal/prompts"
	"github.com/pellera/prospect-engine/internal/types"
)

// InputProcessor validates the run input and prepares the base research
// prompt, folding in prior-iteration context when the run builds on an
// earlier iteration.
type InputProcessor struct{}

func (InputProcessor) Name() string { return StageInputProcessor }

func (InputProcessor) Run(_ context.Context, state types.ProspectState, _ Deps) (types.ProspectState, error) {
	log.Printf("[pipeline] processing input for client: %s", state.ClientName)

	if strings.TrimSpace(state.ClientName) == "" {
		return state, fmt.Errorf("client name is required")
	}

	if strings.TrimSpace(state.PastSalesHistory) == "" {
		log.Printf("[pipeline] no past sales history provided, proceeding without it")
	}

	prompt := strings.TrimSpace(state.BaseResearchPrompt)
	if prompt == "" {
		template, err := prompts.Get("research.json", "base-research")
		if err != nil {
			return state, fmt.Errorf("failed to load base research prompt: %w", err)
		}
		prompt = prompts.Format(template, map[string]string{
			"ClientName":      state.ClientName,
			"AdditionalFocus": "",
		})
	} else if strings.Contains(prompt, "{{.ClientName}}") {
		// Custom prompts may carry the client-name placeholder.
		prompt = prompts.Format(prompt, map[string]string{"ClientName": state.ClientName})
	}

	// Iteration runs carry the prior iteration's output as added context so
	// research deepens rather than repeats.
	if state.PriorResearch != "" || len(state.PriorPlays) > 0 {
		template, err := prompts.Get("research.json", "prior-iteration")
		if err != nil {
			return state, fmt.Errorf("failed to load prior-iteration prompt: %w", err)
		}
		prompt += "\n\n" + prompts.Format(template, map[string]string{
			"PriorResearch": truncate(state.PriorResearch, 4000),
			"PriorPlays":    formatPriorPlays(state.PriorPlays),
		})
	}

	state.BaseResearchPrompt = prompt
	return state, nil
}

func formatPriorPlays(plays []types.SalesPlay) string {
	if len(plays) == 0 {
		return "None."
	}
	data, err := json.MarshalIndent(plays, "", "  ")
	if err != nil {
		return "None."
	}
	return string(data)
}

// truncate cuts s to at most n bytes, for prompt budget control.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
