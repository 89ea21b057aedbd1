package graph

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pellera/prospect-engine/internal/llm"
	"github.com/pellera/prospect-engine/internal/prompts"
	"github.com/pellera/prospect-engine/internal/types"
)

// AssetGenerator produces the client-ready markdown deliverables: one
// one-pager per refined play, generated concurrently, plus a consolidated
// strategic account plan.
type AssetGenerator struct{}

func (AssetGenerator) Name() string { return StageAssetGenerator }

func (AssetGenerator) Run(ctx context.Context, state types.ProspectState, deps Deps) (types.ProspectState, error) {
	log.Printf("[pipeline] generating assets for %s (%d plays)", state.ClientName, len(state.RefinedPlays))

	if len(state.RefinedPlays) == 0 {
		return state, fmt.Errorf("no plays to generate assets for")
	}

	voice, err := prompts.Get("assets.json", "voice-system")
	if err != nil {
		return state, fmt.Errorf("failed to load voice prompt: %w", err)
	}
	onePagerTemplate, err := prompts.Get("assets.json", "one-pager")
	if err != nil {
		return state, fmt.Errorf("failed to load one-pager prompt: %w", err)
	}

	competitorContext := formatProofsWithSources(state.CompetitorProofs)

	onePagers := make(map[string]string, len(state.RefinedPlays))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, play := range state.RefinedPlays {
		g.Go(func() error {
			prompt := prompts.Format(onePagerTemplate, map[string]string{
				"ClientName":        state.ClientName,
				"Vertical":          state.ClientVertical,
				"Title":             play.Title,
				"Challenge":         play.Challenge,
				"MarketStandard":    orDefault(play.MarketStandard, "See competitor analysis"),
				"ProposedSolution":  play.ProposedSolution,
				"BusinessOutcome":   play.BusinessOutcome,
				"TechnicalStack":    strings.Join(play.TechnicalStack, ", "),
				"CompetitorContext": competitorContext,
			})

			content, err := deps.LLM.GenerateContent(gctx, voice+"\n\n"+prompt, llm.TierAdvanced)
			if err != nil {
				return fmt.Errorf("one-pager %q: %w", play.Title, err)
			}

			mu.Lock()
			onePagers[play.Title] = content
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return state, err
	}
	state.OnePagers = onePagers

	plan, err := generateStrategicPlan(ctx, deps.LLM, voice, state)
	if err != nil {
		return state, fmt.Errorf("strategic plan: %w", err)
	}
	state.StrategicPlan = plan

	return state, nil
}

func generateStrategicPlan(ctx context.Context, client llm.Client, voice string, state types.ProspectState) (string, error) {
	template, err := prompts.Get("assets.json", "strategic-plan")
	if err != nil {
		return "", fmt.Errorf("failed to load strategic-plan prompt: %w", err)
	}

	var playsSummary strings.Builder
	for i, p := range state.RefinedPlays {
		fmt.Fprintf(&playsSummary, "### %d. %s\n%s. Solution: %s. Outcome: %s\n\n",
			i+1, p.Title, p.Challenge, p.ProposedSolution, p.BusinessOutcome)
	}

	prompt := prompts.Format(template, map[string]string{
		"ClientName":        state.ClientName,
		"Vertical":          state.ClientVertical,
		"Domain":            state.ClientDomain,
		"MaturitySummary":   state.DigitalMaturitySummary,
		"ResearchSummary":   truncate(state.DeepResearchReport, 3000),
		"HistorySynthesis":  truncate(state.HistorySynthesis, 1500),
		"CompetitorContext": formatProofsWithSources(state.CompetitorProofs),
		"PlaysSummary":      playsSummary.String(),
	})

	return client.GenerateContent(ctx, voice+"\n\n"+prompt, llm.TierAdvanced)
}

func formatProofsWithSources(proofs []types.CompetitorProof) string {
	if len(proofs) == 0 {
		return "No competitor data available."
	}
	var sb strings.Builder
	for _, p := range proofs {
		source := ""
		if p.Source.URL != "" {
			source = fmt.Sprintf(" (Source: %s)", p.Source.URL)
		}
		fmt.Fprintf(&sb, "- %s: %s. Outcome: %s%s\n", p.CompetitorName, p.UseCase, p.Outcome, source)
	}
	return sb.String()
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
