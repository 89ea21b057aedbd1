// Package graph defines the fixed prospecting pipeline: the ordered stage
// sequence, the contract each stage satisfies, and the per-stage execution
// policy (fatal class, timeout, retry budget).
package graph

import (
	"context"
	"time"

	"github.com/pellera/prospect-engine/internal/llm"
	"github.com/pellera/prospect-engine/internal/memory"
	"github.com/pellera/prospect-engine/internal/types"
)

// Stage names, in pipeline order.
const (
	StageInputProcessor       = "input_processor"
	StageDeepResearch         = "deep_research"
	StageContextMerger        = "context_merger"
	StageCompetitorScout      = "competitor_scout"
	StageDivergentIdeation    = "divergent_ideation"
	StageConvergentRefinement = "convergent_refinement"
	StageAssetGenerator       = "asset_generator"
	StageKnowledgeCapture     = "knowledge_capture"
)

// Settings holds the tunable knobs stages read.
type Settings struct {
	MinIdeas   int // minimum raw ideas divergent ideation must request
	TopPlays   int // number of plays convergent refinement keeps
	MemoryTopK int // topK for memory similarity queries
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		MinIdeas:   10,
		TopPlays:   3,
		MemoryTopK: 5,
	}
}

// Deps carries the external collaborators a stage may call. Stages hold no
// state of their own; everything flows through the state value and Deps.
type Deps struct {
	// RunID identifies the run being executed; knowledge capture derives
	// deterministic record ids from it.
	RunID    string
	LLM      llm.Client
	Memory   memory.Store
	Settings Settings
}

// Stage is one step of the pipeline. Run receives the current state value and
// returns an updated copy; implementations never mutate shared state. A
// returned error is classified fatal or non-fatal by the stage's Spec.
type Stage interface {
	Name() string
	Run(ctx context.Context, state types.ProspectState, deps Deps) (types.ProspectState, error)
}

// Spec pairs a stage with its execution policy.
type Spec struct {
	Stage Stage
	// Fatal stages abort the run on failure; non-fatal failures are recorded
	// in the state's error list and the pipeline continues.
	Fatal bool
	// Timeout bounds a single invocation, including retries' backoff.
	Timeout time.Duration
	// MaxAttempts bounds retries for transient failures within one stage
	// execution. 1 means no retry.
	MaxAttempts int
}

// Pipeline returns the eight stage specs in execution order. The sequence is
// linear; stage classes encode which failures abort the run and which degrade
// to partial results.
func Pipeline() []Spec {
	return []Spec{
		{Stage: InputProcessor{}, Fatal: true, Timeout: 30 * time.Second, MaxAttempts: 1},
		{Stage: DeepResearch{}, Fatal: true, Timeout: 5 * time.Minute, MaxAttempts: 3},
		{Stage: ContextMerger{}, Fatal: false, Timeout: time.Minute, MaxAttempts: 2},
		{Stage: CompetitorScout{}, Fatal: false, Timeout: 3 * time.Minute, MaxAttempts: 3},
		{Stage: DivergentIdeation{}, Fatal: true, Timeout: 3 * time.Minute, MaxAttempts: 3},
		{Stage: ConvergentRefinement{}, Fatal: true, Timeout: 3 * time.Minute, MaxAttempts: 3},
		{Stage: AssetGenerator{}, Fatal: false, Timeout: 5 * time.Minute, MaxAttempts: 2},
		{Stage: KnowledgeCapture{}, Fatal: false, Timeout: time.Minute, MaxAttempts: 2},
	}
}

// StageNames returns the ordered stage names, for status reporting.
func StageNames() []string {
	specs := Pipeline()
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Stage.Name()
	}
	return names
}
