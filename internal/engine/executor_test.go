package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pellera/prospect-engine/internal/graph"
	"github.com/pellera/prospect-engine/internal/llm"
	"github.com/pellera/prospect-engine/internal/memory"
	"github.com/pellera/prospect-engine/internal/store"
	"github.com/pellera/prospect-engine/internal/types"
)

const testPlaysJSON = `[
	{"title": "Demand Forecasting", "challenge": "stockouts", "proposed_solution": "ML forecasting", "business_outcome": "fewer stockouts", "confidence_score": 0.8},
	{"title": "Vision QA", "challenge": "manual inspection", "proposed_solution": "CV pipeline", "business_outcome": "faster QA", "confidence_score": 0.6},
	{"title": "Churn Model", "challenge": "attrition", "proposed_solution": "churn scoring", "business_outcome": "retention lift", "confidence_score": 0.7}
]`

// scriptedClient answers each pipeline prompt by recognizing the prompt
// template, so a full run can execute against the real stage table.
type scriptedClient struct {
	failScout    bool
	failIdeation bool
}

func (c *scriptedClient) GenerateContent(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	switch {
	case strings.Contains(prompt, "past sales history"):
		return "Gaps: bought storage, no compute.", nil
	case strings.Contains(prompt, "Strategic Account Plan"):
		return "# Strategic Account Plan", nil
	case strings.Contains(prompt, "one-pager"):
		return "# One-Pager", nil
	default:
		return "Acme is a retailer. See [filing](https://sec.gov/acme).", nil
	}
}

func (c *scriptedClient) GenerateJSON(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	switch {
	case strings.Contains(prompt, "industry analyst"):
		return `{"vertical": "Retail", "domain": "E-commerce", "maturity_level": 3, "maturity_summary": "Developing."}`, nil
	case strings.Contains(prompt, "competitive intelligence analyst"):
		if c.failScout {
			return "", assert.AnError
		}
		return `[{"competitor_name": "RivalMart", "use_case": "forecasting", "outcome": "won", "source_url": "https://rivalmart.com"}]`, nil
	case strings.Contains(prompt, "solutions architect generating sales play ideas"):
		if c.failIdeation {
			return "", assert.AnError
		}
		return testPlaysJSON, nil
	default:
		return testPlaysJSON, nil
	}
}

func (c *scriptedClient) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, 4)
	for i, r := range text {
		vec[i%4] += float32(r)
	}
	return vec, nil
}

func (c *scriptedClient) GetModel(llm.ModelTier) string { return "scripted" }
func (c *scriptedClient) Close() error                  { return nil }

func testExecutor(client llm.Client) (*Executor, *store.Store, *memory.MemStore) {
	st := store.New()
	mem := memory.NewMemStore(client)
	e := New(st, mem, client, NewBroadcaster(), graph.DefaultSettings())
	e.retryDelay = time.Millisecond
	return e, st, mem
}

func waitForTerminal(t *testing.T, st *store.Store, runID string) types.Run {
	t.Helper()
	deadline := time.After(10 * time.Second)
	for {
		run, err := st.GetRun(runID)
		require.NoError(t, err)
		if run.Status.Terminal() {
			return run
		}
		select {
		case <-deadline:
			t.Fatalf("run %s never reached a terminal state (status %s)", runID, run.Status)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestStartRun_ValidationRejectedBeforeCreate(t *testing.T) {
	e, st, _ := testExecutor(&scriptedClient{})

	_, err := e.StartRun(types.ProspectRequest{ClientName: ""})
	require.Error(t, err)
	assert.Empty(t, st.ListRuns(), "no run record for a rejected request")
}

func TestStartRun_ReturnsPendingImmediately(t *testing.T) {
	e, _, _ := testExecutor(&scriptedClient{})

	run, err := e.StartRun(types.ProspectRequest{ClientName: "Acme Corp"})
	require.NoError(t, err)
	assert.Equal(t, types.RunPending, run.Status)
	assert.NotEmpty(t, run.ID)
}

func TestRun_CompletesAndCapturesKnowledge(t *testing.T) {
	e, st, mem := testExecutor(&scriptedClient{})

	run, err := e.StartRun(types.ProspectRequest{
		ClientName:       "Acme Corp",
		PastSalesHistory: "2023: storage arrays.",
	})
	require.NoError(t, err)

	final := waitForTerminal(t, st, run.ID)
	assert.Equal(t, types.RunCompleted, final.Status)
	require.NotNil(t, final.CompletedAt)
	assert.Equal(t, "complete", final.CurrentStep)

	assert.Equal(t, "Retail", final.State.ClientVertical)
	assert.Len(t, final.State.RefinedPlays, 3)
	assert.Len(t, final.State.OnePagers, 3)
	assert.NotEmpty(t, final.State.StrategicPlan)
	assert.Empty(t, final.State.Errors)

	// Completed run produced exactly one capture batch: three plays, one
	// proof, one profile.
	assert.Equal(t, 5, mem.Len())
}

func TestRun_FatalStageFailsRunKeepsPartialState(t *testing.T) {
	e, st, mem := testExecutor(&scriptedClient{failIdeation: true})

	run, err := e.StartRun(types.ProspectRequest{ClientName: "Acme Corp"})
	require.NoError(t, err)

	final := waitForTerminal(t, st, run.ID)
	assert.Equal(t, types.RunFailed, final.Status)
	require.NotNil(t, final.CompletedAt)
	assert.Contains(t, final.Error, "divergent_ideation")

	// State produced before the failing stage is retained.
	assert.NotEmpty(t, final.State.DeepResearchReport)
	assert.Equal(t, "Retail", final.State.ClientVertical)
	assert.Empty(t, final.State.RefinedPlays)

	// A failed run never writes to memory.
	assert.Equal(t, 0, mem.Len())
}

func TestRun_NonFatalStageFailureContinues(t *testing.T) {
	e, st, _ := testExecutor(&scriptedClient{failScout: true})

	run, err := e.StartRun(types.ProspectRequest{ClientName: "Acme Corp"})
	require.NoError(t, err)

	final := waitForTerminal(t, st, run.ID)
	assert.Equal(t, types.RunCompleted, final.Status, "a scout failure must not block ideation")
	require.NotEmpty(t, final.State.Errors)
	assert.Contains(t, final.State.Errors[0], "competitor_scout")
	assert.Len(t, final.State.RefinedPlays, 3)
}

func TestRun_StatusMonotonic(t *testing.T) {
	e, st, _ := testExecutor(&scriptedClient{})

	run, err := e.StartRun(types.ProspectRequest{ClientName: "Acme Corp"})
	require.NoError(t, err)

	rank := map[types.RunStatus]int{
		types.RunPending:   0,
		types.RunRunning:   1,
		types.RunCompleted: 2,
		types.RunFailed:    2,
	}

	lastRank := -1
	deadline := time.After(10 * time.Second)
	for {
		got, err := st.GetRun(run.ID)
		require.NoError(t, err)
		require.GreaterOrEqual(t, rank[got.Status], lastRank, "status reverted from rank %d", lastRank)
		lastRank = rank[got.Status]
		if got.Status.Terminal() {
			break
		}
		select {
		case <-deadline:
			t.Fatal("run never finished")
		default:
		}
	}

	// Terminal state is stable.
	final := waitForTerminal(t, st, run.ID)
	time.Sleep(20 * time.Millisecond)
	again, err := st.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, final.Status, again.Status)
}

func TestRun_ProgressEventsInPipelineOrder(t *testing.T) {
	e, st, _ := testExecutor(&scriptedClient{})

	// Create the run directly and drive execution synchronously so the
	// subscription is in place before the first event.
	run, err := st.CreateRun("Acme Corp", "", types.ProspectState{ClientName: "Acme Corp"})
	require.NoError(t, err)
	e.broadcaster.Register(run.ID)
	ch, unsubscribe := e.broadcaster.Subscribe(run.ID)
	defer unsubscribe()

	e.execute(run.ID)

	var events []types.NodeProgress
	for ev := range ch {
		events = append(events, ev)
	}
	require.NotEmpty(t, events)

	last := events[len(events)-1]
	assert.True(t, last.Done, "stream ends with the done marker")

	order := graph.StageNames()
	position := make(map[string]int, len(order))
	for i, name := range order {
		position[name] = i
	}

	lastPos := -1
	for _, ev := range events[:len(events)-1] {
		pos := position[ev.Node]
		assert.GreaterOrEqual(t, pos, lastPos, "event for %s out of pipeline order", ev.Node)
		if ev.Status == types.StageStarted {
			assert.Greater(t, pos, lastPos, "stage %s started before predecessor finished", ev.Node)
		}
		lastPos = pos
	}
}

func TestStartIteration_LinksAndSeeds(t *testing.T) {
	e, st, _ := testExecutor(&scriptedClient{})
	project := st.CreateProject("Acme Corp", nil, "")

	first, err := e.StartIteration(project.ID, types.IterationRequest{})
	require.NoError(t, err)
	waitForTerminal(t, st, first.ID)

	got, err := st.GetProject(project.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.IterationCount())

	second, err := e.StartIteration(project.ID, types.IterationRequest{BuildOnPrevious: true})
	require.NoError(t, err)

	seeded, err := st.GetRun(second.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, seeded.State.PriorResearch, "prior research must be seeded")
	assert.Len(t, seeded.State.PriorPlays, 3)
	assert.Equal(t, project.ID, seeded.ProjectID)

	waitForTerminal(t, st, second.ID)
	got, err = st.GetProject(project.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.IterationCount())
}

func TestStartIteration_BuildOnPreviousRequiresCompletedParent(t *testing.T) {
	e, st, _ := testExecutor(&scriptedClient{})
	project := st.CreateProject("Acme Corp", nil, "")

	_, err := e.StartIteration(project.ID, types.IterationRequest{BuildOnPrevious: true})
	var conflict *store.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestStartIteration_ExplicitParentFromOtherProjectRejected(t *testing.T) {
	e, st, _ := testExecutor(&scriptedClient{})
	projectA := st.CreateProject("Acme Corp", nil, "")
	projectB := st.CreateProject("Other Corp", nil, "")

	run, err := e.StartIteration(projectA.ID, types.IterationRequest{})
	require.NoError(t, err)
	waitForTerminal(t, st, run.ID)

	_, err = e.StartIteration(projectB.ID, types.IterationRequest{
		BuildOnPrevious:   true,
		ParentIterationID: run.ID,
	})
	var conflict *store.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestStartIteration_UnknownProject(t *testing.T) {
	e, _, _ := testExecutor(&scriptedClient{})

	_, err := e.StartIteration("missing", types.IterationRequest{})
	var notFound *store.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestConcurrentRuns_Independent(t *testing.T) {
	e, st, _ := testExecutor(&scriptedClient{})

	var ids []string
	for i := 0; i < 4; i++ {
		run, err := e.StartRun(types.ProspectRequest{ClientName: "Acme Corp"})
		require.NoError(t, err)
		ids = append(ids, run.ID)
	}

	for _, id := range ids {
		final := waitForTerminal(t, st, id)
		assert.Equal(t, types.RunCompleted, final.Status)
	}
}
