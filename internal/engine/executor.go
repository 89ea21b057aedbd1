package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/pellera/prospect-engine/internal/graph"
	"github.com/pellera/prospect-engine/internal/llm"
	"github.com/pellera/prospect-engine/internal/memory"
	"github.com/pellera/prospect-engine/internal/store"
	"github.com/pellera/prospect-engine/internal/types"
)

// Executor schedules and drives prospecting runs. Each started run gets
// exactly one execution goroutine; runs execute concurrently and
// independently. There is no mid-run cancellation: a run proceeds to
// completion or fatal failure regardless of subscribers.
type Executor struct {
	store       *store.Store
	memory      memory.Store
	llm         llm.Client
	broadcaster *Broadcaster
	settings    graph.Settings
	pipeline    []graph.Spec

	// retryDelay is the base backoff between stage retry attempts.
	retryDelay time.Duration
}

// New creates an executor over the given collaborators.
func New(st *store.Store, mem memory.Store, client llm.Client, broadcaster *Broadcaster, settings graph.Settings) *Executor {
	return &Executor{
		store:       st,
		memory:      mem,
		llm:         client,
		broadcaster: broadcaster,
		settings:    settings,
		pipeline:    graph.Pipeline(),
		retryDelay:  2 * time.Second,
	}
}

// Broadcaster returns the executor's progress broadcaster.
func (e *Executor) Broadcaster() *Broadcaster {
	return e.broadcaster
}

// StartRun validates the request, creates a pending run, schedules its
// execution and returns immediately.
func (e *Executor) StartRun(req types.ProspectRequest) (types.Run, error) {
	if err := req.Validate(); err != nil {
		return types.Run{}, err
	}

	state := types.ProspectState{
		ClientName:         req.ClientName,
		PastSalesHistory:   req.PastSalesHistory,
		BaseResearchPrompt: req.BaseResearchPrompt,
	}

	run, err := e.store.CreateRun(req.ClientName, "", state)
	if err != nil {
		return types.Run{}, err
	}

	e.broadcaster.Register(run.ID)
	go e.execute(run.ID)
	return run, nil
}

// StartIteration starts a new run linked to a project. With BuildOnPrevious
// set, the run is seeded with the parent iteration's research report and
// refined plays; the parent defaults to the project's most recent completed
// iteration.
func (e *Executor) StartIteration(projectID string, req types.IterationRequest) (types.Run, error) {
	project, err := e.store.GetProject(projectID)
	if err != nil {
		return types.Run{}, err
	}

	state := types.ProspectState{
		ClientName:         project.ClientName,
		PastSalesHistory:   req.PastSalesHistory,
		BaseResearchPrompt: req.BaseResearchPrompt,
	}

	if req.BuildOnPrevious {
		parent, err := e.resolveParent(projectID, req.ParentIterationID)
		if err != nil {
			return types.Run{}, err
		}
		state.PriorResearch = parent.State.DeepResearchReport
		state.PriorPlays = parent.State.RefinedPlays
	}

	run, err := e.store.CreateRun(project.ClientName, projectID, state)
	if err != nil {
		return types.Run{}, err
	}

	e.broadcaster.Register(run.ID)
	go e.execute(run.ID)
	return run, nil
}

func (e *Executor) resolveParent(projectID, parentID string) (types.Run, error) {
	if parentID != "" {
		parent, err := e.store.GetRun(parentID)
		if err != nil {
			return types.Run{}, err
		}
		if parent.ProjectID != projectID {
			return types.Run{}, &store.ConflictError{Message: "parent iteration does not belong to this project"}
		}
		return parent, nil
	}

	parent, found := e.store.LatestCompletedIteration(projectID)
	if !found {
		return types.Run{}, &store.ConflictError{Message: "project has no completed iteration to build on"}
	}
	return parent, nil
}

// execute is the run's single execution loop.
func (e *Executor) execute(runID string) {
	run, err := e.store.UpdateRun(runID, func(r *types.Run) {
		r.Status = types.RunRunning
	})
	if err != nil {
		log.Printf("[executor] run %s disappeared before execution: %v", runID, err)
		return
	}

	state := run.State
	deps := graph.Deps{
		RunID:    runID,
		LLM:      e.llm,
		Memory:   e.memory,
		Settings: e.settings,
	}

	for _, spec := range e.pipeline {
		name := spec.Stage.Name()

		if _, err := e.store.UpdateRun(runID, func(r *types.Run) {
			r.CurrentStep = name
		}); err != nil {
			log.Printf("[executor] run %s: failed to record step: %v", runID, err)
		}
		e.publish(runID, name, types.StageStarted, "")

		newState, stageErr := e.runStage(spec, state, deps)
		if stageErr != nil {
			if spec.Fatal {
				e.failRun(runID, name, stageErr)
				return
			}
			state = state.WithError(fmt.Sprintf("%s: %v", name, stageErr))
			e.persistState(runID, state)
			e.publish(runID, name, types.StageFailed, stageErr.Error())
			log.Printf("[executor] run %s: non-fatal stage %s failed: %v", runID, name, stageErr)
			continue
		}

		state = newState
		e.persistState(runID, state)
		e.publish(runID, name, types.StageCompleted, "")
	}

	now := time.Now().UTC()
	if _, err := e.store.UpdateRun(runID, func(r *types.Run) {
		r.Status = types.RunCompleted
		r.CompletedAt = &now
		r.CurrentStep = "complete"
		r.State = state
	}); err != nil {
		log.Printf("[executor] run %s: failed to mark completed: %v", runID, err)
	}

	e.broadcaster.Finish(types.NodeProgress{
		RunID:     runID,
		Status:    types.StageCompleted,
		Timestamp: time.Now().UTC(),
		Done:      true,
	})
	log.Printf("[executor] run %s completed", runID)
}

// runStage invokes the stage under its timeout, retrying transient failures
// up to the spec's attempt budget.
func (e *Executor) runStage(spec graph.Spec, state types.ProspectState, deps graph.Deps) (types.ProspectState, error) {
	ctx, cancel := context.WithTimeout(context.Background(), spec.Timeout)
	defer cancel()

	var lastErr error
	for attempt := 1; attempt <= spec.MaxAttempts; attempt++ {
		newState, err := spec.Stage.Run(ctx, state, deps)
		if err == nil {
			return newState, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			// The stage budget is spent; report the timeout, not the last
			// attempt's error.
			return state, fmt.Errorf("stage timed out after %s: %w", spec.Timeout, err)
		}
		if attempt < spec.MaxAttempts {
			log.Printf("[executor] stage %s attempt %d/%d failed, retrying: %v",
				spec.Stage.Name(), attempt, spec.MaxAttempts, err)
			select {
			case <-time.After(e.retryDelay * time.Duration(attempt)):
			case <-ctx.Done():
				return state, fmt.Errorf("stage timed out after %s: %w", spec.Timeout, lastErr)
			}
		}
	}
	return state, lastErr
}

func (e *Executor) failRun(runID, stage string, stageErr error) {
	now := time.Now().UTC()
	if _, err := e.store.UpdateRun(runID, func(r *types.Run) {
		r.Status = types.RunFailed
		r.CompletedAt = &now
		r.Error = fmt.Sprintf("%s: %v", stage, stageErr)
		r.State = r.State.WithError(fmt.Sprintf("%s: %v", stage, stageErr))
	}); err != nil {
		log.Printf("[executor] run %s: failed to mark failed: %v", runID, err)
	}

	e.publish(runID, stage, types.StageFailed, stageErr.Error())
	e.broadcaster.Finish(types.NodeProgress{
		RunID:     runID,
		Node:      stage,
		Status:    types.StageFailed,
		Timestamp: time.Now().UTC(),
		Detail:    stageErr.Error(),
		Done:      true,
	})
	log.Printf("[executor] run %s failed at %s: %v", runID, stage, stageErr)
}

func (e *Executor) persistState(runID string, state types.ProspectState) {
	if _, err := e.store.UpdateRun(runID, func(r *types.Run) {
		r.State = state
	}); err != nil {
		log.Printf("[executor] run %s: failed to persist state: %v", runID, err)
	}
}

func (e *Executor) publish(runID, node string, status types.StageStatus, detail string) {
	e.broadcaster.Publish(types.NodeProgress{
		RunID:     runID,
		Node:      node,
		Status:    status,
		Timestamp: time.Now().UTC(),
		Detail:    detail,
	})
}
