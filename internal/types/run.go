package types

import "time"

// RunStatus enumerates the lifecycle states of a run. Transitions are
// monotonic: pending -> running -> {completed, failed}.
type RunStatus string

// Run lifecycle states.
const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Terminal reports whether the status is an end state.
func (s RunStatus) Terminal() bool {
	return s == RunCompleted || s == RunFailed
}

// Run is the persisted record of one pipeline execution. It is created by
// the store in status pending and mutated only by the executor as stages
// advance. The State snapshot is refreshed after every successful stage so
// polling clients see partial results mid-run.
type Run struct {
	ID          string        `json:"run_id"`
	ClientName  string        `json:"client_name"`
	Status      RunStatus     `json:"status"`
	CurrentStep string        `json:"current_step"`
	CreatedAt   time.Time     `json:"created_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	ProjectID   string        `json:"project_id,omitempty"`
	Error       string        `json:"error,omitempty"`
	State       ProspectState `json:"state"`
}

// PlaysCount returns the number of refined plays in the run's state.
func (r *Run) PlaysCount() int {
	return len(r.State.RefinedPlays)
}
