package types

import "time"

// StageStatus enumerates the states a single stage reports while a run
// executes.
type StageStatus string

// Stage progress states.
const (
	StagePending   StageStatus = "pending"
	StageStarted   StageStatus = "started"
	StageCompleted StageStatus = "completed"
	StageFailed    StageStatus = "failed"
)

// NodeProgress is an ephemeral progress event emitted by the executor as a
// run moves through the pipeline. Events are fanned out to live subscribers
// and never stored; callers needing history poll the run record instead.
type NodeProgress struct {
	RunID     string      `json:"run_id"`
	Node      string      `json:"node"`
	Status    StageStatus `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	Detail    string      `json:"detail,omitempty"`
	Done      bool        `json:"done,omitempty"`
}
