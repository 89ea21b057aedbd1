package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/pellera/prospect-engine/internal/types"
)

// keepaliveInterval is how often an idle SSE stream emits a comment so
// proxies do not drop the connection.
const keepaliveInterval = 15 * time.Second

// RunSummary is the lightweight run representation returned by start and
// list operations.
type RunSummary struct {
	RunID       string          `json:"run_id"`
	ClientName  string          `json:"client_name"`
	Status      types.RunStatus `json:"status"`
	CurrentStep string          `json:"current_step,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	ProjectID   string          `json:"project_id,omitempty"`
	PlaysCount  int             `json:"plays_count"`
	Error       string          `json:"error,omitempty"`
}

func summarizeRun(run types.Run) RunSummary {
	return RunSummary{
		RunID:       run.ID,
		ClientName:  run.ClientName,
		Status:      run.Status,
		CurrentStep: run.CurrentStep,
		CreatedAt:   run.CreatedAt,
		CompletedAt: run.CompletedAt,
		ProjectID:   run.ProjectID,
		PlaysCount:  run.PlaysCount(),
		Error:       run.Error,
	}
}

// ProjectSummary is the project representation returned by create, update
// and list operations.
type ProjectSummary struct {
	ProjectID             string    `json:"project_id"`
	ClientName            string    `json:"client_name"`
	Tags                  []string  `json:"tags,omitempty"`
	Notes                 string    `json:"notes,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
	IterationCount        int       `json:"iteration_count"`
	SavedPlaysCount       int       `json:"saved_plays_count"`
	LatestIterationStatus string    `json:"latest_iteration_status,omitempty"`
}

func (s *Server) summarizeProject(project types.Project) ProjectSummary {
	summary := ProjectSummary{
		ProjectID:       project.ID,
		ClientName:      project.ClientName,
		Tags:            project.Tags,
		Notes:           project.Notes,
		CreatedAt:       project.CreatedAt,
		UpdatedAt:       project.UpdatedAt,
		IterationCount:  project.IterationCount(),
		SavedPlaysCount: len(project.SavedPlays),
	}
	if n := len(project.IterationIDs); n > 0 {
		if run, err := s.store.GetRun(project.IterationIDs[n-1]); err == nil {
			summary.LatestIterationStatus = string(run.Status)
		}
	}
	return summary
}

// ProjectDetail is the full project representation: summary plus resolved
// iterations and saved plays.
type ProjectDetail struct {
	ProjectSummary
	Iterations []RunSummary      `json:"iterations"`
	SavedPlays []types.SavedPlay `json:"saved_plays"`
}

// decodeJSON decodes the request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

// handleStartRun starts a new prospecting run.
func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	var req types.ProspectRequest
	if err := decodeJSON(r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	run, err := s.executor.StartRun(req)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusAccepted, summarizeRun(run))
}

// handleRunStatus returns the full run record including partial results.
func (s *Server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetRun(r.PathValue("run_id"))
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, run)
}

// handleListRuns returns run summaries, newest first.
func (s *Server) handleListRuns(w http.ResponseWriter, _ *http.Request) {
	runs := s.store.ListRuns()
	summaries := make([]RunSummary, 0, len(runs))
	for _, run := range runs {
		summaries = append(summaries, summarizeRun(run))
	}
	s.jsonResponse(w, http.StatusOK, summaries)
}

// handleRunStream streams the run's progress events over SSE until the done
// marker. A finished run yields an immediate done event.
func (s *Server) handleRunStream(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("run_id")
	run, err := s.store.GetRun(runID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	events, unsubscribe := s.executor.Broadcaster().Subscribe(runID)
	defer unsubscribe()

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case event, open := <-events:
			if !open {
				// Stream closed: the run finished before we subscribed.
				// Resolve the final status from the record.
				final, err := s.store.GetRun(runID)
				if err != nil {
					final = run
				}
				sse.WriteDone(runID, string(final.Status))
				return
			}
			if event.Done {
				sse.WriteDone(runID, string(doneStatus(event)))
				return
			}
			if err := sse.WriteEvent("progress", event); err != nil {
				return
			}
		case <-keepalive.C:
			if err := sse.WriteComment("keepalive"); err != nil {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

func doneStatus(event types.NodeProgress) types.RunStatus {
	if event.Status == types.StageFailed {
		return types.RunFailed
	}
	return types.RunCompleted
}
