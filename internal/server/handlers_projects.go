package server

import (
	"net/http"

	"github.com/pellera/prospect-engine/internal/types"
)

// handleCreateProject creates a new project.
func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req types.CreateProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	project := s.store.CreateProject(req.ClientName, req.Tags, req.Notes)
	s.jsonResponse(w, http.StatusCreated, s.summarizeProject(project))
}

// handleListProjects returns project summaries, most recently updated first.
func (s *Server) handleListProjects(w http.ResponseWriter, _ *http.Request) {
	projects := s.store.ListProjects()
	summaries := make([]ProjectSummary, 0, len(projects))
	for _, project := range projects {
		summaries = append(summaries, s.summarizeProject(project))
	}
	s.jsonResponse(w, http.StatusOK, summaries)
}

// handleGetProject returns the full project detail with resolved iteration
// summaries and saved plays.
func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.store.GetProject(r.PathValue("project_id"))
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	detail := ProjectDetail{
		ProjectSummary: s.summarizeProject(project),
		Iterations:     make([]RunSummary, 0, len(project.IterationIDs)),
		SavedPlays:     project.SavedPlays,
	}
	for _, runID := range project.IterationIDs {
		if run, err := s.store.GetRun(runID); err == nil {
			detail.Iterations = append(detail.Iterations, summarizeRun(run))
		}
	}
	s.jsonResponse(w, http.StatusOK, detail)
}

// handleUpdateProject applies a partial project update.
func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var req types.UpdateProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	project, err := s.store.UpdateProject(r.PathValue("project_id"), req.ClientName, req.Tags, req.Notes)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, s.summarizeProject(project))
}

// handleDeleteProject removes a project, its saved plays and child runs.
func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteProject(r.PathValue("project_id")); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleStartIteration starts a new run linked to the project.
func (s *Server) handleStartIteration(w http.ResponseWriter, r *http.Request) {
	var req types.IterationRequest
	if err := decodeJSON(r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	run, err := s.executor.StartIteration(r.PathValue("project_id"), req)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusAccepted, summarizeRun(run))
}

// handleSavePlay promotes a play from an iteration into the project.
func (s *Server) handleSavePlay(w http.ResponseWriter, r *http.Request) {
	var req types.SavePlayRequest
	if err := decodeJSON(r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	saved, err := s.store.SavePlay(r.PathValue("project_id"), req.IterationID, req.PlayIndex, req.Notes)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusCreated, saved)
}

// handleRemoveSavedPlay deletes a saved play from the project.
func (s *Server) handleRemoveSavedPlay(w http.ResponseWriter, r *http.Request) {
	if err := s.store.RemoveSavedPlay(r.PathValue("project_id"), r.PathValue("play_id")); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
