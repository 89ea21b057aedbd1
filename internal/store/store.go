// Package store provides the concurrency-safe in-process state for runs,
// projects and saved plays. All mutations are serialized under one lock;
// reads return copies so callers never observe a record mid-update.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pellera/prospect-engine/internal/types"
)

// DefaultMaxLooseRuns bounds how many terminal project-less runs are kept.
// Project-linked runs are retained until their project is deleted.
const DefaultMaxLooseRuns = 200

// Store holds all run and project records for the process lifetime.
type Store struct {
	mu           sync.RWMutex
	runs         map[string]types.Run
	projects     map[string]types.Project
	maxLooseRuns int
}

// New creates an empty store with the default retention bound.
func New() *Store {
	return NewWithRetention(DefaultMaxLooseRuns)
}

// NewWithRetention creates an empty store keeping at most maxLooseRuns
// terminal runs that belong to no project.
func NewWithRetention(maxLooseRuns int) *Store {
	if maxLooseRuns <= 0 {
		maxLooseRuns = DefaultMaxLooseRuns
	}
	return &Store{
		runs:         make(map[string]types.Run),
		projects:     make(map[string]types.Project),
		maxLooseRuns: maxLooseRuns,
	}
}

// --- Runs ---

// CreateRun registers a new run in status pending and returns it. If the run
// belongs to a project, the project's iteration list is extended in the same
// critical section so iteration_count never lags.
func (s *Store) CreateRun(clientName, projectID string, state types.ProspectState) (types.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if projectID != "" {
		if _, ok := s.projects[projectID]; !ok {
			return types.Run{}, &NotFoundError{Kind: "project", ID: projectID}
		}
	}

	run := types.Run{
		ID:         uuid.New().String(),
		ClientName: clientName,
		Status:     types.RunPending,
		CreatedAt:  time.Now().UTC(),
		ProjectID:  projectID,
		State:      state,
	}
	s.runs[run.ID] = run

	if projectID != "" {
		project := s.projects[projectID]
		project.IterationIDs = append(project.IterationIDs, run.ID)
		project.UpdatedAt = time.Now().UTC()
		s.projects[projectID] = project
	}

	s.evictLooseRunsLocked()
	return run, nil
}

// GetRun returns a copy of the run.
func (s *Store) GetRun(id string) (types.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return types.Run{}, &NotFoundError{Kind: "run", ID: id}
	}
	return run, nil
}

// UpdateRun applies mutate to the run atomically and returns the result.
// Used by the executor to advance status and persist partial state.
func (s *Store) UpdateRun(id string, mutate func(*types.Run)) (types.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[id]
	if !ok {
		return types.Run{}, &NotFoundError{Kind: "run", ID: id}
	}
	mutate(&run)
	s.runs[id] = run
	return run, nil
}

// ListRuns returns all runs ordered by creation time, newest first.
func (s *Store) ListRuns() []types.Run {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]types.Run, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].CreatedAt.After(runs[j].CreatedAt)
		}
		return runs[i].ID > runs[j].ID
	})
	return runs
}

// evictLooseRunsLocked drops the oldest terminal project-less runs beyond
// the retention bound. Active runs are never evicted.
func (s *Store) evictLooseRunsLocked() {
	var loose []types.Run
	for _, run := range s.runs {
		if run.ProjectID == "" && run.Status.Terminal() {
			loose = append(loose, run)
		}
	}
	if len(loose) <= s.maxLooseRuns {
		return
	}
	sort.Slice(loose, func(i, j int) bool {
		return loose[i].CreatedAt.Before(loose[j].CreatedAt)
	})
	for _, run := range loose[:len(loose)-s.maxLooseRuns] {
		delete(s.runs, run.ID)
	}
}

// --- Projects ---

// CreateProject registers a new project.
func (s *Store) CreateProject(clientName string, tags []string, notes string) types.Project {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	project := types.Project{
		ID:           uuid.New().String(),
		ClientName:   clientName,
		Tags:         append([]string(nil), tags...),
		Notes:        notes,
		CreatedAt:    now,
		UpdatedAt:    now,
		IterationIDs: []string{},
		SavedPlays:   []types.SavedPlay{},
	}
	s.projects[project.ID] = project
	return project
}

// GetProject returns a copy of the project.
func (s *Store) GetProject(id string) (types.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	project, ok := s.projects[id]
	if !ok {
		return types.Project{}, &NotFoundError{Kind: "project", ID: id}
	}
	return project, nil
}

// ListProjects returns all projects ordered by last update, newest first.
func (s *Store) ListProjects() []types.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()

	projects := make([]types.Project, 0, len(s.projects))
	for _, project := range s.projects {
		projects = append(projects, project)
	}
	sort.Slice(projects, func(i, j int) bool {
		if !projects[i].UpdatedAt.Equal(projects[j].UpdatedAt) {
			return projects[i].UpdatedAt.After(projects[j].UpdatedAt)
		}
		return projects[i].ID > projects[j].ID
	})
	return projects
}

// UpdateProject applies a partial update. Nil fields are left unchanged.
func (s *Store) UpdateProject(id string, clientName *string, tags *[]string, notes *string) (types.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	project, ok := s.projects[id]
	if !ok {
		return types.Project{}, &NotFoundError{Kind: "project", ID: id}
	}
	if clientName != nil {
		project.ClientName = *clientName
	}
	if tags != nil {
		project.Tags = append([]string(nil), (*tags)...)
	}
	if notes != nil {
		project.Notes = *notes
	}
	project.UpdatedAt = time.Now().UTC()
	s.projects[id] = project
	return project, nil
}

// DeleteProject removes the project, its saved plays and all child runs.
func (s *Store) DeleteProject(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	project, ok := s.projects[id]
	if !ok {
		return &NotFoundError{Kind: "project", ID: id}
	}
	for _, runID := range project.IterationIDs {
		delete(s.runs, runID)
	}
	delete(s.projects, id)
	return nil
}

// --- Saved plays ---

// SavePlay promotes a play from an iteration's refined list into the
// project. Identity is (iteration id, play title); a duplicate save is a
// conflict.
func (s *Store) SavePlay(projectID, iterationID string, playIndex int, notes string) (types.SavedPlay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	project, ok := s.projects[projectID]
	if !ok {
		return types.SavedPlay{}, &NotFoundError{Kind: "project", ID: projectID}
	}

	run, ok := s.runs[iterationID]
	if !ok {
		return types.SavedPlay{}, &NotFoundError{Kind: "run", ID: iterationID}
	}
	if run.ProjectID != projectID {
		return types.SavedPlay{}, &ConflictError{Message: "iteration does not belong to this project"}
	}
	if playIndex < 0 || playIndex >= len(run.State.RefinedPlays) {
		return types.SavedPlay{}, &NotFoundError{Kind: "play index", ID: iterationID}
	}

	play := run.State.RefinedPlays[playIndex]
	for _, saved := range project.SavedPlays {
		if saved.IterationID == iterationID && saved.Play.Title == play.Title {
			return types.SavedPlay{}, &ConflictError{Message: "play already saved for this iteration"}
		}
	}

	savedPlay := types.SavedPlay{
		ID:          uuid.New().String(),
		IterationID: iterationID,
		Play:        play,
		Notes:       notes,
		SavedAt:     time.Now().UTC(),
	}
	project.SavedPlays = append(project.SavedPlays, savedPlay)
	project.UpdatedAt = time.Now().UTC()
	s.projects[projectID] = project
	return savedPlay, nil
}

// RemoveSavedPlay deletes a saved play from the project. Removing an unknown
// play id is a NotFoundError.
func (s *Store) RemoveSavedPlay(projectID, playID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	project, ok := s.projects[projectID]
	if !ok {
		return &NotFoundError{Kind: "project", ID: projectID}
	}

	// Rebuild into a fresh slice: earlier GetProject/ListProjects copies
	// alias the old backing array, so shifting elements in place would write
	// into memory concurrent readers still see.
	plays := make([]types.SavedPlay, 0, len(project.SavedPlays))
	removed := false
	for _, saved := range project.SavedPlays {
		if saved.ID == playID {
			removed = true
			continue
		}
		plays = append(plays, saved)
	}
	if !removed {
		return &NotFoundError{Kind: "saved play", ID: playID}
	}

	project.SavedPlays = plays
	project.UpdatedAt = time.Now().UTC()
	s.projects[projectID] = project
	return nil
}

// LatestCompletedIteration returns the most recently created completed run
// linked to the project, used as the default parent for build-on-previous
// iterations.
func (s *Store) LatestCompletedIteration(projectID string) (types.Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	project, ok := s.projects[projectID]
	if !ok {
		return types.Run{}, false
	}

	var latest types.Run
	found := false
	for _, runID := range project.IterationIDs {
		run, ok := s.runs[runID]
		if !ok || run.Status != types.RunCompleted {
			continue
		}
		if !found || run.CreatedAt.After(latest.CreatedAt) {
			latest = run
			found = true
		}
	}
	return latest, found
}
