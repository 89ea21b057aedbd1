package types

import "time"

// Project groups the prospecting runs ("iterations") for one client
// relationship over time, along with user-promoted plays and notes.
type Project struct {
	ID           string      `json:"project_id"`
	ClientName   string      `json:"client_name"`
	Tags         []string    `json:"tags,omitempty"`
	Notes        string      `json:"notes,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	IterationIDs []string    `json:"iteration_ids"`
	SavedPlays   []SavedPlay `json:"saved_plays"`
}

// IterationCount returns the number of runs linked to the project.
func (p *Project) IterationCount() int {
	return len(p.IterationIDs)
}

// SavedPlay is a play promoted out of an iteration's refined list. Identity
// is the (iteration id, play title) pair; saving the same pair twice is a
// conflict. Saved plays are immutable except for their notes.
type SavedPlay struct {
	ID          string    `json:"play_id"`
	IterationID string    `json:"iteration_id"`
	Play        SalesPlay `json:"play"`
	Notes       string    `json:"notes,omitempty"`
	SavedAt     time.Time `json:"saved_at"`
}
