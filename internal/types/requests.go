package types

import (
	"github.com/go-playground/validator/v10"
)

// validate is shared across request types; validator instances cache struct
// metadata, so constructing one per call throws that cache away.
var validate = validator.New()

// ProspectRequest starts a new prospecting run.
type ProspectRequest struct {
	ClientName         string `json:"client_name" validate:"required,min=1,max=200"`
	PastSalesHistory   string `json:"past_sales_history,omitempty"`
	BaseResearchPrompt string `json:"base_research_prompt,omitempty"`
}

// Validate validates the ProspectRequest using the validator.
func (r *ProspectRequest) Validate() error {
	return validate.Struct(r)
}

// IterationRequest starts a new iteration within a project. When
// BuildOnPrevious is set the new run is seeded with the parent iteration's
// research report and refined plays.
type IterationRequest struct {
	PastSalesHistory   string `json:"past_sales_history,omitempty"`
	BaseResearchPrompt string `json:"base_research_prompt,omitempty"`
	BuildOnPrevious    bool   `json:"build_on_previous,omitempty"`
	ParentIterationID  string `json:"parent_iteration_id,omitempty"`
}

// CreateProjectRequest creates a new project.
type CreateProjectRequest struct {
	ClientName string   `json:"client_name" validate:"required,min=1,max=200"`
	Tags       []string `json:"tags,omitempty"`
	Notes      string   `json:"notes,omitempty"`
}

// Validate validates the CreateProjectRequest using the validator.
func (r *CreateProjectRequest) Validate() error {
	return validate.Struct(r)
}

// UpdateProjectRequest carries partial project updates. Nil fields are left
// unchanged.
type UpdateProjectRequest struct {
	ClientName *string   `json:"client_name,omitempty" validate:"omitempty,min=1,max=200"`
	Tags       *[]string `json:"tags,omitempty"`
	Notes      *string   `json:"notes,omitempty"`
}

// Validate validates the UpdateProjectRequest using the validator.
func (r *UpdateProjectRequest) Validate() error {
	return validate.Struct(r)
}

// SavePlayRequest promotes a play from an iteration's refined list into the
// project's saved plays.
type SavePlayRequest struct {
	IterationID string `json:"iteration_id" validate:"required"`
	PlayIndex   int    `json:"play_index" validate:"gte=0"`
	Notes       string `json:"notes,omitempty"`
}

// Validate validates the SavePlayRequest using the validator.
func (r *SavePlayRequest) Validate() error {
	return validate.Struct(r)
}
