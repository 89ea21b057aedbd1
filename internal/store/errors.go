package store

import "fmt"

// NotFoundError indicates an unknown run, project or saved-play id.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// ConflictError indicates a write rejected by an identity rule, such as
// saving the same play twice for one iteration.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}
