package mutate

import (
	"errors"
	"fmt"
)

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

type PermissionError struct {
	ActorID string
	Kind    string
	ID      string
}

func (e PermissionError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("permission denied: %s cannot create %s", e.ActorID, e.Kind)
	}
	return fmt.Sprintf("permission denied: %s cannot edit %s %s", e.ActorID, e.Kind, e.ID)
}

var (
	ErrStatusNoteRequired = errors.New("blocked status requires a note")
	ErrTitleRequired      = errors.New("title is required")
	ErrNameRequired       = errors.New("name is required")
	ErrInvalidDue         = errors.New("invalid due date (expected YYYY-MM-DD)")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidMinutes     = errors.New("minutes must be positive")
	ErrLastAdmin          = errors.New("cannot demote or archive the last admin")
)

// Result is returned by every mutation. Callers save the db and append an event
// with EventPayload when Changed is true.
type Result[T any] struct {
	Entity       *T
	Changed      bool
	EventPayload map[string]any
}
