package run

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by stores when no session matches.
var ErrNotFound = errors.New("session not found")

// ErrSessionFinished rejects resuming a session already in a terminal state.
var ErrSessionFinished = errors.New("session is already finished")

// NavigationError rejects a cursor operation without changing session
// state: going back at the first position, or recording against an item id
// absent from the plan.
type NavigationError struct {
	Op     string
	ItemID string
	Index  int
}

func (e *NavigationError) Error() string {
	if e.ItemID != "" {
		return fmt.Sprintf("%s: item %q is not part of the plan", e.Op, e.ItemID)
	}
	return fmt.Sprintf("%s: already at position %d", e.Op, e.Index)
}

// PlanDriftError means a stored session no longer matches the plan freshly
// computed from the checklist it references. The stored session is left
// untouched.
type PlanDriftError struct {
	SessionID string
	Detail    string
}

func (e *PlanDriftError) Error() string {
	return fmt.Sprintf("session %s no longer matches the checklist: %s", e.SessionID, e.Detail)
}
