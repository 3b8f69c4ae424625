package domain

import "fmt"

// InvalidTransitionError is returned when a transition is requested by the
// wrong actor or from a state its precondition forbids. No state changes.
type InvalidTransitionError struct {
	TaskID string
	From   Status
	Action string
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition %q on task %s (status %s): %s",
		e.Action, e.TaskID, e.From, e.Reason)
}

// TaskNotFoundError is returned when a task ID does not exist.
type TaskNotFoundError struct {
	TaskID string
}

func (e *TaskNotFoundError) Error() string {
	return fmt.Sprintf("task not found: %s", e.TaskID)
}

// UserNotFoundError is returned when a user ID does not exist.
type UserNotFoundError struct {
	UserID string
}

func (e *UserNotFoundError) Error() string {
	return fmt.Sprintf("user not found: %s", e.UserID)
}

// ValidationError is returned for malformed input, such as an unknown status
// value or a missing required field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConflictError is returned when a transition loses the race to serialize
// against a concurrent one. Callers should retry the read-modify-write.
type ConflictError struct {
	TaskID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("concurrent modification of task %s, retry", e.TaskID)
}
