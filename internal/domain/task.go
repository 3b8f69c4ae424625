package domain

import "time"

// Status represents the states a task moves through between creation and
// completion.
type Status string

const (
	StatusNotInWork         Status = "not_in_work"
	StatusInWork            Status = "in_work"
	StatusNotModerated      Status = "not_moderated"
	StatusModeration        Status = "moderation"
	StatusModerationStopped Status = "moderation_stopped"
	StatusReturned          Status = "returned"
	StatusCompleted         Status = "completed"
	StatusFailed            Status = "failed"
)

// IsTerminal returns true if no further state transitions are possible.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusNotInWork, StatusInWork, StatusNotModerated, StatusModeration,
		StatusModerationStopped, StatusReturned, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Priority is how urgent a task is. It scales the honor award.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Difficulty is how hard a task is. It scales the honor award.
type Difficulty string

const (
	DifficultyLow    Difficulty = "low"
	DifficultyMedium Difficulty = "medium"
	DifficultyHigh   Difficulty = "high"
)

func (d Difficulty) Valid() bool {
	return d == DifficultyLow || d == DifficultyMedium || d == DifficultyHigh
}

// Task is the core domain entity. ExpEarned, HonorEarned and TimeInWork are
// outputs of the reward pipeline, never accepted from callers.
type Task struct {
	ID                  string     `json:"id"`
	Title               string     `json:"title"`
	Description         string     `json:"description,omitempty"`
	GiverID             string     `json:"giver_id"`
	AssigneeID          *string    `json:"assignee_id,omitempty"`
	Status              Status     `json:"status"`
	Priority            Priority   `json:"priority"`
	Difficulty          Difficulty `json:"difficulty"`
	Deadline            *time.Time `json:"deadline,omitempty"`
	ApproxTime          float64    `json:"approx_time"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
	ModerationStartedAt *time.Time `json:"moderation_started_at,omitempty"`
	ModerationStoppedAt *time.Time `json:"moderation_stopped_at,omitempty"`
	ExpEarned           int        `json:"exp_earned"`
	HonorEarned         int        `json:"honor_earned"`
	TimeInWork          float64    `json:"time_in_work"`
}

// StatusLogEntry is one row of a task's append-only status history. The
// ordered sequence of entries for a task is the sole input to the time-in-work
// computation.
type StatusLogEntry struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	UserID    string    `json:"user_id"`
	OldStatus Status    `json:"old_status"`
	NewStatus Status    `json:"new_status"`
	Timestamp time.Time `json:"timestamp"`
}

// AssigneeHistoryEntry records a reassignment performed through a task update.
type AssigneeHistoryEntry struct {
	ID            string    `json:"id"`
	TaskID        string    `json:"task_id"`
	OldAssigneeID *string   `json:"old_assignee_id,omitempty"`
	NewAssigneeID *string   `json:"new_assignee_id,omitempty"`
	ChangedByID   string    `json:"changed_by_id"`
	Timestamp     time.Time `json:"timestamp"`
}
