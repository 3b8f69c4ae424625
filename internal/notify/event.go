// Package notify defines the notification events the api service emits on
// lifecycle transitions and the dispatcher that carries them to the bus.
// Dispatch is fire-and-forget: a transition commits whether or not its
// notifications make it out.
package notify

import (
	"fmt"
	"time"

	"github.com/timur-mustafin/gamified-task-manager/internal/domain"
)

// Kind discriminates notification events on the bus.
type Kind string

const (
	KindTaskAssigned  Kind = "task_assigned"
	KindStatusChanged Kind = "status_changed"
	KindDeadlineSoon  Kind = "deadline_soon"
)

// Event is the wire payload published to the notifications topic.
type Event struct {
	ID         string        `json:"id"`
	Kind       Kind          `json:"kind"`
	TaskID     string        `json:"task_id"`
	TaskTitle  string        `json:"task_title"`
	GiverID    string        `json:"giver_id"`
	AssigneeID *string       `json:"assignee_id,omitempty"`
	ActorID    string        `json:"actor_id,omitempty"`
	NewStatus  domain.Status `json:"new_status,omitempty"`
	Deadline   *time.Time    `json:"deadline,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// Recipients returns the users whose inboxes should receive the event:
// assignee and giver, deduplicated, in that order.
func (e Event) Recipients() []string {
	var out []string
	if e.AssigneeID != nil {
		out = append(out, *e.AssigneeID)
	}
	if e.GiverID != "" && (e.AssigneeID == nil || e.GiverID != *e.AssigneeID) {
		out = append(out, e.GiverID)
	}
	return out
}

// Title renders the inbox headline for the event.
func (e Event) Title() string {
	switch e.Kind {
	case KindTaskAssigned:
		return "New Task Assigned"
	case KindDeadlineSoon:
		return "Deadline Approaching"
	default:
		return "Task Status Updated"
	}
}

// Message renders the inbox body for the event.
func (e Event) Message() string {
	switch e.Kind {
	case KindTaskAssigned:
		return fmt.Sprintf("You have been assigned a new task: %q.", e.TaskTitle)
	case KindDeadlineSoon:
		return fmt.Sprintf("Task %q is due soon.", e.TaskTitle)
	default:
		return fmt.Sprintf("Status of task %q changed to %q.", e.TaskTitle, e.NewStatus)
	}
}

// Type grades the urgency of the resulting notification.
func (e Event) Type() domain.NotificationType {
	if e.Kind == KindDeadlineSoon {
		return domain.NotificationWarning
	}
	return domain.NotificationInfo
}
