package lifecycle

import (
	"context"

	"github.com/timur-mustafin/gamified-task-manager/internal/domain"
	"github.com/timur-mustafin/gamified-task-manager/internal/ledger"
	"github.com/timur-mustafin/gamified-task-manager/internal/scoring"
)

// Action names a lifecycle transition a caller may request.
type Action string

const (
	ActionUpdateStatus     Action = "update_status"
	ActionMarkDone         Action = "mark_done"
	ActionStartModeration  Action = "start_moderation"
	ActionStopModeration   Action = "stop_moderation"
	ActionReturnToAssignee Action = "return_to_assignee"
	ActionMarkFailed       Action = "mark_failed"
	ActionMarkCompleted    Action = "mark_completed"
)

// Request is a transition request as it arrives from the transport layer.
// Status is only consulted for update_status.
type Request struct {
	Action Action        `json:"action"`
	Status domain.Status `json:"status,omitempty"`
}

// actorRule says who may trigger a transition.
type actorRule int

const (
	anyActor actorRule = iota
	giverOnly
	assigneeOnly
)

// step is everything a transition needs while the task row is locked.
type step struct {
	tx    Tx
	task  *domain.Task
	actor *domain.User
	req   Request
	svc   *Service
}

// rule is one row of the transition table: who may act, from which states,
// what status results, and any extra effect beyond the status change and its
// log entry.
type rule struct {
	actor actorRule
	// from lists allowed source states; empty means any non-terminal state.
	from []domain.Status
	// target computes the resulting status.
	target func(st *step) (domain.Status, error)
	// loggedOld overrides the old_status recorded in the log entry; nil
	// records the actual current status.
	loggedOld func(cur domain.Status) domain.Status
	// effect runs after the status change and log append, inside the same
	// transaction.
	effect func(ctx context.Context, st *step) error
}

// transitions is the authoritative state machine. Adding a transition means
// adding a row here; validation and logging are applied uniformly by
// Service.Apply.
var transitions = map[Action]rule{
	ActionUpdateStatus: {
		actor: anyActor,
		target: func(st *step) (domain.Status, error) {
			if !st.req.Status.Valid() {
				return "", &domain.ValidationError{Field: "status", Reason: "unknown status value"}
			}
			if st.req.Status == st.task.Status {
				return "", &domain.InvalidTransitionError{
					TaskID: st.task.ID, From: st.task.Status, Action: string(ActionUpdateStatus),
					Reason: "new status equals current status",
				}
			}
			return st.req.Status, nil
		},
	},

	ActionMarkDone: {
		actor:  assigneeOnly,
		target: toStatus(domain.StatusNotModerated),
		effect: func(ctx context.Context, st *step) error {
			// The log already contains the entry for this transition, which
			// closes any open in_work interval at its timestamp.
			entries, err := st.tx.StatusLog(ctx, st.task.ID)
			if err != nil {
				return err
			}
			now := st.svc.now()
			hours := ledger.TimeInWork(entries, now)
			st.task.TimeInWork = hours
			if hours > 0 {
				st.task.ExpEarned = scoring.Exp(hours)
				st.task.HonorEarned = scoring.Honor(st.task, hours, now)
			} else {
				st.task.ExpEarned = 0
				st.task.HonorEarned = 0
			}
			return nil
		},
	},

	ActionStartModeration: {
		actor:  giverOnly,
		from:   []domain.Status{domain.StatusNotModerated},
		target: toStatus(domain.StatusModeration),
		effect: func(_ context.Context, st *step) error {
			now := st.svc.now()
			st.task.ModerationStartedAt = &now
			return nil
		},
	},

	ActionStopModeration: {
		actor:  giverOnly,
		target: toStatus(domain.StatusModerationStopped),
		effect: func(_ context.Context, st *step) error {
			now := st.svc.now()
			st.task.ModerationStoppedAt = &now
			return nil
		},
	},

	ActionReturnToAssignee: {
		actor:  giverOnly,
		from:   moderationStates,
		target: toStatus(domain.StatusReturned),
	},

	ActionMarkFailed: {
		actor:  giverOnly,
		from:   moderationStates,
		target: toStatus(domain.StatusFailed),
		effect: func(_ context.Context, st *step) error {
			st.task.ExpEarned = 0
			st.task.HonorEarned = 0
			return nil
		},
	},

	ActionMarkCompleted: {
		actor:  giverOnly,
		from:   moderationStates,
		target: toStatus(domain.StatusCompleted),
		// The log records moderation as the source state regardless of which
		// moderation-phase state the task was actually in.
		loggedOld: func(domain.Status) domain.Status { return domain.StatusModeration },
		effect: func(ctx context.Context, st *step) error {
			if st.task.AssigneeID == nil {
				return nil
			}
			return st.tx.CreditUser(ctx, *st.task.AssigneeID, st.task.ExpEarned, st.task.HonorEarned)
		},
	},
}

var moderationStates = []domain.Status{
	domain.StatusNotModerated,
	domain.StatusModeration,
	domain.StatusModerationStopped,
}

func toStatus(s domain.Status) func(*step) (domain.Status, error) {
	return func(*step) (domain.Status, error) { return s, nil }
}

// authorize applies the actor rule at the transition boundary.
func (r rule) authorize(task *domain.Task, actor *domain.User, action Action) error {
	switch r.actor {
	case giverOnly:
		if task.GiverID != actor.ID {
			return &domain.InvalidTransitionError{
				TaskID: task.ID, From: task.Status, Action: string(action),
				Reason: "only the task giver may perform this action",
			}
		}
	case assigneeOnly:
		if task.AssigneeID == nil || *task.AssigneeID != actor.ID {
			return &domain.InvalidTransitionError{
				TaskID: task.ID, From: task.Status, Action: string(action),
				Reason: "only the assignee may perform this action",
			}
		}
	}
	return nil
}

// allowsFrom checks the source-state precondition.
func (r rule) allowsFrom(s domain.Status) bool {
	if len(r.from) == 0 {
		return true
	}
	for _, f := range r.from {
		if f == s {
			return true
		}
	}
	return false
}
