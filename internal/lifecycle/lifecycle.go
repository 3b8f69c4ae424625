// Package lifecycle owns the task state machine: it validates and applies
// status transitions, appends the immutable status log, and drives the
// time-ledger and scoring computations at the right transitions.
package lifecycle

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/timur-mustafin/gamified-task-manager/internal/domain"
	"github.com/timur-mustafin/gamified-task-manager/internal/notify"
	"github.com/timur-mustafin/gamified-task-manager/pkg/telemetry"
)

// Service applies lifecycle operations against the store. All writes happen
// inside a single transaction per operation; notification events are
// dispatched only after the transaction commits.
type Service struct {
	store    Store
	dispatch notify.Dispatcher
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the clock, keeping lateness and time-in-work testable.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.logger = l } }

// NewService constructs a Service over the given store and dispatcher.
func NewService(store Store, dispatch notify.Dispatcher, opts ...Option) *Service {
	s := &Service{
		store:    store,
		dispatch: dispatch,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput carries the caller-supplied fields of a new task. Reward fields
// are not accepted here; they are outputs of the lifecycle.
type CreateInput struct {
	Title       string
	Description string
	AssigneeID  *string
	Priority    domain.Priority
	Difficulty  domain.Difficulty
	Deadline    *time.Time
	ApproxTime  float64
}

// Create validates in, persists the task in not_in_work together with its
// first status log entry, and emits assignment/status notifications.
func (s *Service) Create(ctx context.Context, giverID string, in CreateInput) (*domain.Task, error) {
	ctx, span := otel.Tracer("lifecycle").Start(ctx, "lifecycle.create_task")
	defer span.End()

	if in.Title == "" {
		return nil, &domain.ValidationError{Field: "title", Reason: "required"}
	}
	if in.Priority == "" {
		in.Priority = domain.PriorityMedium
	}
	if !in.Priority.Valid() {
		return nil, &domain.ValidationError{Field: "priority", Reason: "unknown value"}
	}
	if in.Difficulty == "" {
		in.Difficulty = domain.DifficultyMedium
	}
	if !in.Difficulty.Valid() {
		return nil, &domain.ValidationError{Field: "difficulty", Reason: "unknown value"}
	}
	if in.ApproxTime < 0 {
		return nil, &domain.ValidationError{Field: "approx_time", Reason: "must not be negative"}
	}
	if in.ApproxTime == 0 {
		in.ApproxTime = 1.0
	}

	now := s.now()
	task := &domain.Task{
		ID:          uuid.New().String(),
		Title:       in.Title,
		Description: in.Description,
		GiverID:     giverID,
		AssigneeID:  in.AssigneeID,
		Status:      domain.StatusNotInWork,
		Priority:    in.Priority,
		Difficulty:  in.Difficulty,
		Deadline:    in.Deadline,
		ApproxTime:  in.ApproxTime,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	span.SetAttributes(attribute.String("task.id", task.ID))

	var events []notify.Event
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		if _, err := tx.GetUser(ctx, giverID); err != nil {
			return err
		}
		if task.AssigneeID != nil {
			if _, err := tx.GetUser(ctx, *task.AssigneeID); err != nil {
				return err
			}
		}
		if err := tx.InsertTask(ctx, task); err != nil {
			return err
		}
		// Creation writes the first log entry with old == new.
		entry := &domain.StatusLogEntry{
			ID:        uuid.New().String(),
			TaskID:    task.ID,
			UserID:    giverID,
			OldStatus: domain.StatusNotInWork,
			NewStatus: task.Status,
			Timestamp: now,
		}
		if err := tx.AppendStatusLog(ctx, entry); err != nil {
			return err
		}

		if task.AssigneeID != nil {
			events = append(events, s.event(notify.KindTaskAssigned, task, giverID))
		}
		events = append(events, s.event(notify.KindStatusChanged, task, giverID))
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		return nil, err
	}

	telemetry.TasksCreated.Inc()
	s.logger.Info("task created",
		slog.String("task_id", task.ID),
		slog.String("giver_id", giverID),
	)
	go s.dispatch.Dispatch(ctx, events...)
	return task, nil
}

// Apply runs one transition from the table against the task, enforcing the
// actor rule and the source-state precondition while the row is locked.
func (s *Service) Apply(ctx context.Context, taskID, actorID string, req Request) (*domain.Task, error) {
	ctx, span := otel.Tracer("lifecycle").Start(ctx, "lifecycle.apply_transition")
	defer span.End()
	span.SetAttributes(
		attribute.String("task.id", taskID),
		attribute.String("transition.action", string(req.Action)),
	)

	r, ok := transitions[req.Action]
	if !ok {
		return nil, &domain.ValidationError{Field: "action", Reason: "unknown action"}
	}

	var (
		out    *domain.Task
		events []notify.Event
	)
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		task, err := tx.GetTaskForUpdate(ctx, taskID)
		if err != nil {
			return err
		}
		actor, err := tx.GetUser(ctx, actorID)
		if err != nil {
			return err
		}

		if err := r.authorize(task, actor, req.Action); err != nil {
			return err
		}
		if task.Status.IsTerminal() {
			return &domain.InvalidTransitionError{
				TaskID: task.ID, From: task.Status, Action: string(req.Action),
				Reason: "task is in a terminal state",
			}
		}
		if !r.allowsFrom(task.Status) {
			return &domain.InvalidTransitionError{
				TaskID: task.ID, From: task.Status, Action: string(req.Action),
				Reason: "not allowed from the current status",
			}
		}

		st := &step{tx: tx, task: task, actor: actor, req: req, svc: s}
		target, err := r.target(st)
		if err != nil {
			return err
		}

		loggedOld := task.Status
		if r.loggedOld != nil {
			loggedOld = r.loggedOld(task.Status)
		}
		now := s.now()
		task.Status = target
		entry := &domain.StatusLogEntry{
			ID:        uuid.New().String(),
			TaskID:    task.ID,
			UserID:    actor.ID,
			OldStatus: loggedOld,
			NewStatus: target,
			Timestamp: now,
		}
		if err := tx.AppendStatusLog(ctx, entry); err != nil {
			return err
		}

		if r.effect != nil {
			if err := r.effect(ctx, st); err != nil {
				return err
			}
		}

		task.UpdatedAt = now
		if err := tx.UpdateTask(ctx, task); err != nil {
			return err
		}

		events = append(events, s.event(notify.KindStatusChanged, task, actor.ID))
		out = task
		return nil
	})
	if err != nil {
		telemetry.TransitionsTotal.WithLabelValues(string(req.Action), "rejected").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "transition rejected")
		return nil, err
	}

	telemetry.TransitionsTotal.WithLabelValues(string(req.Action), "applied").Inc()
	if req.Action == ActionMarkCompleted {
		telemetry.ExpAwarded.Observe(float64(out.ExpEarned))
		telemetry.HonorAwarded.Observe(float64(out.HonorEarned))
	}
	s.logger.Info("transition applied",
		slog.String("task_id", taskID),
		slog.String("action", string(req.Action)),
		slog.String("status", string(out.Status)),
		slog.String("actor_id", actorID),
	)
	go s.dispatch.Dispatch(ctx, events...)
	return out, nil
}

// UpdateInput carries the mutable task fields for a partial update. A nil
// pointer leaves the field untouched.
type UpdateInput struct {
	Title       *string
	Description *string
	Priority    *domain.Priority
	Difficulty  *domain.Difficulty
	Deadline    *time.Time
	ApproxTime  *float64
	// AssigneeID reassigns the task when set; SetAssignee distinguishes
	// "unassign" (true, nil) from "leave alone" (false, nil).
	AssigneeID  *string
	SetAssignee bool
}

// Update applies a partial update. Changing the assignee appends an
// AssigneeHistoryEntry and notifies the new assignee.
func (s *Service) Update(ctx context.Context, taskID, actorID string, in UpdateInput) (*domain.Task, error) {
	if in.Priority != nil && !in.Priority.Valid() {
		return nil, &domain.ValidationError{Field: "priority", Reason: "unknown value"}
	}
	if in.Difficulty != nil && !in.Difficulty.Valid() {
		return nil, &domain.ValidationError{Field: "difficulty", Reason: "unknown value"}
	}

	var (
		out    *domain.Task
		events []notify.Event
	)
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		task, err := tx.GetTaskForUpdate(ctx, taskID)
		if err != nil {
			return err
		}
		if _, err := tx.GetUser(ctx, actorID); err != nil {
			return err
		}

		if in.Title != nil {
			if *in.Title == "" {
				return &domain.ValidationError{Field: "title", Reason: "required"}
			}
			task.Title = *in.Title
		}
		if in.Description != nil {
			task.Description = *in.Description
		}
		if in.Priority != nil {
			task.Priority = *in.Priority
		}
		if in.Difficulty != nil {
			task.Difficulty = *in.Difficulty
		}
		if in.Deadline != nil {
			task.Deadline = in.Deadline
		}
		if in.ApproxTime != nil {
			if *in.ApproxTime <= 0 {
				return &domain.ValidationError{Field: "approx_time", Reason: "must be positive"}
			}
			task.ApproxTime = *in.ApproxTime
		}

		now := s.now()
		if in.SetAssignee && !sameAssignee(task.AssigneeID, in.AssigneeID) {
			if in.AssigneeID != nil {
				if _, err := tx.GetUser(ctx, *in.AssigneeID); err != nil {
					return err
				}
			}
			hist := &domain.AssigneeHistoryEntry{
				ID:            uuid.New().String(),
				TaskID:        task.ID,
				OldAssigneeID: task.AssigneeID,
				NewAssigneeID: in.AssigneeID,
				ChangedByID:   actorID,
				Timestamp:     now,
			}
			if err := tx.AppendAssigneeHistory(ctx, hist); err != nil {
				return err
			}
			task.AssigneeID = in.AssigneeID
			if task.AssigneeID != nil {
				events = append(events, s.event(notify.KindTaskAssigned, task, actorID))
			}
		}

		task.UpdatedAt = now
		if err := tx.UpdateTask(ctx, task); err != nil {
			return err
		}
		out = task
		return nil
	})
	if err != nil {
		return nil, err
	}

	go s.dispatch.Dispatch(ctx, events...)
	return out, nil
}

// Delete removes a task and, via foreign keys, its status log, assignee
// history and task notifications. Only the giver or an admin may delete.
func (s *Service) Delete(ctx context.Context, taskID, actorID string) error {
	return s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		task, err := tx.GetTaskForUpdate(ctx, taskID)
		if err != nil {
			return err
		}
		actor, err := tx.GetUser(ctx, actorID)
		if err != nil {
			return err
		}
		if task.GiverID != actor.ID && !actor.Role.IsAdmin() {
			return &domain.InvalidTransitionError{
				TaskID: task.ID, From: task.Status, Action: "delete",
				Reason: "only the task giver or an admin may delete",
			}
		}
		return tx.DeleteTask(ctx, task.ID)
	})
}

// StatusLog returns the task's log ordered by timestamp ascending.
func (s *Service) StatusLog(ctx context.Context, taskID string) ([]domain.StatusLogEntry, error) {
	return s.store.StatusLog(ctx, taskID)
}

func (s *Service) event(kind notify.Kind, task *domain.Task, actorID string) notify.Event {
	return notify.Event{
		ID:         uuid.New().String(),
		Kind:       kind,
		TaskID:     task.ID,
		TaskTitle:  task.Title,
		GiverID:    task.GiverID,
		AssigneeID: task.AssigneeID,
		ActorID:    actorID,
		NewStatus:  task.Status,
		Deadline:   task.Deadline,
		OccurredAt: s.now(),
	}
}

func sameAssignee(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}