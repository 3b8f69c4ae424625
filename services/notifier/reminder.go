package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/timur-mustafin/gamified-task-manager/internal/domain"
	"github.com/timur-mustafin/gamified-task-manager/internal/notify"
	redisstore "github.com/timur-mustafin/gamified-task-manager/internal/redis"
	"github.com/timur-mustafin/gamified-task-manager/pkg/telemetry"
)

const (
	sweepLock    = "deadline-sweep"
	sweepLockTTL = 2 * time.Minute
)

// DeadlineSource lists tasks whose deadline falls inside the reminder window.
// The postgres store implements it.
type DeadlineSource interface {
	ListDeadlinesWithin(ctx context.Context, windowHours float64) ([]*domain.Task, error)
}

// Reminder sweeps for tasks whose deadline is approaching and emits
// deadline_soon events back onto the bus, where the regular delivery path
// picks them up. Redis leader election keeps multiple notifier instances from
// sweeping at once, and a per-task lock keeps a task from being reminded
// twice within the window.
type Reminder struct {
	store       DeadlineSource
	dispatch    notify.Dispatcher
	leader      redisstore.Leader
	windowHours float64
	logger      *slog.Logger
}

// NewReminder creates a Reminder. windowHours is how far ahead of a deadline
// the reminder fires.
func NewReminder(store DeadlineSource, dispatch notify.Dispatcher, leader redisstore.Leader, windowHours float64, logger *slog.Logger) *Reminder {
	return &Reminder{
		store:       store,
		dispatch:    dispatch,
		leader:      leader,
		windowHours: windowHours,
		logger:      logger,
	}
}

// Run schedules the sweep on the given cron spec and blocks until ctx is
// cancelled.
func (r *Reminder) Run(ctx context.Context, spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() { r.Sweep(ctx) }); err != nil {
		return fmt.Errorf("cron spec %q: %w", spec, err)
	}
	c.Start()
	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()
	return nil
}

// Sweep runs one reminder pass. Only the sweep leader proceeds.
func (r *Reminder) Sweep(ctx context.Context) {
	isLeader, err := r.leader.Acquire(ctx, sweepLock, sweepLockTTL)
	if err != nil {
		r.logger.Error("sweep leader election failed", slog.String("error", err.Error()))
		return
	}
	if !isLeader {
		return
	}
	defer func() { _ = r.leader.Release(ctx, sweepLock) }()

	tasks, err := r.store.ListDeadlinesWithin(ctx, r.windowHours)
	if err != nil {
		r.logger.Error("deadline query failed", slog.String("error", err.Error()))
		return
	}

	window := time.Duration(r.windowHours * float64(time.Hour))
	var events []notify.Event
	for _, task := range tasks {
		// One reminder per task per window.
		fresh, err := r.leader.Acquire(ctx, "reminded:"+task.ID, window)
		if err != nil {
			r.logger.Error("reminder dedupe failed",
				slog.String("task_id", task.ID), slog.String("error", err.Error()))
			continue
		}
		if !fresh {
			continue
		}

		events = append(events, notify.Event{
			ID:         uuid.New().String(),
			Kind:       notify.KindDeadlineSoon,
			TaskID:     task.ID,
			TaskTitle:  task.Title,
			GiverID:    task.GiverID,
			AssigneeID: task.AssigneeID,
			NewStatus:  task.Status,
			Deadline:   task.Deadline,
			OccurredAt: time.Now().UTC(),
		})
	}

	if len(events) == 0 {
		return
	}
	r.dispatch.Dispatch(ctx, events...)
	telemetry.RemindersEmitted.Add(float64(len(events)))
	r.logger.Info("deadline reminders emitted", slog.Int("count", len(events)))
}
