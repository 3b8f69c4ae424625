//go:build integration

// Package integration contains end-to-end integration tests that require
// real infrastructure (Kafka, Redis, PostgreSQL) provided by testcontainers-go.
//
// Run with: go test -tags=integration -v ./tests/integration/
package integration

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timur-mustafin/gamified-task-manager/internal/domain"
	"github.com/timur-mustafin/gamified-task-manager/internal/kafka"
	"github.com/timur-mustafin/gamified-task-manager/internal/lifecycle"
	"github.com/timur-mustafin/gamified-task-manager/internal/notify"
	redisstore "github.com/timur-mustafin/gamified-task-manager/internal/redis"
	"github.com/timur-mustafin/gamified-task-manager/services/notifier"
)

// TestE2E_TaskCompletionPipeline exercises the complete path against real
// infrastructure: a lifecycle transition commits in Postgres, its event goes
// out over Kafka, and the notifier consumes it into the recipient's inbox.
//
// Flow: create task → Kafka publish → notifier consume → inbox row,
// then the full completion chain credits the assignee.
func TestE2E_TaskCompletionPipeline(t *testing.T) {
	ctx := context.Background()

	store, _ := newStore(t)

	topic := uniqueTopic("e2e-notifications")
	createTopic(t, topic)

	producer := kafka.NewProducer(testKafkaBrokers, topic)
	t.Cleanup(func() { producer.Close() }) //nolint:errcheck

	dispatcher := notify.NewDispatcher(producer, slog.Default())
	svc := lifecycle.NewService(store, dispatcher)

	// ── Notifier service wired to the same topic ─────────────────────────────
	consumer := kafka.NewConsumer(testKafkaBrokers, topic, "e2e-notifier", slog.Default())
	t.Cleanup(func() { consumer.Close() }) //nolint:errcheck

	notifierCtx, stopNotifier := context.WithCancel(ctx)
	defer stopNotifier()

	n := notifier.NewNotifier(consumer, store, []notifier.Sink{notifier.NewInboxSink(store)}, slog.Default())
	go n.Run(notifierCtx) //nolint:errcheck

	// ── Step 1: giver creates a task assigned to worker ──────────────────────
	giver := seedUser(t, store, "e2e-giver", domain.RoleUser)
	worker := seedUser(t, store, "e2e-worker", domain.RoleUser)

	deadline := time.Now().UTC().Add(4 * time.Hour)
	task, err := svc.Create(ctx, giver.ID, lifecycle.CreateInput{
		Title:      "ship the release",
		AssigneeID: &worker.ID,
		Priority:   domain.PriorityMedium,
		Difficulty: domain.DifficultyMedium,
		Deadline:   &deadline,
		ApproxTime: 2,
	})
	require.NoError(t, err)

	// The assignment event must land in the worker's inbox.
	require.Eventually(t, func() bool {
		inbox, err := store.ListNotifications(ctx, worker.ID, true, 0)
		if err != nil {
			return false
		}
		for _, msg := range inbox {
			if msg.Title == "New Task Assigned" {
				return true
			}
		}
		return false
	}, 30*time.Second, 200*time.Millisecond, "assignment notification should reach the inbox")

	// ── Step 2: worker takes the task through to moderation ──────────────────
	_, err = svc.Apply(ctx, task.ID, worker.ID, lifecycle.Request{
		Action: lifecycle.ActionUpdateStatus,
		Status: domain.StatusInWork,
	})
	require.NoError(t, err)

	_, err = svc.Apply(ctx, task.ID, worker.ID, lifecycle.Request{Action: lifecycle.ActionMarkDone})
	require.NoError(t, err)

	// ── Step 3: giver moderates and completes ────────────────────────────────
	_, err = svc.Apply(ctx, task.ID, giver.ID, lifecycle.Request{Action: lifecycle.ActionStartModeration})
	require.NoError(t, err)

	final, err := svc.Apply(ctx, task.ID, giver.ID, lifecycle.Request{Action: lifecycle.ActionMarkCompleted})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, final.Status)
	assert.Positive(t, final.HonorEarned, "completing before the deadline earns honor")

	// ── Assertions: rewards credited and completion notified ─────────────────
	credited, err := store.GetUser(ctx, worker.ID)
	require.NoError(t, err)
	assert.Equal(t, final.HonorEarned, credited.Honor)
	assert.Equal(t, final.ExpEarned, credited.Exp)

	require.Eventually(t, func() bool {
		inbox, err := store.ListNotifications(ctx, giver.ID, false, 0)
		if err != nil {
			return false
		}
		for _, msg := range inbox {
			if msg.Title == "Task Status Updated" {
				return true
			}
		}
		return false
	}, 30*time.Second, 200*time.Millisecond, "status change notifications should reach the giver")
}

// TestE2E_DeadlineReminderSweep runs a real sweep: the Redis lock elects this
// process, Postgres yields the task due inside the window, and the resulting
// event flows through Kafka into the assignee's inbox.
func TestE2E_DeadlineReminderSweep(t *testing.T) {
	ctx := context.Background()

	store, _ := newStore(t)
	redisClient := newRedisClient(t)

	topic := uniqueTopic("e2e-reminders")
	createTopic(t, topic)

	producer := kafka.NewProducer(testKafkaBrokers, topic)
	t.Cleanup(func() { producer.Close() }) //nolint:errcheck

	dispatcher := notify.NewDispatcher(producer, slog.Default())

	consumer := kafka.NewConsumer(testKafkaBrokers, topic, "e2e-reminder-notifier", slog.Default())
	t.Cleanup(func() { consumer.Close() }) //nolint:errcheck

	notifierCtx, stopNotifier := context.WithCancel(ctx)
	defer stopNotifier()

	n := notifier.NewNotifier(consumer, store, []notifier.Sink{notifier.NewInboxSink(store)}, slog.Default())
	go n.Run(notifierCtx) //nolint:errcheck

	giver := seedUser(t, store, "reminder-giver", domain.RoleUser)
	worker := seedUser(t, store, "reminder-worker", domain.RoleUser)

	deadline := time.Now().UTC().Add(2 * time.Hour)
	createTask(t, store, giver, &worker.ID, &deadline)

	leader := redisstore.NewLeader(redisClient, uuid.New().String())
	reminder := notifier.NewReminder(store, dispatcher, leader, 24, slog.Default())
	reminder.Sweep(ctx)

	require.Eventually(t, func() bool {
		inbox, err := store.ListNotifications(ctx, worker.ID, true, 0)
		if err != nil {
			return false
		}
		for _, msg := range inbox {
			if msg.Title == "Deadline Approaching" {
				return true
			}
		}
		return false
	}, 30*time.Second, 200*time.Millisecond, "reminder should reach the assignee's inbox")

	// A second sweep inside the window is deduplicated by the per-task lock.
	reminder.Sweep(ctx)
	time.Sleep(2 * time.Second)

	inbox, err := store.ListNotifications(ctx, worker.ID, false, 0)
	require.NoError(t, err)

	var reminders int
	for _, msg := range inbox {
		if msg.Title == "Deadline Approaching" {
			reminders++
		}
	}
	assert.Equal(t, 1, reminders, "repeat sweeps must not re-notify within the window")
}
