package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/timur-mustafin/gamified-task-manager/internal/kafka"
	"github.com/timur-mustafin/gamified-task-manager/pkg/retry"
	"github.com/timur-mustafin/gamified-task-manager/pkg/telemetry"
)

// Topic is the Kafka topic notification events travel on.
const Topic = "notifications"

// Dispatcher delivers events to whatever carries them to the notifier.
// Implementations must not fail the caller: delivery problems are logged and
// counted, never returned.
type Dispatcher interface {
	Dispatch(ctx context.Context, events ...Event)
}

// busDispatcher publishes events to Kafka, keyed by task ID so events for one
// task stay ordered.
type busDispatcher struct {
	producer kafka.Producer
	logger   *slog.Logger
	timeout  time.Duration
}

// NewDispatcher creates a Kafka-backed Dispatcher.
func NewDispatcher(producer kafka.Producer, logger *slog.Logger) Dispatcher {
	return &busDispatcher{producer: producer, logger: logger, timeout: 10 * time.Second}
}

func (d *busDispatcher) Dispatch(ctx context.Context, events ...Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			d.logger.Error("marshal notification event",
				slog.String("event_id", ev.ID),
				slog.String("error", err.Error()))
			continue
		}

		err = retry.Do(ctx, retry.Config{MaxAttempts: 3, BaseDelay: 200 * time.Millisecond}, func() error {
			return d.producer.Publish(ctx, ev.TaskID, payload)
		})
		if err != nil {
			telemetry.NotifyPublishFailures.Inc()
			d.logger.Error("publish notification event",
				slog.String("event_id", ev.ID),
				slog.String("kind", string(ev.Kind)),
				slog.String("task_id", ev.TaskID),
				slog.String("error", err.Error()))
			continue
		}
		telemetry.NotifyEventsPublished.WithLabelValues(string(ev.Kind)).Inc()
	}
}

// Nop discards all events. Used in tests and when the bus is disabled.
type Nop struct{}

func (Nop) Dispatch(context.Context, ...Event) {}
