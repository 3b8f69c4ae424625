// Package notifier consumes notification events from Kafka and fans them out
// to delivery sinks: the Postgres inbox always, email when configured. It also
// runs the leader-elected deadline-reminder sweep.
package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/timur-mustafin/gamified-task-manager/internal/domain"
	"github.com/timur-mustafin/gamified-task-manager/internal/kafka"
	"github.com/timur-mustafin/gamified-task-manager/internal/notify"
	"github.com/timur-mustafin/gamified-task-manager/pkg/telemetry"
)

// UserDirectory resolves event recipients to users. The postgres store
// implements it.
type UserDirectory interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
}

// Notifier consumes the notifications topic and delivers to each recipient
// through every registered sink.
type Notifier struct {
	consumer kafka.Consumer
	users    UserDirectory
	sinks    []Sink
	logger   *slog.Logger
	now      func() time.Time
}

// NewNotifier creates a Notifier. The inbox sink should come first: its
// failure aborts the event so Kafka re-delivers, while secondary sinks are
// best-effort.
func NewNotifier(consumer kafka.Consumer, users UserDirectory, sinks []Sink, logger *slog.Logger) *Notifier {
	return &Notifier{
		consumer: consumer,
		users:    users,
		sinks:    sinks,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run starts consuming. Blocks until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context) error {
	return n.consumer.Subscribe(ctx, n.handle)
}

func (n *Notifier) handle(ctx context.Context, msg kafka.Message) error {
	ctx, span := otel.Tracer("notifier").Start(ctx, "notifier.handle_event")
	defer span.End()

	var event notify.Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		// Malformed payloads can never succeed; drop them instead of looping.
		n.logger.Error("malformed event, dropping", slog.String("error", err.Error()))
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed event")
		telemetry.NotifierEventErrors.Inc()
		return nil
	}

	span.SetAttributes(
		attribute.String("event.id", event.ID),
		attribute.String("event.kind", string(event.Kind)),
		attribute.String("task.id", event.TaskID),
	)
	log := n.logger.With(
		slog.String("event_id", event.ID),
		slog.String("kind", string(event.Kind)),
		slog.String("task_id", event.TaskID),
	)

	for _, userID := range event.Recipients() {
		if err := n.deliver(ctx, log, &event, userID); err != nil {
			telemetry.NotifierEventErrors.Inc()
			return err
		}
	}

	log.Info("event delivered", slog.Int("recipients", len(event.Recipients())))
	return nil
}

func (n *Notifier) deliver(ctx context.Context, log *slog.Logger, event *notify.Event, userID string) error {
	user, err := n.users.GetUser(ctx, userID)
	if err != nil {
		var notFound *domain.UserNotFoundError
		if errors.As(err, &notFound) {
			// The user was deleted after the event was published.
			log.Warn("recipient no longer exists", slog.String("user_id", userID))
			return nil
		}
		return err
	}

	notification := &domain.Notification{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Title:     event.Title(),
		Message:   event.Message(),
		Type:      event.Type(),
		Category:  domain.CategoryTask,
		CreatedAt: n.now(),
	}

	for i, sink := range n.sinks {
		if err := sink.Deliver(ctx, user, notification); err != nil {
			log.Error("sink delivery failed",
				slog.String("sink", sink.Name()),
				slog.String("user_id", user.ID),
				slog.String("error", err.Error()),
			)
			// The first sink is authoritative; later ones are best-effort.
			if i == 0 {
				return err
			}
			continue
		}
		telemetry.NotificationsDelivered.WithLabelValues(sink.Name()).Inc()
	}
	return nil
}
