package notifier

import (
	"context"
	"fmt"

	"github.com/timur-mustafin/gamified-task-manager/internal/domain"
)

// InboxWriter persists inbox rows. The postgres store implements it.
type InboxWriter interface {
	InsertNotification(ctx context.Context, n *domain.Notification) error
}

// inboxSink persists notifications as inbox rows in Postgres. It is the one
// mandatory sink; the api service serves its rows on /api/v1/notifications.
type inboxSink struct {
	store InboxWriter
}

// NewInboxSink creates the Postgres inbox sink.
func NewInboxSink(store InboxWriter) Sink {
	return &inboxSink{store: store}
}

func (s *inboxSink) Name() string { return "inbox" }

func (s *inboxSink) Deliver(ctx context.Context, user *domain.User, n *domain.Notification) error {
	if err := s.store.InsertNotification(ctx, n); err != nil {
		return fmt.Errorf("inbox delivery for user %s: %w", user.ID, err)
	}
	return nil
}
