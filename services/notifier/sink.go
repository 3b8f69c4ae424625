package notifier

import (
	"context"

	"github.com/timur-mustafin/gamified-task-manager/internal/domain"
)

// Sink delivers one rendered notification to a user over a single channel.
type Sink interface {
	Deliver(ctx context.Context, user *domain.User, n *domain.Notification) error
	Name() string
}
