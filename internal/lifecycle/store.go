package lifecycle

import (
	"context"

	"github.com/timur-mustafin/gamified-task-manager/internal/domain"
)

// Store provides atomic read-modify-write over tasks and their dependent
// records. The postgres package implements it; tests use an in-memory fake.
type Store interface {
	// WithTx runs fn inside one transaction. Returning an error rolls
	// everything back, so a transition can never partially apply.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// StatusLog returns a task's log entries ordered by timestamp ascending.
	StatusLog(ctx context.Context, taskID string) ([]domain.StatusLogEntry, error)
}

// Tx is the slice of storage a single transition needs. GetTaskForUpdate must
// lock the row so concurrent transitions on the same task serialize.
type Tx interface {
	GetTaskForUpdate(ctx context.Context, id string) (*domain.Task, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	InsertTask(ctx context.Context, task *domain.Task) error
	UpdateTask(ctx context.Context, task *domain.Task) error
	DeleteTask(ctx context.Context, id string) error
	AppendStatusLog(ctx context.Context, entry *domain.StatusLogEntry) error
	AppendAssigneeHistory(ctx context.Context, entry *domain.AssigneeHistoryEntry) error
	StatusLog(ctx context.Context, taskID string) ([]domain.StatusLogEntry, error)
	// CreditUser atomically increments exp/honor and refreshes the
	// denormalised level.
	CreditUser(ctx context.Context, userID string, exp, honor int) error
}
