package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Leader elects a single notifier instance to run the deadline-reminder
// sweep. Acquire is a SET NX with a TTL; whoever wins holds the lock until it
// expires or is released, so two instances never sweep the same window.
type Leader interface {
	Acquire(ctx context.Context, task string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, task string) error
}

type leader struct {
	client *redis.Client
	id     string
}

// NewLeader creates a Redis-backed Leader. id identifies this instance and is
// stored as the lock value.
func NewLeader(client *redis.Client, id string) Leader {
	return &leader{client: client, id: id}
}

func leaderKey(task string) string { return "leader:" + task }

func (l *leader) Acquire(ctx context.Context, task string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, leaderKey(task), l.id, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire leader lock %q: %w", task, err)
	}
	return ok, nil
}

// Release drops the lock only if this instance still holds it.
func (l *leader) Release(ctx context.Context, task string) error {
	const script = `
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		end
		return 0
	`
	err := l.client.Eval(ctx, script, []string{leaderKey(task)}, l.id).Err()
	if err != nil {
		return fmt.Errorf("release leader lock %q: %w", task, err)
	}
	return nil
}
