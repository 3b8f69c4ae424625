// Package redis holds the ephemeral state: per-user presence keys, the task
// creation rate limiter and the reminder sweep's leader lock.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const presenceTTL = 5 * time.Minute

func presenceKey(userID string) string { return "presence:" + userID }

// Presence tracks which users are currently online. A key with a short TTL is
// refreshed on every authenticated request; expiry means offline, so there is
// no explicit reset path.
type Presence interface {
	Touch(ctx context.Context, userID string) error
	IsOnline(ctx context.Context, userID string) (bool, error)
	LastSeen(ctx context.Context, userID string) (time.Time, error)
}

type presence struct {
	client *redis.Client
}

// NewPresence creates a Redis-backed Presence.
func NewPresence(client *redis.Client) Presence {
	return &presence{client: client}
}

// NewClient creates and returns a new Redis client.
func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
		PoolSize:     10,
	})
}

func (p *presence) Touch(ctx context.Context, userID string) error {
	now := time.Now().UTC()
	err := p.client.Set(ctx, presenceKey(userID), now.Format(time.RFC3339Nano), presenceTTL).Err()
	if err != nil {
		return fmt.Errorf("redis touch presence for %s: %w", userID, err)
	}
	return nil
}

func (p *presence) IsOnline(ctx context.Context, userID string) (bool, error) {
	n, err := p.client.Exists(ctx, presenceKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis check presence for %s: %w", userID, err)
	}
	return n > 0, nil
}

// LastSeen returns the timestamp of the user's most recent request while the
// presence key is alive. Offline users return the zero time, no error.
func (p *presence) LastSeen(ctx context.Context, userID string) (time.Time, error) {
	val, err := p.client.Get(ctx, presenceKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("redis get presence for %s: %w", userID, err)
	}
	t, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse presence timestamp for %s: %w", userID, err)
	}
	return t, nil
}
