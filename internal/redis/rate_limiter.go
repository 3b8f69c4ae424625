package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RateLimiter caps how often a key may perform an action. The api service
// applies it per giver on task creation.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Limit() int
}

// slidingWindowLimiter counts events in a Redis sorted set scored by
// timestamp, so the window slides instead of resetting on a boundary.
type slidingWindowLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// NewRateLimiter returns a limiter allowing at most limit events per window
// for a given key.
func NewRateLimiter(client *redis.Client, limit int, window time.Duration) RateLimiter {
	return &slidingWindowLimiter{client: client, limit: limit, window: window}
}

func (r *slidingWindowLimiter) Limit() int { return r.limit }

func rateKey(key string) string { return "ratelimit:" + key }

// Allow records the event and reports whether the key stayed within its
// budget for the window. Members are unique IDs, not timestamps, so two
// events in the same nanosecond still count twice.
func (r *slidingWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := time.Now().UnixNano()
	windowStart := now - r.window.Nanoseconds()

	pipe := r.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, rateKey(key), "0", strconv.FormatInt(windowStart, 10))
	pipe.ZAdd(ctx, rateKey(key), redis.Z{Score: float64(now), Member: uuid.NewString()})
	countCmd := pipe.ZCard(ctx, rateKey(key))
	pipe.Expire(ctx, rateKey(key), r.window*2)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limiter pipeline for %q: %w", key, err)
	}

	return countCmd.Val() <= int64(r.limit), nil
}
