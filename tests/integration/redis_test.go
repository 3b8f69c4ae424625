//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisstore "github.com/timur-mustafin/gamified-task-manager/internal/redis"
)

// newRedisClient returns a client connected to the test container and flushes
// the database on test cleanup so tests don't interfere with each other.
func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: testRedisAddr})
	t.Cleanup(func() {
		client.FlushDB(context.Background()) //nolint:errcheck
		client.Close()                       //nolint:errcheck
	})
	return client
}

func TestPresence_TouchThenOnline(t *testing.T) {
	presence := redisstore.NewPresence(newRedisClient(t))
	ctx := context.Background()

	require.NoError(t, presence.Touch(ctx, "user-1"))

	online, err := presence.IsOnline(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, online)

	seen, err := presence.LastSeen(ctx, "user-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), seen, 5*time.Second)
}

func TestPresence_UnknownUserOffline(t *testing.T) {
	presence := redisstore.NewPresence(newRedisClient(t))
	ctx := context.Background()

	online, err := presence.IsOnline(ctx, "never-seen")
	require.NoError(t, err)
	assert.False(t, online)

	seen, err := presence.LastSeen(ctx, "never-seen")
	require.NoError(t, err)
	assert.True(t, seen.IsZero(), "missing presence key should read as zero time, not an error")
}

// ── Rate limiter ─────────────────────────────────────────────────────────────

func TestRateLimiter_AllowsWithinLimit(t *testing.T) {
	limiter := redisstore.NewRateLimiter(newRedisClient(t), 5, time.Second)
	ctx := context.Background()

	for i := range 5 {
		ok, err := limiter.Allow(ctx, "within-limit")
		require.NoError(t, err)
		assert.True(t, ok, "request %d should be allowed", i+1)
	}
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	limiter := redisstore.NewRateLimiter(newRedisClient(t), 3, time.Second)
	ctx := context.Background()

	for range 3 {
		ok, err := limiter.Allow(ctx, "over-limit")
		require.NoError(t, err)
		require.True(t, ok)
	}

	ok, err := limiter.Allow(ctx, "over-limit")
	require.NoError(t, err)
	assert.False(t, ok, "4th request should be rate-limited")
}

func TestRateLimiter_WindowExpiry(t *testing.T) {
	// Use a short window so the test doesn't take too long.
	window := 200 * time.Millisecond
	limiter := redisstore.NewRateLimiter(newRedisClient(t), 2, window)
	ctx := context.Background()

	for range 2 {
		ok, err := limiter.Allow(ctx, "expiry")
		require.NoError(t, err)
		require.True(t, ok)
	}

	ok, err := limiter.Allow(ctx, "expiry")
	require.NoError(t, err)
	require.False(t, ok)

	time.Sleep(window + 50*time.Millisecond)

	ok, err = limiter.Allow(ctx, "expiry")
	require.NoError(t, err)
	assert.True(t, ok, "requests should be allowed again after the window slides")
}

// ── Leader election ──────────────────────────────────────────────────────────

func TestLeader_SecondInstanceLosesElection(t *testing.T) {
	client := newRedisClient(t)
	first := redisstore.NewLeader(client, "instance-1")
	second := redisstore.NewLeader(client, "instance-2")
	ctx := context.Background()

	ok, err := first.Acquire(ctx, "deadline-sweep", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = second.Acquire(ctx, "deadline-sweep", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "lock is held by instance-1")
}

func TestLeader_ReleaseFreesLock(t *testing.T) {
	client := newRedisClient(t)
	first := redisstore.NewLeader(client, "instance-1")
	second := redisstore.NewLeader(client, "instance-2")
	ctx := context.Background()

	ok, err := first.Acquire(ctx, "deadline-sweep", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, first.Release(ctx, "deadline-sweep"))

	ok, err = second.Acquire(ctx, "deadline-sweep", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "released lock should be acquirable")
}

func TestLeader_ReleaseOnlyOwnLock(t *testing.T) {
	client := newRedisClient(t)
	first := redisstore.NewLeader(client, "instance-1")
	second := redisstore.NewLeader(client, "instance-2")
	ctx := context.Background()

	ok, err := first.Acquire(ctx, "deadline-sweep", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	// A non-holder releasing must not free the holder's lock.
	require.NoError(t, second.Release(ctx, "deadline-sweep"))

	ok, err = second.Acquire(ctx, "deadline-sweep", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "lock should still belong to instance-1")
}
