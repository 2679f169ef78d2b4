package guard

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(clock *fakeClock) *RateLimiter {
	store := NewMemoryStore(time.Minute)
	store.now = clock.Now
	return NewRateLimiter(store, 10, time.Minute)
}

func TestRateLimiterRejectsEleventhRequestInWindow(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	limiter := newTestLimiter(clock)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		allowed, err := limiter.CheckAndRecord(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be allowed", i+1)
		clock.Advance(time.Second)
	}

	allowed, err := limiter.CheckAndRecord(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, allowed)

	// Other clients have their own window.
	allowed, err = limiter.CheckAndRecord(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimiterRejectedRequestsAreNotCounted(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(time.Minute)
	store.now = clock.Now
	limiter := NewRateLimiter(store, 2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _ = limiter.CheckAndRecord(ctx, "client")
	}

	x, found := store.cache.Get("client")
	require.True(t, found)
	assert.Equal(t, 2, x.(*rateRecord).count)
}

func TestRateLimiterWindowRestartsAfterExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	limiter := newTestLimiter(clock)
	ctx := context.Background()

	for i := 0; i < 11; i++ {
		_, _ = limiter.CheckAndRecord(ctx, "client")
	}

	clock.Advance(61 * time.Second)

	allowed, err := limiter.CheckAndRecord(ctx, "client")
	require.NoError(t, err)
	assert.True(t, allowed)

	// The restarted window already holds one hit.
	for i := 0; i < 9; i++ {
		allowed, _ = limiter.CheckAndRecord(ctx, "client")
		assert.True(t, allowed)
	}
	allowed, _ = limiter.CheckAndRecord(ctx, "client")
	assert.False(t, allowed)
}

func TestRedisStoreFailsClosed(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	limiter := NewRateLimiter(NewRedisStore(rdb, "ratelimit:"), 10, time.Minute)

	allowed, err := limiter.CheckAndRecord(context.Background(), "client")
	assert.Error(t, err)
	assert.False(t, allowed)
}
