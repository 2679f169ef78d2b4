package guard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// WindowStore records hits for a key inside a fixed window. Implementations
// must never count a hit that would take the window over limit.
type WindowStore interface {
	// Hit returns whether the hit was admitted.
	Hit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// rateRecord is one client's window.
type rateRecord struct {
	count   int
	resetAt time.Time
}

// MemoryStore keeps windows in a go-cache so idle clients expire on their own.
type MemoryStore struct {
	mu    sync.Mutex
	cache *cache.Cache
	now   func() time.Time
}

func NewMemoryStore(window time.Duration) *MemoryStore {
	return &MemoryStore{
		cache: cache.New(window, 5*time.Minute),
		now:   time.Now,
	}
}

func (s *MemoryStore) Hit(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if x, found := s.cache.Get(key); found {
		rec := x.(*rateRecord)
		if now.Before(rec.resetAt) {
			if rec.count >= limit {
				return false, nil
			}
			rec.count++
			return true, nil
		}
	}

	// Missing or expired window: start fresh with this request counted.
	rec := &rateRecord{count: 1, resetAt: now.Add(window)}
	s.cache.Set(key, rec, window)
	return limit > 0, nil
}

// fixedWindowScript mirrors MemoryStore.Hit atomically on the Redis side.
var fixedWindowScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if not current then
  redis.call('SET', KEYS[1], 1, 'PX', ARGV[2])
  return 1
end
if tonumber(current) >= tonumber(ARGV[1]) then
  return -1
end
return redis.call('INCR', KEYS[1])
`)

// RedisStore shares windows across instances.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) Hit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	res, err := fixedWindowScript.Run(ctx, s.rdb, []string{s.prefix + key}, limit, window.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("rate limit script: %w", err)
	}
	return res > 0, nil
}

// RateLimiter admits at most limit requests per client per window.
type RateLimiter struct {
	store  WindowStore
	limit  int
	window time.Duration
}

func NewRateLimiter(store WindowStore, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{store: store, limit: limit, window: window}
}

// CheckAndRecord fails closed: a store error denies the request.
func (r *RateLimiter) CheckAndRecord(ctx context.Context, clientID string) (bool, error) {
	allowed, err := r.store.Hit(ctx, clientID, r.limit, r.window)
	if err != nil {
		return false, err
	}
	return allowed, nil
}

func (r *RateLimiter) Limit() int {
	return r.limit
}

func (r *RateLimiter) Window() time.Duration {
	return r.window
}
