package breaker

import (
	"sync"
	"time"
)

// Tracker counts recent pipeline failures and consecutive timeouts and
// decides whether new work should be attempted at all.
// Thread-safe: all state transitions use a mutex.
type Tracker struct {
	mu                  sync.Mutex
	count               int
	consecutiveTimeouts int
	lastErrorAt         time.Time
	lastResetAt         time.Time

	errorThreshold   int           // errors above this trip the breaker
	timeoutThreshold int           // consecutive timeouts above this trip the breaker
	cooldown         time.Duration // errors older than this no longer count
	now              func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

func WithErrorThreshold(n int) Option {
	return func(t *Tracker) { t.errorThreshold = n }
}

func WithTimeoutThreshold(n int) Option {
	return func(t *Tracker) { t.timeoutThreshold = n }
}

func WithCooldown(d time.Duration) Option {
	return func(t *Tracker) { t.cooldown = d }
}

// WithClock sets a custom clock function (for testing).
func WithClock(fn func() time.Time) Option {
	return func(t *Tracker) { t.now = fn }
}

// NewTracker creates a tracker with defaults: break above 50 errors or above
// 5 consecutive timeouts, provided the last error is under 5 minutes old.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		errorThreshold:   50,
		timeoutThreshold: 5,
		cooldown:         5 * time.Minute,
		now:              time.Now,
	}
	for _, o := range opts {
		o(t)
	}
	t.lastResetAt = t.now()
	return t
}

// ShouldBreak reports whether requests must be rejected right now. A tripped
// tracker whose last error is older than the cooldown resets itself and lets
// the request through.
func (t *Tracker) ShouldBreak() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.count <= t.errorThreshold && t.consecutiveTimeouts <= t.timeoutThreshold {
		return false
	}
	now := t.now()
	if now.Sub(t.lastErrorAt) < t.cooldown {
		return true
	}
	t.resetLocked(now)
	return false
}

// RecordError is called for every failed orchestration.
func (t *Tracker) RecordError() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count++
	t.lastErrorAt = t.now()
}

// RecordTimeout is called for every request that hit its deadline. It also
// stamps lastErrorAt so a burst of timeouts alone can trip the breaker.
func (t *Tracker) RecordTimeout() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.consecutiveTimeouts++
	t.lastErrorAt = t.now()
}

// RecordSuccess clears the consecutive-timeout streak.
func (t *Tracker) RecordSuccess() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.consecutiveTimeouts = 0
}

// Reset zeroes both counters unconditionally.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetLocked(t.now())
}

// resetLocked must be called with mu held.
func (t *Tracker) resetLocked(now time.Time) {
	t.count = 0
	t.consecutiveTimeouts = 0
	t.lastResetAt = now
}

type Snapshot struct {
	Count               int       `json:"count"`
	ConsecutiveTimeouts int       `json:"consecutive_timeouts"`
	LastErrorAt         time.Time `json:"last_error_at"`
	LastResetAt         time.Time `json:"last_reset_at"`
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		Count:               t.count,
		ConsecutiveTimeouts: t.consecutiveTimeouts,
		LastErrorAt:         t.lastErrorAt,
		LastResetAt:         t.lastResetAt,
	}
}
