package guard

import (
	"sync"
	"time"
)

// Quota is the process-wide daily budget for the metered search provider.
// It resets at the next local midnight. State is in-memory only, so a restart
// hands out a fresh budget.
type Quota struct {
	mu      sync.Mutex
	used    int
	limit   int
	resetAt time.Time
	now     func() time.Time
}

type QuotaOption func(*Quota)

// WithQuotaClock sets a custom clock function (for testing).
func WithQuotaClock(fn func() time.Time) QuotaOption {
	return func(q *Quota) { q.now = fn }
}

func NewQuota(dailyLimit int, opts ...QuotaOption) *Quota {
	q := &Quota{limit: dailyLimit, now: time.Now}
	for _, o := range opts {
		o(q)
	}
	q.resetAt = nextMidnight(q.now())
	return q
}

func (q *Quota) HasQuota() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.maybeReset()
	return q.used < q.limit
}

// Consume records one provider call. It is called before the call is made so
// a call that never returns is still counted.
func (q *Quota) Consume() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.maybeReset()
	if q.used < q.limit {
		q.used++
	}
}

// ForceExhausted burns the rest of today's budget after the provider itself
// reported a quota or permission failure.
func (q *Quota) ForceExhausted() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.maybeReset()
	q.used = q.limit
}

type QuotaSnapshot struct {
	Used    int       `json:"used"`
	Limit   int       `json:"limit"`
	ResetAt time.Time `json:"reset_at"`
}

func (q *Quota) Snapshot() QuotaSnapshot {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.maybeReset()
	return QuotaSnapshot{Used: q.used, Limit: q.limit, ResetAt: q.resetAt}
}

// maybeReset must be called with mu held.
func (q *Quota) maybeReset() {
	now := q.now()
	if !now.Before(q.resetAt) {
		q.used = 0
		q.resetAt = nextMidnight(now)
	}
}

func nextMidnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, t.Location())
}
