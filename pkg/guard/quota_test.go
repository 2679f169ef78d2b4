package guard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQuotaExhaustsAtDailyLimit(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local)}
	q := NewQuota(3, WithQuotaClock(clock.Now))

	for i := 0; i < 3; i++ {
		assert.True(t, q.HasQuota())
		q.Consume()
	}
	assert.False(t, q.HasQuota())

	// Consuming past the limit never pushes used above it.
	q.Consume()
	assert.Equal(t, 3, q.Snapshot().Used)
}

func TestQuotaResetsAtNextLocalMidnight(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 23, 30, 0, 0, time.Local)}
	q := NewQuota(2, WithQuotaClock(clock.Now))
	q.ForceExhausted()
	assert.False(t, q.HasQuota())

	clock.Advance(29 * time.Minute)
	assert.False(t, q.HasQuota())

	clock.Advance(2 * time.Minute)
	assert.True(t, q.HasQuota())

	snap := q.Snapshot()
	assert.Equal(t, 0, snap.Used)
	assert.Equal(t, time.Date(2026, 3, 3, 0, 0, 0, 0, time.Local), snap.ResetAt)
}

func TestQuotaForceExhausted(t *testing.T) {
	q := NewQuota(90)
	q.Consume()
	q.ForceExhausted()

	snap := q.Snapshot()
	assert.Equal(t, 90, snap.Used)
	assert.False(t, q.HasQuota())
}
