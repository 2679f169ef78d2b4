package breaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestTrackerBreaksAfterErrorThreshold(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	tr := NewTracker(WithClock(clock.Now))

	for i := 0; i < 50; i++ {
		tr.RecordError()
	}
	assert.False(t, tr.ShouldBreak(), "50 errors is still at the threshold")

	tr.RecordError()
	assert.True(t, tr.ShouldBreak())
}

func TestTrackerRecoversAfterCooldown(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	tr := NewTracker(WithClock(clock.Now))

	for i := 0; i < 51; i++ {
		tr.RecordError()
	}
	clock.Advance(4 * time.Minute)
	assert.True(t, tr.ShouldBreak())

	clock.Advance(time.Minute + time.Second)
	assert.False(t, tr.ShouldBreak())

	snap := tr.Snapshot()
	assert.Equal(t, 0, snap.Count)
	assert.Equal(t, 0, snap.ConsecutiveTimeouts)
	assert.Equal(t, clock.t, snap.LastResetAt)
}

func TestTrackerConsecutiveTimeouts(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	tr := NewTracker(WithClock(clock.Now), WithTimeoutThreshold(2))

	tr.RecordTimeout()
	tr.RecordTimeout()
	tr.RecordSuccess()
	tr.RecordTimeout()
	assert.False(t, tr.ShouldBreak(), "success clears the streak")

	tr.RecordTimeout()
	tr.RecordTimeout()
	assert.True(t, tr.ShouldBreak())
}

func TestTrackerReset(t *testing.T) {
	tr := NewTracker(WithErrorThreshold(1))
	tr.RecordError()
	tr.RecordError()
	assert.True(t, tr.ShouldBreak())

	tr.Reset()
	assert.False(t, tr.ShouldBreak())
	assert.Equal(t, 0, tr.Snapshot().Count)
}
