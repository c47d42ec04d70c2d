package clock

import "time"

// FakeClock is a manually advanced Clock for tests that cross time
// boundaries: the monthly quota window, queue visibility delays and
// retry backoff.
type FakeClock struct {
	now time.Time
}

// NewFakeClock pins the clock to t, normalized to UTC like the real
// clock.
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t.UTC()}
}

func (c *FakeClock) Now() time.Time {
	return c.now
}

// Advance moves the clock forward by d. A job whose visibility or
// backoff deadline passes becomes claimable on the next poll.
func (c *FakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}
