package clock

import "time"

// FakeClock pins Now for tests. Services read time only through Clock, so
// moving it shifts order timestamps, installment due dates and dashboard
// month windows deterministically.
type FakeClock struct {
	now time.Time
}

func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t.UTC()}
}

func (c *FakeClock) Now() time.Time {
	return c.now
}

// Advance shifts the clock by d. Negative durations move it back, which the
// list-filter tests use to backdate records.
func (c *FakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}
