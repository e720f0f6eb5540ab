// Package clock provides a controllable clock for deterministic tests.
package clock

import (
	"sync"
	"time"
)

// ManualClock returns a fixed time until advanced.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewManualClock(t0 time.Time) *ManualClock {
	return &ManualClock{now: t0.UTC()}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Today() time.Time {
	now := c.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t.UTC()
}
