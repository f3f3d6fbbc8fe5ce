package testutil

import (
	"sync"
	"time"
)

// TickingClock hands out start, start+tick, start+2*tick, ... on successive reads,
// giving every translator event its own timestamp.
type TickingClock struct {
	mu   sync.Mutex
	next time.Time
	tick time.Duration
}

// NewTickingClock returns a TickingClock whose first reading is start.
func NewTickingClock(start time.Time, tick time.Duration) *TickingClock {
	return &TickingClock{next: start, tick: tick}
}

// Now returns the current reading and moves the clock one tick on.
func (c *TickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.next
	c.next = c.next.Add(c.tick)
	return now
}
