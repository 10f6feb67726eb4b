package util

import (
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
}

type DefaultClock struct{}

func (c *DefaultClock) Now() time.Time { return time.Now() }

// DummyClock returns T, then moves T forward by Step, so that every timed section of an operation
// under test measures exactly Step. A zero Step stops the clock.
type DummyClock struct {
	T    time.Time
	Step time.Duration
	mu   sync.Mutex
}

func (c *DummyClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.T
	c.T = c.T.Add(c.Step)
	return now
}

// Stopwatch measures the time taken by an operation against a Clock.
type Stopwatch struct {
	clock Clock
	start time.Time
}

func StartStopwatch(clock Clock) Stopwatch {
	return Stopwatch{clock: clock, start: clock.Now()}
}

func (s Stopwatch) Elapsed() time.Duration {
	return s.clock.Now().Sub(s.start)
}
