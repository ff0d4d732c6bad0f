package testutil

import (
	"fmt"
	"sync"
	"time"
)

// StubClock is a repodata.Clock whose time only moves when a test says so.
// Safe for concurrent use, so cache waiters can read it while a build runs.
type StubClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewStubClock creates a StubClock set to the given time.
func NewStubClock(t time.Time) *StubClock {
	return &StubClock{now: t}
}

// FixedClock returns a StubClock set to 2024-01-15 10:30:00 UTC.
func FixedClock() *StubClock {
	return NewStubClock(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC))
}

func (c *StubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *StubClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// AdvanceToExpiry moves the clock to the first instant at which a snapshot
// built at builtAt is stale under ttl.
func (c *StubClock) AdvanceToExpiry(builtAt time.Time, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = builtAt.Add(ttl)
}

// AdvanceBeforeExpiry moves the clock to the last instant at which a snapshot
// built at builtAt is still fresh under ttl.
func (c *StubClock) AdvanceBeforeExpiry(builtAt time.Time, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = builtAt.Add(ttl - time.Nanosecond)
}

// StubIDGenerator returns sequential run IDs: "run-1", "run-2", etc.
type StubIDGenerator struct {
	mu      sync.Mutex
	counter int
}

func NewStubIDGenerator() *StubIDGenerator {
	return &StubIDGenerator{}
}

func (g *StubIDGenerator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("run-%d", g.counter)
}

// Issued returns how many IDs have been handed out, i.e. how many index
// runs a service started.
func (g *StubIDGenerator) Issued() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.counter
}
