// Package timeutil provides a testable abstraction over the process clocks.
package timeutil

import (
	"sync"
	"time"
)

// Clock provides the wall and monotonic clocks of the running process.
type Clock interface {
	// Now returns the current wall time.
	Now() time.Time

	// Monotonic returns nanoseconds elapsed since an arbitrary,
	// process-local origin. It never decreases.
	Monotonic() uint64
}

var processStart = time.Now()

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// Monotonic returns the monotonic reading carried by time.Now, relative
// to package initialisation.
func (RealClock) Monotonic() uint64 {
	return uint64(time.Since(processStart))
}

// MockClock is a manually controlled clock for testing. Its wall and
// monotonic readings can be moved independently to simulate clock resets.
type MockClock struct {
	mu   sync.Mutex
	wall time.Time
	mono uint64
}

// NewMockClock creates a new MockClock set to the given wall time and a
// zero monotonic reading.
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{wall: t}
}

// Now returns the mocked wall time.
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.wall
}

// Monotonic returns the mocked monotonic reading.
func (c *MockClock) Monotonic() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mono
}

// Set sets the wall clock to t and leaves the monotonic reading untouched.
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.wall = t
}

// SetWall is an alias of Set, kept for readability in tests that rewind
// the wall clock on purpose.
func (c *MockClock) SetWall(t time.Time) {
	c.Set(t)
}

// Advance moves both clocks forward by d. Negative durations are ignored
// for the monotonic reading.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.wall = c.wall.Add(d)
	if d > 0 {
		c.mono += uint64(d)
	}
}
