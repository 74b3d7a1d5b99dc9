// Package timeutil provides a testable abstraction over wall-clock time.
package timeutil

import (
	"sync"
	"time"
)

// Clock provides the current time. Storage stamps runs through it and the
// CLI times analyses with it.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Since returns the duration since t.
	Since(t time.Time) time.Duration
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// Since returns the time elapsed since t.
func (RealClock) Since(t time.Time) time.Duration {
	return time.Since(t)
}

// MockClock is a manually driven Clock for tests.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMockClock returns a MockClock fixed at t.
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{now: t}
}

// Now returns the mock time.
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t.
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the clock forward by d.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Since returns the mock time elapsed since t.
func (c *MockClock) Since(t time.Time) time.Duration {
	return c.Now().Sub(t)
}
