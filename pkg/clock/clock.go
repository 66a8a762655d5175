// Package clock supplies the current time; tests inject a Manual clock.
package clock

import (
	"sync"
	"time"
)

// Real returns the wall clock in UTC
type Real struct{}

// Now возвращает текущее время
func (Real) Now() time.Time {
	return time.Now().UTC()
}

// Manual is a settable clock safe for concurrent use
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual creates a clock frozen at t
func NewManual(t time.Time) *Manual {
	return &Manual{now: t}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set moves the clock to t
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

// Advance moves the clock forward by d
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}
