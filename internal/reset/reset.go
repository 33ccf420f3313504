// Package reset decides when the daily cutoff has been crossed.
//
// The policy is pull-based: callers check it at the start of every
// state-mutating path, there is no background timer.
package reset

import (
	"sync"
	"time"

	"telegram-tip-tracker/internal/clock"
)

// Policy holds the cutoff time of day and the process-wide reset clock.
type Policy struct {
	clock  *clock.Clock
	hour   int
	minute int

	mu        sync.Mutex
	lastReset time.Time
}

// New creates a policy whose reset clock starts at the current instant,
// so a cold start never counts as a crossed boundary.
func New(c *clock.Clock, hour, minute int) *Policy {
	return &Policy{
		clock:     c,
		hour:      hour,
		minute:    minute,
		lastReset: c.Now(),
	}
}

// Boundary returns the most recent cutoff instant not after now.
func (p *Policy) Boundary(now time.Time) time.Time {
	cutoff := p.clock.At(now, p.hour, p.minute)
	if now.Before(cutoff) {
		prev := now.In(p.clock.Location()).AddDate(0, 0, -1)
		cutoff = p.clock.At(prev, p.hour, p.minute)
	}
	return cutoff
}

// ShouldReset reports whether a cutoff lies in (last, now].
func (p *Policy) ShouldReset(now, last time.Time) bool {
	return last.Before(p.Boundary(now))
}

// Sweep checks the process-wide clock. It returns true exactly once per
// crossed boundary and advances the clock to now when it does.
func (p *Policy) Sweep(now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.ShouldReset(now, p.lastReset) {
		return false
	}
	if now.After(p.lastReset) {
		p.lastReset = now
	}
	return true
}

// LastReset returns the instant of the last process-wide sweep.
func (p *Policy) LastReset() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastReset
}
