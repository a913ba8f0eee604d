package ui

import "time"

// Deadline is a wall-clock timeout checked once per tick. Expired reports
// true exactly once.
type Deadline struct {
	start   time.Time
	timeout time.Duration
	fired   bool
}

func NewDeadline(now time.Time, timeout time.Duration) *Deadline {
	return &Deadline{start: now, timeout: timeout}
}

// Reset restarts the countdown from now. A fired deadline stays fired.
func (d *Deadline) Reset(now time.Time) {
	d.start = now
}

func (d *Deadline) Expired(now time.Time) bool {
	if d.fired || now.Sub(d.start) < d.timeout {
		return false
	}
	d.fired = true
	return true
}

// Remaining returns the time left, never negative.
func (d *Deadline) Remaining(now time.Time) time.Duration {
	left := d.timeout - now.Sub(d.start)
	if left < 0 {
		return 0
	}
	return left
}
