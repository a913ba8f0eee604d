package ui

import "sync/atomic"

// Cell carries the latest value from a background task to the render loop.
// Writers replace the whole value; readers never see a partial write.
type Cell[T any] struct {
	p atomic.Pointer[T]
}

// Store publishes v.
func (c *Cell[T]) Store(v T) {
	c.p.Store(&v)
}

// Load returns the latest value and whether one was ever stored.
func (c *Cell[T]) Load() (T, bool) {
	if v := c.p.Load(); v != nil {
		return *v, true
	}
	var zero T
	return zero, false
}

// Get returns the latest value or the zero value.
func (c *Cell[T]) Get() T {
	v, _ := c.Load()
	return v
}

// Take returns the latest value and clears the cell, so each stored value is
// consumed once.
func (c *Cell[T]) Take() (T, bool) {
	if v := c.p.Swap(nil); v != nil {
		return *v, true
	}
	var zero T
	return zero, false
}
