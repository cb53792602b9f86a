package engine

import "sync/atomic"

// Clock is the monotonic logical clock that stamps every rewrite.
//
// Rewrites are ordered by seq, never by wall-clock time, so a batch read
// back from the store comes out in the order it was processed.
//
// Clock is safe for concurrent use.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock that resumes after start.
// Resume uses it with the store's last seq.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next increments the clock and returns the new seq.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last seq handed out without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
