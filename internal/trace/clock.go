package trace

import "sync/atomic"

// Clock is a monotonic logical clock for trace event ordering.
//
// Every event is stamped with a strictly increasing seq number from one
// clock, so traces order deterministically with no wall-clock involvement
// and a replayed run produces an identical trace.
//
// The atomic is not a concession to concurrent tracing - the engine is
// single-threaded - it just keeps the clock safe to share with diagnostic
// readers.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0; the first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock resuming from a specific sequence number.
// Used when appending to a previously journaled trace.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and advances the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without advancing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
