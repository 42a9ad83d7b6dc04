package engine

import "sync/atomic"

// EventClock issues event IDs.
type EventClock interface {
	Next() int64
	Current() int64
}

// Clock is a monotonic event counter. Every generated event is stamped with
// a strictly increasing ID from it, independent of wall-clock time.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
// The engine only calls Next() while holding its mutex, so IDs also follow
// the order in which events reach the sink.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock whose first Next() returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next event ID.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last issued event ID without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
