package testutil

import "sync"

// StepClock is a resettable event counter for tests.
//
// It satisfies the engine's EventClock interface, so tests can pin event IDs
// and rerun a scenario with identical numbering.
type StepClock struct {
	mu  sync.Mutex
	seq int64
}

// NewStepClock creates a clock whose first Next() returns 1.
func NewStepClock() *StepClock {
	return &StepClock{}
}

// Next increments and returns the event number.
func (c *StepClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the last issued event number.
func (c *StepClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset rewinds the clock to 0.
func (c *StepClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}
