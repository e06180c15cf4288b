package engine

import (
	"sync/atomic"
	"time"
)

// Clock supplies the current time to sequences.
//
// Deadlines are compared with time.Time.Before, so a Clock whose readings
// carry a monotonic component (as time.Now does) is immune to wall-clock
// adjustments.
type Clock interface {
	Now() time.Time
}

// SystemClock reads time.Now.
type SystemClock struct{}

// Now returns time.Now(), including its monotonic reading.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// TickCounter numbers ticks.
//
// Every call to Engine.Tick takes the next value, so observers and the
// recording store can order frames and sequence events without relying on
// wall-clock timestamps.
//
// Thread-safety: TickCounter is safe for concurrent use (atomic operations).
type TickCounter struct {
	n atomic.Int64
}

// NewTickCounter creates a counter starting at 0.
func NewTickCounter() *TickCounter {
	return &TickCounter{}
}

// NewTickCounterAt creates a counter starting at a specific tick.
// Used when a replay continues the numbering of an earlier session.
func NewTickCounterAt(start int64) *TickCounter {
	c := &TickCounter{}
	c.n.Store(start)
	return c
}

// Next returns the next tick number and increments the counter.
func (c *TickCounter) Next() int64 {
	return c.n.Add(1)
}

// Current returns the last issued tick number without incrementing.
func (c *TickCounter) Current() int64 {
	return c.n.Load()
}
