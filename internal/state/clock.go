package state

import "sync/atomic"

// Clock mints state ids, reader ids and node handles. The first Next returns
// 1, so 0 never names anything. Safe for concurrent use.
type Clock struct {
	last atomic.Int64
}

// NewClock returns a clock whose first Next is 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt returns a clock whose first Next is start+1.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.last.Store(start)
	return c
}

// Next mints the next value.
func (c *Clock) Next() int64 {
	return c.last.Add(1)
}

// Current returns the last minted value, or the start value before any Next.
func (c *Clock) Current() int64 {
	return c.last.Load()
}
