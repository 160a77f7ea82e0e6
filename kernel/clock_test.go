package kernel

import "sync/atomic"

// fakeClock gives tests a controllable microsecond timebase instead of
// racing against the wall clock.
type fakeClock struct {
	now atomic.Uint64
}

func (c *fakeClock) NowMicros() uint64 { return c.now.Load() }
func (c *fakeClock) set(us uint64)     { c.now.Store(us) }
func (c *fakeClock) advance(us uint64) { c.now.Add(us) }
