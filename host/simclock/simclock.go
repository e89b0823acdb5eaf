// Package simclock simulates the SysTick countdown register and the tick
// counters it drives, so firmware timing code can run on a host.
package simclock

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"gowiring/core"
)

// DefaultSpin is the simulated time one register read costs on a mock clock.
// It is shorter than the window Delay's tail spin has to land in, which is
// always more than one microsecond wide.
const DefaultSpin = time.Microsecond

// Clock derives millisecond and microsecond counters and a countdown
// register from the elapsed time of a clock.Clock
type Clock struct {
	clk  clock.Clock
	load uint32

	mu    sync.RWMutex
	epoch time.Time
	base  uint32
	spin  time.Duration // Added to spun by every Value read
	spun  time.Duration
}

// New creates a simulated clock with both counters at zero.
// load is the register reload value for one millisecond period.
// On a *clock.Mock each register read advances simulated time by
// DefaultSpin, so busy-waits on the register terminate without a yield.
func New(clk clock.Clock, load uint32) *Clock {
	c := &Clock{
		clk:   clk,
		load:  load,
		epoch: clk.Now(),
	}
	if _, ok := clk.(*clock.Mock); ok {
		c.spin = DefaultSpin
	}
	return c
}

// SetSpin sets the simulated cost of one register read (0 makes reads free)
func (c *Clock) SetSpin(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.spin = d
}

// SetBase restarts the counters at ms milliseconds from the current time
func (c *Clock) SetBase(ms uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch = c.clk.Now()
	c.base = ms
	c.spun = 0
}

func (c *Clock) elapsed() (time.Duration, uint32) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.clk.Since(c.epoch) + c.spun, c.base
}

// CurrentMilli implements core.MilliSource
func (c *Clock) CurrentMilli() uint32 {
	d, base := c.elapsed()
	return base + uint32(d/time.Millisecond)
}

// CurrentMicro implements core.MicroSource
func (c *Clock) CurrentMicro() uint32 {
	d, base := c.elapsed()
	return base*1000 + uint32(d/time.Microsecond)
}

// Value implements core.Countdown. The register reads load at the start of
// each millisecond and counts down towards zero. The read itself then costs
// the spin time, kept apart from the underlying clock so the mock's timers
// are not run on every read.
func (c *Clock) Value() uint32 {
	c.mu.Lock()
	d := c.clk.Since(c.epoch) + c.spun
	c.spun += c.spin
	c.mu.Unlock()

	sub := uint64(d % time.Millisecond)
	return c.load - uint32(sub*(uint64(c.load)+1)/uint64(time.Millisecond))
}

// Reload implements core.Countdown
func (c *Clock) Reload() uint32 {
	return c.load
}

// NewCoreClock builds a core.Clock driven entirely by c
func (c *Clock) NewCoreClock(yielder core.Yielder) *core.Clock {
	return core.NewClock(c, c, c, yielder)
}

// Stepper returns a yield hook that advances mock by step on every yield
func Stepper(mock *clock.Mock, step time.Duration) core.YieldFunc {
	return func() {
		mock.Add(step)
	}
}
