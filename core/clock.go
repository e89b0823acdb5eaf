package core

// TickHz is the rate of the millisecond tick interrupt
const TickHz = 1000

// MilliSource supplies the free-running millisecond tick count
type MilliSource interface {
	CurrentMilli() uint32
}

// MicroSource supplies the free-running microsecond tick count
type MicroSource interface {
	CurrentMicro() uint32
}

// Countdown gives read access to a hardware countdown register.
// Value decrements from Reload to zero once per millisecond tick.
type Countdown interface {
	Value() uint32
	Reload() uint32
}

// Yielder is a cooperative yield point
type Yielder interface {
	Yield()
}

// YieldFunc adapts an ordinary function to a Yielder
type YieldFunc func()

// Yield calls f()
func (f YieldFunc) Yield() {
	f()
}

var noYield = YieldFunc(func() {})

// Clock exposes millis/micros/delay over an injected set of time sources
type Clock struct {
	millis    MilliSource
	micros    MicroSource
	countdown Countdown
	yielder   Yielder
}

// NewClock creates a clock. A nil yielder makes Delay poll without yielding.
func NewClock(millis MilliSource, micros MicroSource, countdown Countdown, yielder Yielder) *Clock {
	if millis == nil || micros == nil || countdown == nil {
		panic("core: clock requires millisecond, microsecond and countdown sources")
	}
	if yielder == nil {
		yielder = noYield
	}
	return &Clock{
		millis:    millis,
		micros:    micros,
		countdown: countdown,
		yielder:   yielder,
	}
}

// Millis returns the millisecond counter. Wraps every 2^32 ms (~49.7 days).
func (c *Clock) Millis() uint32 {
	return c.millis.CurrentMilli()
}

// Micros returns the microsecond counter. Wraps every 2^32 us (~71.6 minutes).
// Safe to call while the tick interrupt is running.
func (c *Clock) Micros() uint32 {
	return c.micros.CurrentMicro()
}

// Delay blocks for at least ms milliseconds.
// The coarse wait yields to other cooperative work; the sub-tick tail spins.
func (c *Clock) Delay(ms uint32) {
	if ms == 0 {
		return
	}

	startVAL := c.countdown.Value()
	start := c.Millis()

	// Floor for a countdown that has just reloaded
	minVAL := countdownFloor(c.countdown.Reload())
	if startVAL < minVAL {
		startVAL = minVAL
	}

	RecordTiming(EvtDelayStart, 0, start, ms, startVAL)

	var yields uint32
	for {
		c.yielder.Yield()
		yields++
		if c.Millis()-start >= ms {
			break
		}
	}

	for c.countdown.Value() > startVAL {
	}

	RecordTiming(EvtDelayDone, 0, c.Millis(), ms, yields)
}

// countdownFloor returns the smallest countdown value Delay aligns to,
// one thousandth of the reload period.
func countdownFloor(load uint32) uint32 {
	return (load + 1) / 1000
}

var defaultClock *Clock

// SetClock binds the clock used by the package level Millis, Micros and Delay
func SetClock(c *Clock) {
	defaultClock = c
}

// DefaultClock returns the bound clock, or nil
func DefaultClock() *Clock {
	return defaultClock
}

// MustClock returns the bound clock or panics if SetClock was never called
func MustClock() *Clock {
	if defaultClock == nil {
		panic("core: clock not configured")
	}
	return defaultClock
}

// Millis returns the bound clock's millisecond counter
func Millis() uint32 {
	return MustClock().Millis()
}

// Micros returns the bound clock's microsecond counter
func Micros() uint32 {
	return MustClock().Micros()
}

// Delay blocks on the bound clock for at least ms milliseconds
func Delay(ms uint32) {
	MustClock().Delay(ms)
}
