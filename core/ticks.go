package core

// TickCounter is a free-running 32-bit counter advanced from the tick interrupt.
// Load and Store are single-word accesses, so readers never need to mask interrupts.
type TickCounter struct {
	value uint32
}

// Load returns the current count
func (t *TickCounter) Load() uint32 {
	return loadTicks(&t.value)
}

// Store replaces the count (boot, tests)
func (t *TickCounter) Store(v uint32) {
	storeTicks(&t.value, v)
}

// Tick advances the count by one, wrapping at 2^32.
// Only the interrupt handler may call Tick.
func (t *TickCounter) Tick() {
	addTicks(&t.value, 1)
}

// CurrentMilli implements MilliSource
func (t *TickCounter) CurrentMilli() uint32 {
	return t.Load()
}

// TickTimer derives millisecond and microsecond counts from a millisecond
// tick counter and the countdown register that drives it.
type TickTimer struct {
	ticks     *TickCounter
	countdown Countdown
}

// NewTickTimer creates a tick timer over ticks and countdown
func NewTickTimer(ticks *TickCounter, countdown Countdown) *TickTimer {
	return &TickTimer{ticks: ticks, countdown: countdown}
}

// CurrentMilli implements MilliSource
func (t *TickTimer) CurrentMilli() uint32 {
	return t.ticks.Load()
}

// CurrentMicro implements MicroSource.
// Reads ms, VAL, ms and retries when a tick landed in between.
func (t *TickTimer) CurrentMicro() uint32 {
	load := t.countdown.Reload()
	for {
		ms1 := t.ticks.Load()
		val := t.countdown.Value()
		ms2 := t.ticks.Load()

		if ms1 == ms2 {
			return ms1*1000 + TimerToUS(load-val, load)
		}
	}
}

// TimerFromUS converts microseconds into countdown cycles for a register
// reloading at load once per millisecond
func TimerFromUS(us, load uint32) uint32 {
	return uint32(uint64(us) * (uint64(load) + 1) / 1000)
}

// TimerToUS converts countdown cycles into microseconds for a register
// reloading at load once per millisecond
func TimerToUS(cycles, load uint32) uint32 {
	return uint32(uint64(cycles) * 1000 / (uint64(load) + 1))
}
