package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// tickingCountdown advances ticks on selected reads to simulate the
// SysTick interrupt landing between two counter loads
type tickingCountdown struct {
	load   uint32
	value  uint32
	ticks  *TickCounter
	tickOn map[int]bool
	reads  int
}

func (c *tickingCountdown) Value() uint32 {
	c.reads++
	if c.tickOn[c.reads] {
		c.ticks.Tick()
		c.value = c.load
	}
	return c.value
}

func (c *tickingCountdown) Reload() uint32 {
	return c.load
}

func TestTickCounterWraps(t *testing.T) {
	var ticks TickCounter
	ticks.Store(0xFFFFFFFF)
	ticks.Tick()
	assert.Equal(t, uint32(0), ticks.Load())
	assert.Equal(t, uint32(0), ticks.CurrentMilli())
}

func TestTickTimerMicros(t *testing.T) {
	testCases := []struct {
		ms    uint32
		load  uint32
		value uint32
		want  uint32
	}{
		{0, 999, 999, 0},
		{7, 999, 499, 7500},
		{7, 999, 0, 7999},
		{1, 47999, 23999, 1500},
		{4294967, 999, 704, 4294967295},
		{4294968, 999, 999, 704},
	}

	for _, tc := range testCases {
		ticks := &TickCounter{}
		ticks.Store(tc.ms)
		timer := NewTickTimer(ticks, &tickingCountdown{load: tc.load, value: tc.value})

		assert.Equal(t, tc.want, timer.CurrentMicro(), "ms=%d val=%d", tc.ms, tc.value)
		assert.Equal(t, tc.ms, timer.CurrentMilli())
	}
}

func TestTickTimerMicrosRetriesAcrossTick(t *testing.T) {
	ticks := &TickCounter{}
	ticks.Store(41)
	// The first register read coincides with a tick: 41 -> 42
	countdown := &tickingCountdown{load: 999, value: 0, ticks: ticks, tickOn: map[int]bool{1: true}}
	timer := NewTickTimer(ticks, countdown)

	// Second pass sees ms=42 with a freshly reloaded register
	assert.Equal(t, uint32(42000), timer.CurrentMicro())
	assert.Equal(t, 2, countdown.reads)
}

func TestTimerConversions(t *testing.T) {
	assert.Equal(t, uint32(12000), TimerFromUS(1000, 11999))
	assert.Equal(t, uint32(12), TimerFromUS(1, 11999))
	assert.Equal(t, uint32(1000), TimerToUS(12000, 11999))
	assert.Equal(t, uint32(500), TimerToUS(500, 999))

	for _, us := range []uint32{0, 1, 250, 999} {
		assert.Equal(t, us, TimerToUS(TimerFromUS(us, 47999), 47999))
	}
}
