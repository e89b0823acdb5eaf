package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureDebug(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	t.Cleanup(func() {
		SetDebugWriter(func(s string) {})
		SetDebugEnabled(false)
	})
	return &lines
}

func TestDebugPrintlnRespectsEnable(t *testing.T) {
	lines := captureDebug(t)

	DebugPrintln("hidden")
	SetDebugEnabled(true)
	DebugPrintln("shown")

	assert.Equal(t, []string{"shown"}, *lines)
	assert.True(t, IsDebugEnabled())
}

func TestTimingRingKeepsNewest(t *testing.T) {
	ClearTimingRing()
	t.Cleanup(ClearTimingRing)

	for i := uint32(0); i < TimingRingSize+5; i++ {
		RecordTiming(EvtTimerFire, 0, i, i, 0)
	}

	events := TimingEvents()
	require.Len(t, events, TimingRingSize)
	assert.Equal(t, uint32(5), events[0].Clock)
	assert.Equal(t, uint32(TimingRingSize+4), events[len(events)-1].Clock)
}

func TestTimingRingDisabled(t *testing.T) {
	ClearTimingRing()
	SetTimingEnabled(false)
	t.Cleanup(func() { SetTimingEnabled(true) })

	RecordTiming(EvtDelayStart, 0, 1, 2, 3)
	assert.Empty(t, TimingEvents())
}

func TestDumpTimingRing(t *testing.T) {
	lines := captureDebug(t)
	ClearTimingRing()

	RecordTiming(EvtDelayStart, 0, 100, 10, 500)
	RecordTiming(EvtDelayDone, 0, 110, 10, 3)
	DumpTimingRing()

	require.Len(t, *lines, 4)
	assert.Equal(t, "[TIMING] DELAY_START oid=0 clock=100 v1=10 v2=500", (*lines)[1])
	assert.Equal(t, "[TIMING] DELAY_DONE oid=0 clock=110 v1=10 v2=3", (*lines)[2])
	assert.True(t, strings.HasSuffix((*lines)[3], "End Dump ==="))
}

func TestDebugAsyncDropsWhenFull(t *testing.T) {
	prev := debugQueue
	debugQueue = make(chan string, 2)
	t.Cleanup(func() { debugQueue = prev })

	DebugAsync("a")
	DebugAsync("b")
	DebugAsync("c")

	assert.Equal(t, 2, len(debugQueue))
	assert.Equal(t, "a", <-debugQueue)
	assert.Equal(t, "b", <-debugQueue)
}

func TestFormatHeartbeat(t *testing.T) {
	assert.Equal(t, "[TIME] ms=0 us=0", FormatHeartbeat(0, 0))
	assert.Equal(t, "[TIME] ms=4294967295 us=123456", FormatHeartbeat(4294967295, 123456))
}

func TestItoa(t *testing.T) {
	testCases := map[int]string{
		0:      "0",
		7:      "7",
		-7:     "-7",
		1000:   "1000",
		-65535: "-65535",
	}
	for n, want := range testCases {
		assert.Equal(t, want, Itoa(n))
	}
	assert.Equal(t, "4294967295", Utoa(4294967295))
}

func TestDebugAsyncBeforeInitIsDropped(t *testing.T) {
	prev := debugQueue
	debugQueue = nil
	t.Cleanup(func() { debugQueue = prev })

	lines := captureDebug(t)
	SetDebugEnabled(true)
	assert.NotPanics(t, func() { DebugAsync("lost") })
	assert.Empty(t, *lines)
}
