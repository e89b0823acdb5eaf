package core

// DebugWriter sends one line of text to the board's console (usually a UART)
type DebugWriter func(string)

// TimingEvent is one entry of the timing ring. Value1 and Value2 depend on
// EventType; see the Evt* constants.
type TimingEvent struct {
	EventType uint8
	OID       uint8  // timer or peripheral index, 0 for Delay
	Clock     uint32 // Millis when the event was recorded
	Value1    uint32
	Value2    uint32
}

// Timing event types. Zero marks an unused ring slot.
const (
	EvtDelayStart = 1 // v1: requested ms, v2: tail threshold (clamped startVAL)
	EvtDelayDone  = 2 // v1: requested ms, v2: yields made while waiting
	EvtTimerFire  = 3 // v1: wake time the timer was queued for
)

// TimingRingSize is how many of the most recent events survive for DumpTimingRing
const TimingRingSize = 32

const debugQueueLen = 16

var (
	debugOut DebugWriter = func(string) {}
	debugOn  bool

	// The ring is written from Delay and Scheduler.Yield, so recording must
	// never block or allocate.
	ring     [TimingRingSize]TimingEvent
	ringNext uint8
	ringOn   = true

	// debugQueue is nil until InitAsyncDebug
	debugQueue chan string
)

// SetDebugWriter routes debug output, e.g. to machine.DefaultUART
func SetDebugWriter(writer DebugWriter) {
	debugOut = writer
}

// SetDebugEnabled gates DebugPrintln. It starts off so that a board without
// a console attached spends no time formatting lines.
func SetDebugEnabled(enabled bool) {
	debugOn = enabled
}

func IsDebugEnabled() bool {
	return debugOn
}

// SetTimingEnabled turns recording into the timing ring on or off
func SetTimingEnabled(enabled bool) {
	ringOn = enabled
}

// InitAsyncDebug starts a goroutine that writes queued DebugAsync lines.
// The goroutine only runs when the yield hook gives it a turn, so UART
// writes happen between timer dispatches instead of inside them.
func InitAsyncDebug() {
	debugQueue = make(chan string, debugQueueLen)
	go drainDebugQueue()
}

func drainDebugQueue() {
	for line := range debugQueue {
		if debugOut != nil {
			debugOut(line)
		}
	}
}

// DebugPrintln writes msg synchronously when debug output is enabled.
// Use it at boot; timer handlers should use DebugAsync.
func DebugPrintln(msg string) {
	if debugOn && debugOut != nil {
		debugOut(msg)
	}
}

// DebugAsync queues msg for the writer goroutine. The line is lost when the
// queue is full or InitAsyncDebug was never called.
func DebugAsync(msg string) {
	if debugQueue == nil {
		return
	}
	select {
	case debugQueue <- msg:
	default:
	}
}

// RecordTiming stores an event, overwriting the oldest once the ring is full
func RecordTiming(eventType, oid uint8, clock, value1, value2 uint32) {
	if !ringOn {
		return
	}
	ring[ringNext] = TimingEvent{
		EventType: eventType,
		OID:       oid,
		Clock:     clock,
		Value1:    value1,
		Value2:    value2,
	}
	ringNext = (ringNext + 1) % TimingRingSize
}

// TimingEvents copies the recorded events out of the ring, oldest first
func TimingEvents() []TimingEvent {
	events := make([]TimingEvent, 0, TimingRingSize)
	for i := uint8(0); i < TimingRingSize; i++ {
		evt := ring[(ringNext+i)%TimingRingSize]
		if evt.EventType != 0 {
			events = append(events, evt)
		}
	}
	return events
}

func eventName(eventType uint8) string {
	switch eventType {
	case EvtDelayStart:
		return "DELAY_START"
	case EvtDelayDone:
		return "DELAY_DONE"
	case EvtTimerFire:
		return "TIMER_FIRE"
	default:
		return "UNKNOWN"
	}
}

// DumpTimingRing prints the ring through the debug writer, regardless of
// SetDebugEnabled. A DELAY_START with no matching DELAY_DONE at the end of
// the dump points at a Delay that never returned.
func DumpTimingRing() {
	if debugOut == nil {
		return
	}

	debugOut("[TIMING] === Timing Ring Dump ===")
	for _, evt := range TimingEvents() {
		debugOut("[TIMING] " + eventName(evt.EventType) +
			" oid=" + Itoa(int(evt.OID)) +
			" clock=" + Utoa(evt.Clock) +
			" v1=" + Utoa(evt.Value1) +
			" v2=" + Utoa(evt.Value2))
	}
	debugOut("[TIMING] === End Dump ===")
}

// ClearTimingRing forgets all recorded events
func ClearTimingRing() {
	ring = [TimingRingSize]TimingEvent{}
	ringNext = 0
}

// HeartbeatPrefix starts every heartbeat line. The host parser expects it to
// be followed by a single space.
const HeartbeatPrefix = "[TIME]"

// FormatHeartbeat renders the periodic time report read by the host monitor
func FormatHeartbeat(ms, us uint32) string {
	return HeartbeatPrefix + " ms=" + Utoa(ms) + " us=" + Utoa(us)
}
