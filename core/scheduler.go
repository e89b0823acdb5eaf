package core

// Timer represents a scheduled event. WakeTime is in milliseconds.
type Timer struct {
	WakeTime uint32
	Handler  func(*Timer) uint8
	Next     *Timer
}

const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1
)

// Scheduler runs timers cooperatively. Its Yield method is the yield hook
// handed to Clock, so pending timers fire while Delay waits.
type Scheduler struct {
	millis      MilliSource
	timerList   *Timer
	dispatching bool
}

// NewScheduler creates a scheduler reading time from millis
func NewScheduler(millis MilliSource) *Scheduler {
	return &Scheduler{millis: millis}
}

// timerIsBefore reports whether a is before b, tolerating counter wraparound
func timerIsBefore(a, b uint32) bool {
	return int32(a-b) < 0
}

// Add schedules a timer
func (s *Scheduler) Add(t *Timer) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	s.insertTimer(t)
}

// insertTimer inserts a timer in sorted order by WakeTime
func (s *Scheduler) insertTimer(t *Timer) {
	if s.timerList == nil || timerIsBefore(t.WakeTime, s.timerList.WakeTime) {
		t.Next = s.timerList
		s.timerList = t
		return
	}

	current := s.timerList
	for current.Next != nil && !timerIsBefore(t.WakeTime, current.Next.WakeTime) {
		current = current.Next
	}

	t.Next = current.Next
	current.Next = t
}

// Yield processes due timers. Handlers run with interrupts enabled and may
// call Delay; a nested Yield from inside a handler returns immediately.
func (s *Scheduler) Yield() {
	if s.dispatching {
		return
	}
	s.dispatching = true
	defer func() { s.dispatching = false }()

	now := s.millis.CurrentMilli()

	// Rescheduled timers are held until the pass ends so a handler that
	// keeps its old WakeTime cannot spin this loop forever
	var resched *Timer
	for {
		timer := s.popDue(now)
		if timer == nil {
			break
		}

		RecordTiming(EvtTimerFire, 0, now, timer.WakeTime, 0)

		if timer.Handler(timer) == SF_RESCHEDULE {
			timer.Next = resched
			resched = timer
		}
	}

	if resched == nil {
		return
	}

	state := disableInterrupts()
	defer restoreInterrupts(state)
	for resched != nil {
		timer := resched
		resched = timer.Next
		timer.Next = nil
		s.insertTimer(timer)
	}
}

// popDue unlinks the head timer if its WakeTime <= now
func (s *Scheduler) popDue(now uint32) *Timer {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	timer := s.timerList
	if timer == nil || timerIsBefore(now, timer.WakeTime) {
		return nil
	}
	s.timerList = timer.Next
	timer.Next = nil
	return timer
}

// Pending returns the number of queued timers
func (s *Scheduler) Pending() int {
	n := 0
	for t := s.timerList; t != nil; t = t.Next {
		n++
	}
	return n
}
