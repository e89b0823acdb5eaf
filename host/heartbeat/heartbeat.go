// Package heartbeat parses the firmware's periodic "[TIME] ms=<n> us=<n>"
// lines and checks them against the host clock.
package heartbeat

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"gowiring/core"
)

var (
	// ErrNotHeartbeat is returned for lines without the heartbeat prefix
	ErrNotHeartbeat = errors.New("not a heartbeat line")
	// ErrMalformed is returned for heartbeat lines that cannot be decoded
	ErrMalformed = errors.New("malformed heartbeat")
	// ErrRegression is returned when a counter runs backwards
	ErrRegression = errors.New("counter went backwards")
	// ErrDrift is returned when firmware and host elapsed time disagree
	ErrDrift = errors.New("clock drift exceeded")
)

// Beat is one heartbeat report
type Beat struct {
	Millis uint32
	Micros uint32
}

// Parse decodes a heartbeat line. The prefix must be followed by a space,
// and exactly the ms and us fields must be present, each once.
func Parse(line string) (Beat, error) {
	line = strings.TrimSpace(line)
	rest, ok := strings.CutPrefix(line, core.HeartbeatPrefix+" ")
	if !ok {
		return Beat{}, ErrNotHeartbeat
	}

	var beat Beat
	var haveMs, haveUs bool
	for _, field := range strings.Fields(rest) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			return Beat{}, errors.Wrapf(ErrMalformed, "field %q", field)
		}
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return Beat{}, errors.Wrapf(ErrMalformed, "field %q: %v", field, err)
		}
		switch {
		case key == "ms" && !haveMs:
			beat.Millis, haveMs = uint32(n), true
		case key == "us" && !haveUs:
			beat.Micros, haveUs = uint32(n), true
		default:
			return Beat{}, errors.Wrapf(ErrMalformed, "unexpected field %q", field)
		}
	}
	if !haveMs || !haveUs {
		return Beat{}, errors.Wrapf(ErrMalformed, "line %q", line)
	}
	return beat, nil
}

// Report describes one observed beat relative to the previous one
type Report struct {
	Beat
	DeltaMillis uint32
	DeltaMicros uint32
	HostElapsed time.Duration
	Drift       time.Duration
	First       bool
}

// Checker tracks consecutive beats
type Checker struct {
	clk      clock.Clock
	maxDrift time.Duration

	last   Beat
	lastAt time.Time
	have   bool
}

// NewChecker creates a checker. maxDrift <= 0 disables the drift check.
func NewChecker(clk clock.Clock, maxDrift time.Duration) *Checker {
	return &Checker{clk: clk, maxDrift: maxDrift}
}

// wentBackwards reports whether next is behind prev modulo 2^32
func wentBackwards(prev, next uint32) bool {
	return next-prev > math.MaxUint32/2
}

// Observe records a beat. A regression resets the baseline to the new beat
// so the monitor can continue after a firmware reset.
func (c *Checker) Observe(b Beat) (Report, error) {
	now := c.clk.Now()
	report := Report{Beat: b}

	if !c.have {
		c.last, c.lastAt, c.have = b, now, true
		report.First = true
		return report, nil
	}

	prev := c.last
	report.DeltaMillis = b.Millis - prev.Millis
	report.DeltaMicros = b.Micros - prev.Micros
	report.HostElapsed = now.Sub(c.lastAt)
	report.Drift = time.Duration(report.DeltaMillis)*time.Millisecond - report.HostElapsed
	c.last, c.lastAt = b, now

	if wentBackwards(prev.Millis, b.Millis) {
		return report, errors.Wrapf(ErrRegression, "ms %d -> %d", prev.Millis, b.Millis)
	}
	if wentBackwards(prev.Micros, b.Micros) {
		return report, errors.Wrapf(ErrRegression, "us %d -> %d", prev.Micros, b.Micros)
	}
	if c.maxDrift > 0 && (report.Drift > c.maxDrift || report.Drift < -c.maxDrift) {
		return report, errors.Wrapf(ErrDrift, "firmware %dms, host %s", report.DeltaMillis, report.HostElapsed)
	}
	return report, nil
}
