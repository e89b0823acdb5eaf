// Package monitor follows a board's debug stream and validates its
// heartbeat reports.
package monitor

import (
	"bufio"
	"context"
	"io"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"gowiring/host/heartbeat"
)

// ErrSilent is returned when no heartbeat arrives within the silence timeout
var ErrSilent = errors.New("board silent")

// Stats summarises a monitoring run
type Stats struct {
	Beats      int
	OtherLines int
	Malformed  int
	Drifts     int
}

// Monitor reads lines from a board and feeds heartbeats to a checker
type Monitor struct {
	input   io.Reader
	checker *heartbeat.Checker
	logger  *zap.SugaredLogger

	clk     clock.Clock
	silence time.Duration
}

// New creates a monitor over input
func New(input io.Reader, checker *heartbeat.Checker, logger *zap.SugaredLogger) *Monitor {
	return &Monitor{input: input, checker: checker, logger: logger, clk: clock.New()}
}

// SetSilenceTimeout makes Run fail with ErrSilent when no heartbeat arrives
// for d, measured on clk. d <= 0 waits forever.
func (m *Monitor) SetSilenceTimeout(clk clock.Clock, d time.Duration) {
	m.clk = clk
	m.silence = d
}

// readLines scans input until it ends or done is closed.
// The scan error (nil at EOF) is delivered on errc.
func readLines(input io.Reader, lines chan<- string, errc chan<- error, done <-chan struct{}) {
	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		select {
		case lines <- scanner.Text():
		case <-done:
			return
		}
	}
	errc <- scanner.Err()
}

// Run processes lines until input ends, ctx is done, a counter regresses or
// the board stays silent past the silence timeout. When ctx ends and input
// is an io.Closer it is closed so a blocked read returns.
// Drift is logged and counted but does not stop the run.
func (m *Monitor) Run(ctx context.Context) (Stats, error) {
	var stats Stats

	lines := make(chan string)
	errc := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go readLines(m.input, lines, errc, done)

	var silent <-chan time.Time
	var timer *clock.Timer
	if m.silence > 0 {
		timer = m.clk.Timer(m.silence)
		defer timer.Stop()
		silent = timer.C
	}

	for {
		if err := ctx.Err(); err != nil {
			m.closeInput()
			return stats, err
		}

		var line string
		select {
		case <-ctx.Done():
			m.closeInput()
			return stats, ctx.Err()
		case <-silent:
			return stats, errors.Wrapf(ErrSilent, "no heartbeat for %s", m.silence)
		case err := <-errc:
			if err != nil {
				return stats, errors.Wrap(err, "read failed")
			}
			return stats, nil
		case line = <-lines:
		}

		beat, err := heartbeat.Parse(line)
		switch {
		case errors.Is(err, heartbeat.ErrNotHeartbeat):
			stats.OtherLines++
			m.logger.Debugw("board", "line", line)
			continue
		case err != nil:
			stats.Malformed++
			m.logger.Warnw("bad heartbeat", "error", err)
			continue
		}

		stats.Beats++
		if timer != nil {
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(m.silence)
		}

		report, err := m.checker.Observe(beat)
		switch {
		case errors.Is(err, heartbeat.ErrDrift):
			stats.Drifts++
			m.logger.Warnw("drift", "ms", beat.Millis, "drift", report.Drift, "error", err)
		case err != nil:
			return stats, errors.Wrapf(err, "heartbeat %d", stats.Beats)
		default:
			m.logger.Infow("heartbeat",
				"ms", beat.Millis,
				"us", beat.Micros,
				"delta_ms", report.DeltaMillis,
				"drift", report.Drift)
		}
	}
}

func (m *Monitor) closeInput() {
	if closer, ok := m.input.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			m.logger.Debugw("close input", "error", err)
		}
	}
}
