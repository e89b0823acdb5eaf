package monitor

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gowiring/core"
	"gowiring/host/heartbeat"
)

func TestRunCountsLines(t *testing.T) {
	input := strings.Join([]string{
		"=== boot ===",
		core.FormatHeartbeat(1000, 1000000),
		"[TIMING] DELAY_DONE oid=0 clock=1500 v1=10 v2=3",
		core.FormatHeartbeat(2000, 2000000),
		"[TIME] ms=oops us=1",
		core.FormatHeartbeat(3000, 3000000),
	}, "\n")

	m := New(strings.NewReader(input), heartbeat.NewChecker(clock.NewMock(), 0), zap.NewNop().Sugar())
	stats, err := m.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, Stats{Beats: 3, OtherLines: 2, Malformed: 1}, stats)
}

func TestRunStopsOnRegression(t *testing.T) {
	input := strings.Join([]string{
		core.FormatHeartbeat(5000, 5000000),
		core.FormatHeartbeat(6000, 6000000),
		core.FormatHeartbeat(10, 10000),
		core.FormatHeartbeat(1010, 1010000),
	}, "\n")

	m := New(strings.NewReader(input), heartbeat.NewChecker(clock.NewMock(), 0), zap.NewNop().Sugar())
	stats, err := m.Run(context.Background())

	assert.True(t, errors.Is(err, heartbeat.ErrRegression))
	assert.Equal(t, 3, stats.Beats)
}

func TestRunCountsDrift(t *testing.T) {
	// The mock host clock never advances, so every firmware second is drift
	input := strings.Join([]string{
		core.FormatHeartbeat(0, 0),
		core.FormatHeartbeat(1000, 1000000),
	}, "\n")

	m := New(strings.NewReader(input), heartbeat.NewChecker(clock.NewMock(), 100*time.Millisecond), zap.NewNop().Sugar())
	stats, err := m.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Drifts)
}

func TestRunHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := New(strings.NewReader(core.FormatHeartbeat(1, 1000)), heartbeat.NewChecker(clock.NewMock(), 0), zap.NewNop().Sugar())
	_, err := m.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

// runAsync starts m.Run and returns a channel delivering its error
func runAsync(ctx context.Context, m *Monitor) <-chan error {
	result := make(chan error, 1)
	go func() {
		_, err := m.Run(ctx)
		result <- err
	}()
	return result
}

func TestRunReturnsOnCancelWhileBoardSilent(t *testing.T) {
	reader, writer := io.Pipe()
	defer writer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	m := New(reader, heartbeat.NewChecker(clock.NewMock(), 0), zap.NewNop().Sugar())
	result := runAsync(ctx, m)

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-result:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run kept waiting on a silent board after cancel")
	}

	// The blocked read was released by closing the input
	_, err := writer.Write([]byte("x\n"))
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

func TestRunReportsSilence(t *testing.T) {
	reader, writer := io.Pipe()
	defer writer.Close()

	m := New(reader, heartbeat.NewChecker(clock.NewMock(), 0), zap.NewNop().Sugar())
	m.SetSilenceTimeout(clock.New(), 50*time.Millisecond)
	result := runAsync(context.Background(), m)

	// Non-heartbeat output does not count as a sign of life
	_, err := writer.Write([]byte("[TIMING] === Timing Ring Dump ===\n"))
	require.NoError(t, err)

	select {
	case err := <-result:
		assert.True(t, errors.Is(err, ErrSilent), "got %v", err)
		assert.Contains(t, err.Error(), "no heartbeat for 50ms")
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not report a silent board")
	}
}

func TestRunHeartbeatsHoldOffSilence(t *testing.T) {
	reader, writer := io.Pipe()
	defer writer.Close()

	m := New(reader, heartbeat.NewChecker(clock.NewMock(), 0), zap.NewNop().Sugar())
	m.SetSilenceTimeout(clock.New(), 200*time.Millisecond)
	result := runAsync(context.Background(), m)

	for i := uint32(1); i <= 5; i++ {
		time.Sleep(60 * time.Millisecond)
		_, err := writer.Write([]byte(core.FormatHeartbeat(i*1000, i*1000000) + "\n"))
		require.NoError(t, err)
	}
	writer.Close()

	select {
	case err := <-result:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return at end of input")
	}
}
