// Package main is the heartbeat monitor for gowiring boards.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"gowiring/host/heartbeat"
	"gowiring/host/monitor"
	"gowiring/host/serial"
)

const (
	flagDevice   = "device"
	flagBaud     = "baud"
	flagMaxDrift = "max-drift"
	flagSilence  = "silence"
	flagDebug    = "debug"
)

func main() {
	var logger *zap.SugaredLogger

	app := &cli.App{
		Name:  "gowiring-monitor",
		Usage: "watch a board's heartbeat and check its millis/micros counters",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagDevice,
				Aliases: []string{"d"},
				Value:   "/dev/ttyACM0",
				Usage:   "serial device, or - to read stdin",
			},
			&cli.IntFlag{
				Name:  flagBaud,
				Value: serial.DefaultConfig("").Baud,
				Usage: "baud rate",
			},
			&cli.DurationFlag{
				Name:  flagMaxDrift,
				Value: 50 * time.Millisecond,
				Usage: "maximum firmware/host disagreement per heartbeat (0 disables)",
			},
			&cli.DurationFlag{
				Name:  flagSilence,
				Value: 5 * time.Second,
				Usage: "fail when no heartbeat arrives for this long (0 waits forever)",
			},
			&cli.BoolFlag{
				Name:  flagDebug,
				Usage: "log every line the board prints",
			},
		},
		Before: func(c *cli.Context) error {
			cfg := zap.NewDevelopmentConfig()
			if !c.Bool(flagDebug) {
				cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
			}
			l, err := cfg.Build()
			if err != nil {
				return err
			}
			logger = l.Sugar()
			return nil
		},
		After: func(c *cli.Context) error {
			if logger != nil {
				//nolint:errcheck
				logger.Sync()
			}
			return nil
		},
		Action: func(c *cli.Context) error {
			input, err := openInput(c)
			if err != nil {
				return err
			}
			defer input.Close()

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
			defer stop()

			hostClock := clock.New()
			m := monitor.New(input, heartbeat.NewChecker(hostClock, c.Duration(flagMaxDrift)), logger)
			m.SetSilenceTimeout(hostClock, c.Duration(flagSilence))
			stats, err := m.Run(ctx)
			logger.Infow("done",
				"beats", stats.Beats,
				"other", stats.OtherLines,
				"malformed", stats.Malformed,
				"drifts", stats.Drifts)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func openInput(c *cli.Context) (io.ReadCloser, error) {
	device := c.String(flagDevice)
	if device == "-" {
		return io.NopCloser(os.Stdin), nil
	}

	cfg := serial.DefaultConfig(device)
	cfg.Baud = c.Int(flagBaud)
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := port.Flush(); err != nil {
		port.Close()
		return nil, errors.Wrap(err, "flush failed")
	}
	return port, nil
}
