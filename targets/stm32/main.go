//go:build tinygo && stm32

package main

import (
	"machine"
	"runtime"

	"gowiring/core"
)

const (
	blinkMs     = 500
	heartbeatMs = 1000
)

var scheduler *core.Scheduler

func main() {
	InitDebugUART()

	if !InitSysTick(machine.CPUFrequency()) {
		core.DebugPrintln("[BOOT] SysTick reload out of range")
		return
	}

	tickTimer := core.NewTickTimer(&millisTicks, SysTick{})
	scheduler = core.NewScheduler(tickTimer)

	// Other goroutines (async debug output) run at every yield too
	yield := core.YieldFunc(func() {
		scheduler.Yield()
		runtime.Gosched()
	})
	core.SetClock(core.NewClock(tickTimer, tickTimer, SysTick{}, yield))

	core.DebugPrintln("[BOOT] gowiring cortexm load=" + core.Utoa(SysTick{}.Reload()))

	scheduler.Add(&core.Timer{WakeTime: core.Millis() + heartbeatMs, Handler: heartbeat})
	if InitAccel() {
		scheduler.Add(&core.Timer{WakeTime: core.Millis() + accelPeriodMs, Handler: sampleAccel})
	} else {
		core.DebugPrintln("[BOOT] no ADXL345 on I2C0")
	}

	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})

	for {
		led.High()
		core.Delay(blinkMs)
		led.Low()
		core.Delay(blinkMs)
	}
}

// heartbeat reports both counters for the host monitor
func heartbeat(t *core.Timer) uint8 {
	core.DebugAsync(core.FormatHeartbeat(core.Millis(), core.Micros()))
	t.WakeTime += heartbeatMs
	return core.SF_RESCHEDULE
}
