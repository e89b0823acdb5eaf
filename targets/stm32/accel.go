//go:build tinygo && stm32

package main

import (
	"machine"

	"tinygo.org/x/drivers/adxl345"

	"gowiring/core"
)

const (
	accelPeriodMs = 100
	accelSettleMs = 10 // Time for a new output sample after a rate change
)

var accel *adxl345.Device

// InitAccel configures an ADXL345 on I2C0 and returns false if none answers
func InitAccel() bool {
	bus := machine.I2C0
	bus.Configure(machine.I2CConfig{Frequency: 400 * machine.KHz})

	sensor := adxl345.New(bus)
	sensor.Configure()
	sensor.SetRate(adxl345.RATE_100HZ)
	sensor.SetRange(adxl345.RANGE_2G)

	// Let the first conversion at the new rate complete
	core.Delay(accelSettleMs)

	if _, _, _, err := sensor.ReadAcceleration(); err != nil {
		return false
	}
	accel = &sensor
	return true
}

// sampleAccel is a scheduler handler reporting one reading per period
func sampleAccel(t *core.Timer) uint8 {
	x, y, z, err := accel.ReadAcceleration()
	if err != nil {
		core.DebugAsync("[ACCEL] read failed: " + err.Error())
	} else {
		core.DebugAsync("[ACCEL] ms=" + core.Utoa(t.WakeTime) +
			" x=" + core.Itoa(int(x)) + " y=" + core.Itoa(int(y)) + " z=" + core.Itoa(int(z)))
	}
	t.WakeTime += accelPeriodMs
	return core.SF_RESCHEDULE
}
