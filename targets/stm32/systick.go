//go:build tinygo && stm32

package main

import (
	"runtime/volatile"
	"unsafe"

	"gowiring/core"
)

// Cortex-M SysTick memory map
const (
	sysTickBase = 0xE000E010
	sysTickCSR  = sysTickBase + 0x00 // Control and status
	sysTickRVR  = sysTickBase + 0x04 // Reload value (24-bit)
	sysTickCVR  = sysTickBase + 0x08 // Current value

	csrEnable    = 1 << 0
	csrTickInt   = 1 << 1
	csrClkSource = 1 << 2 // Processor clock

	maxReload = 0x00FFFFFF
)

var (
	systCSR = (*volatile.Register32)(unsafe.Pointer(uintptr(sysTickCSR)))
	systRVR = (*volatile.Register32)(unsafe.Pointer(uintptr(sysTickRVR)))
	systCVR = (*volatile.Register32)(unsafe.Pointer(uintptr(sysTickCVR)))
)

// millisTicks is advanced by SysTick_Handler once per millisecond
var millisTicks core.TickCounter

// SysTick gives the timer facade read access to the countdown register
type SysTick struct{}

// Value returns the current countdown value
func (SysTick) Value() uint32 {
	return systCVR.Get()
}

// Reload returns the programmed reload value
func (SysTick) Reload() uint32 {
	return systRVR.Get()
}

// InitSysTick programs SysTick to interrupt once per millisecond at cpuHz
func InitSysTick(cpuHz uint32) bool {
	load := cpuHz/core.TickHz - 1
	if load > maxReload {
		return false
	}

	systCSR.Set(0)
	systRVR.Set(load)
	systCVR.Set(0) // Any write clears the counter
	millisTicks.Store(0)
	systCSR.Set(csrEnable | csrTickInt | csrClkSource)
	return true
}

//export SysTick_Handler
func sysTickHandler() {
	millisTicks.Tick()
}
