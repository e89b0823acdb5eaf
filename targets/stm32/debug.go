//go:build tinygo && stm32

package main

import (
	"machine"

	"gowiring/core"
)

var debugUART *machine.UART

// InitDebugUART routes core debug output to the board's default UART at 115200
func InitDebugUART() {
	debugUART = machine.DefaultUART
	debugUART.Configure(machine.UARTConfig{BaudRate: 115200})

	core.SetDebugWriter(func(s string) {
		debugUART.Write([]byte(s))
		debugUART.Write([]byte("\r\n"))
	})
	core.SetDebugEnabled(true)
	core.InitAsyncDebug()
}
