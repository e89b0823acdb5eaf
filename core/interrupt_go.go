//go:build !tinygo

package core

// State stands in for the saved interrupt mask on regular Go
type State uintptr

// disableInterrupts is a no-op off target; host tests have no interrupts to mask
func disableInterrupts() State {
	return 0
}

// restoreInterrupts is a no-op off target
func restoreInterrupts(state State) {}
