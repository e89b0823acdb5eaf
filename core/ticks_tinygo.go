//go:build tinygo

package core

import "runtime/volatile"

// loadTicks reads a tick word shared with the SysTick handler
func loadTicks(p *uint32) uint32 {
	return volatile.LoadUint32(p)
}

// storeTicks writes a tick word shared with the SysTick handler
func storeTicks(p *uint32, v uint32) {
	volatile.StoreUint32(p, v)
}

// addTicks advances a tick word. Only called from the handler, so the
// read-modify-write cannot race with another writer.
func addTicks(p *uint32, delta uint32) {
	volatile.StoreUint32(p, volatile.LoadUint32(p)+delta)
}
