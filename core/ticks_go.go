//go:build !tinygo

package core

import "sync/atomic"

// loadTicks reads a tick word (regular Go: tests drive ticks from other goroutines)
func loadTicks(p *uint32) uint32 {
	return atomic.LoadUint32(p)
}

// storeTicks writes a tick word (regular Go implementation)
func storeTicks(p *uint32, v uint32) {
	atomic.StoreUint32(p, v)
}

// addTicks advances a tick word
func addTicks(p *uint32, delta uint32) {
	atomic.AddUint32(p, delta)
}
