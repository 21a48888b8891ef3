package dht22

import (
	"runtime"
	"sync/atomic"
)

// spinLock guards the capture session. The edge handler runs on the GPIO
// event delivery goroutine and must never park, so the guard busy-waits
// instead of sleeping. Critical sections under it are a few comparisons and
// an array store, never a syscall or a sleep.
type spinLock struct {
	state atomic.Int32
}

func (l *spinLock) lock() {
	for !l.state.CompareAndSwap(0, 1) {
		runtime.Gosched()
	}
}

func (l *spinLock) unlock() {
	l.state.Store(0)
}
