package index

import "sync/atomic"

// buildLock provides non-blocking lock semantics using atomic operations.
// It lets a rebuild request fail fast while another rebuild is running,
// without blocking readers waiting on the index mutex.
type buildLock struct {
	state atomic.Int32 // 0 = unlocked, 1 = locked
}

// TryAcquire attempts to acquire the lock without blocking.
func (l *buildLock) TryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Release releases the lock.
// Must only be called by the goroutine that successfully acquired the lock.
func (l *buildLock) Release() {
	l.state.Store(0)
}
