package capture

import (
	"sync"
	"sync/atomic"
)

// clipBuffer collects samples written by a device callback. The callback must
// never block, so a write that finds the lock busy drops its batch.
type clipBuffer struct {
	mu      sync.Mutex
	samples []float32
	sealed  bool
	dropped atomic.Int64
}

func newClipBuffer(capacity int) *clipBuffer {
	if capacity < 0 {
		capacity = 0
	}
	return &clipBuffer{samples: make([]float32, 0, capacity)}
}

// write appends through fill while holding the lock. It returns false if the
// batch was dropped or the buffer is already sealed.
func (b *clipBuffer) write(fill func(dst []float32) []float32) bool {
	if !b.mu.TryLock() {
		b.dropped.Add(1)
		return false
	}
	defer b.mu.Unlock()

	if b.sealed {
		return false
	}
	b.samples = fill(b.samples)
	return true
}

// seal stops further writes and hands back the collected samples
func (b *clipBuffer) seal() []float32 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.sealed = true
	return b.samples
}

// Dropped returns how many batches were discarded because the lock was busy
func (b *clipBuffer) Dropped() int64 {
	return b.dropped.Load()
}
