// Package queue implements a fixed-capacity single-producer single-consumer
// ring buffer. The producer runs in the edge-event context, the consumer in
// the main loop; neither side ever blocks.
package queue

import "sync/atomic"

// Ring is a lock-free SPSC ring buffer. Safety relies on each side advancing
// only its own index, and only after the slot contents have been fully
// written or read. TryPush must be called from exactly one goroutine, TryPop
// from exactly one goroutine.
type Ring[T any] struct {
	// one spare slot distinguishes full from empty
	slots []T
	head  atomic.Uint32 // next write, producer-owned
	tail  atomic.Uint32 // next read, consumer-owned
}

// New creates a ring holding up to capacity elements.
func New[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}

	return &Ring[T]{slots: make([]T, capacity+1)}
}

// Capacity returns the number of elements the ring can hold.
func (r *Ring[T]) Capacity() int {
	return len(r.slots) - 1
}

// Len returns the number of queued elements. Only advisory when both sides
// are active.
func (r *Ring[T]) Len() int {
	h := int(r.head.Load())
	t := int(r.tail.Load())
	if h >= t {
		return h - t
	}

	return h + len(r.slots) - t
}

// TryPush appends v and reports success. A full ring drops v: ordering is
// preserved and an in-flight read is never overwritten.
func (r *Ring[T]) TryPush(v T) bool {
	h := r.head.Load()
	next := h + 1
	if int(next) == len(r.slots) {
		next = 0
	}
	if next == r.tail.Load() {
		return false
	}
	r.slots[h] = v
	r.head.Store(next)

	return true
}

// TryPop removes and returns the oldest element, reporting whether one was
// present.
func (r *Ring[T]) TryPop() (T, bool) {
	t := r.tail.Load()
	if t == r.head.Load() {
		var zero T
		return zero, false
	}
	v := r.slots[t]
	next := t + 1
	if int(next) == len(r.slots) {
		next = 0
	}
	r.tail.Store(next)

	return v, true
}
