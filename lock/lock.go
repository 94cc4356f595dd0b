// Package lock provides LockedHeap, a sync.Mutex wrapper around heap.Heap
// for callers that share one heap across goroutines (§5). heap.Heap itself
// stays single-threaded and allocation-free on its own hot path; this
// package is the one place synchronization is paid for, matching how the
// host project's SystemAllocatorImpl keeps its own mutex at the façade
// rather than inside the pools it wraps.
package lock

import (
	"sync"

	"github.com/orizon-lang/orizon-heap/heap"
	"github.com/orizon-lang/orizon-heap/hole"
)

// LockedHeap serializes access to an embedded heap.Heap behind a
// sync.Mutex. The zero value is not usable; construct one with New.
type LockedHeap struct {
	mu sync.Mutex
	h  heap.Heap
}

// New wraps a freshly constructed Heap spanning [base, base+length) (§4.6).
func New(base, length uintptr) *LockedHeap {
	return &LockedHeap{h: heap.New(base, length)}
}

// Allocate acquires the lock, forwards to the wrapped Heap, and releases it
// before returning.
func (l *LockedHeap) Allocate(req hole.Layout) (ptr uintptr, effective hole.Layout, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.h.Allocate(req)
}

// Deallocate acquires the lock, forwards to the wrapped Heap, and releases
// it before returning. It panics under the same conditions heap.Heap.
// Deallocate does; the panic propagates to the caller with the lock already
// released, since defer runs before the panic leaves this frame.
func (l *LockedHeap) Deallocate(ptr uintptr, req hole.Layout) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.h.Deallocate(ptr, req)
}

// Extend acquires the lock and forwards to the wrapped Heap's Extend (§4.6).
func (l *LockedHeap) Extend(n uintptr) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.h.Extend(n)
}

// Stats acquires the lock and returns a snapshot of the wrapped Heap.
func (l *LockedHeap) Stats() heap.Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.h.Stats()
}
