// Package backing supplies memory regions for heap.Heap and lock.LockedHeap
// to manage. A bare-metal caller would point a Heap at a linker-reserved
// section directly; on a hosted OS, Region wraps either anonymous mmap'd
// pages (Anonymous) or an existing Go byte slice (FromBytes) so the rest of
// this module never has to special-case how the memory was obtained.
package backing

import "unsafe"

// Region is a contiguous block of memory this process owns, described by
// its base address and length (§4.6's "caller-supplied base pointer and
// byte length"). A Region obtained from Anonymous must be released with
// Release exactly once; a Region obtained from FromBytes holds no resource
// of its own and Release is a no-op.
type Region struct {
	base    uintptr
	length  uintptr
	release func() error
}

// Base returns the region's starting address, suitable for heap.New or
// lock.New.
func (r *Region) Base() uintptr { return r.base }

// Len returns the region's length in bytes.
func (r *Region) Len() uintptr { return r.length }

// Release returns the region's memory to the OS, if it came from one
// (Anonymous). Calling it on a Region built with FromBytes is a no-op: the
// underlying slice is owned by the caller that made it, not by this
// package.
func (r *Region) Release() error {
	if r.release == nil {
		return nil
	}

	return r.release()
}

// FromBytes wraps an existing byte slice as a Region without copying it.
// The slice must not be reallocated or have its length changed for as long
// as the Region is in use; a Go slice only ever grows by reallocating, so
// the caller must not append to buf once a Heap is built over it. Mainly
// useful for tests and for embedding a heap inside a larger, statically
// sized buffer.
func FromBytes(buf []byte) *Region {
	if len(buf) == 0 {
		return &Region{}
	}

	return &Region{
		base:   uintptr(unsafe.Pointer(&buf[0])),
		length: uintptr(len(buf)),
	}
}
