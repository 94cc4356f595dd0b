// Package heap provides the thin façade described in §4.7: it tracks the
// bounds and used-byte accounting of a managed memory region and forwards
// allocation and deallocation to the hole.List free-list engine.
//
// Heap itself performs no synchronization; concurrent use requires external
// serialization, either by the caller or via lock.LockedHeap.
package heap

import (
	"fmt"

	"github.com/orizon-lang/orizon-heap/align"
	"github.com/orizon-lang/orizon-heap/hole"
)

// Heap is a fixed-base allocator over a single contiguous memory region
// supplied at construction. The zero value is Empty() (§4.7).
type Heap struct {
	bottom uintptr
	size   uintptr
	used   uintptr
	holes  hole.List
}

// Empty returns the zero-state heap: no region installed, free list empty.
func Empty() Heap {
	return Heap{}
}

// New installs the initial hole spanning [base, base+length) and returns a
// ready-to-use Heap, per §4.6. Preconditions (the caller's responsibility,
// matching §6): [base, base+length) is valid and exclusively owned by this
// Heap, and length >= hole.MinSize once base is rounded up to header
// alignment.
func New(base, length uintptr) Heap {
	h := Heap{bottom: base, size: length}
	h.holes.Init(base, length)

	return h
}

// Allocate normalizes req to the allocator's minimum size/alignment,
// forwards it to the free list, and on success records the normalized size
// against used (§4.7). It returns hole.ErrOutOfMemory, unchanged, if no
// hole fits.
func (h *Heap) Allocate(req hole.Layout) (ptr uintptr, effective hole.Layout, err error) {
	ptr, effective, err = h.holes.AllocateFirstFit(req)
	if err != nil {
		return 0, hole.Layout{}, err
	}

	h.used += effective.Size

	return ptr, effective, nil
}

// Deallocate normalizes req, forwards ptr to the free list for reinsertion
// and coalescing, and subtracts the normalized size from used (§4.7).
//
// ptr must have been returned by a previous Allocate on this Heap with an
// equal normalized layout and must not have been freed since (§6). Deallocate
// panics with *hole.InvalidFreeError if ptr falls outside the managed
// region — the one bounds check that belongs at the façade, since hole.List
// itself has no notion of bottom/top — and lets hole.List's own
// double-free/overlap checks panic through otherwise.
func (h *Heap) Deallocate(ptr uintptr, req hole.Layout) {
	if ptr < h.bottom || ptr >= h.Top() {
		panic(hole.NewInvalidFreeError(ptr, req.Size,
			fmt.Sprintf("pointer is outside the managed region [0x%x, 0x%x)", h.bottom, h.Top())))
	}

	norm := req.Normalize()
	h.holes.Deallocate(ptr, req)
	h.used -= norm.Size
}

// Extend grows the managed region by n bytes, per §4.6: the caller
// guarantees [Top(), Top()+n) is valid and unused memory, typically
// immediately following a larger backing allocation than was initially
// installed. It is equivalent to deallocating a synthetic block at the
// current top, which coalesces with any trailing hole, followed by growing
// size.
//
// Top() is not guaranteed to already sit on a HeaderAlign boundary — the
// managed region's raw length need not be a multiple of it, the same slack
// §8 property 4 accounts for at the bottom. Extend absorbs that slack at
// the new tail exactly as Init absorbs it at the head: it rounds Top() up
// to HeaderAlign and folds the skipped bytes into size without handing them
// to the free list, so every hole header this package ever writes keeps
// invariant 1.
//
// n must cover the alignment skip plus at least hole.MinSize of usable
// space; smaller extensions must be accumulated by the caller until they
// clear that threshold.
func (h *Heap) Extend(n uintptr) {
	rawTop := h.Top()

	alignedTop, ok := align.Up(rawTop, hole.HeaderAlign)
	if !ok {
		panic(hole.NewInvalidLayoutError(hole.Layout{Size: n}, "extended top overflows the address space"))
	}

	skip := alignedTop - rawTop
	if n < skip || n-skip < hole.MinSize {
		panic(hole.NewInvalidLayoutError(hole.Layout{Size: n}, "extend amount is smaller than the minimum hole size once alignment skip is removed"))
	}

	usable := n - skip
	h.holes.Grow(alignedTop, usable)
	h.size += n
}

// Bottom returns the base address of the managed region.
func (h *Heap) Bottom() uintptr { return h.bottom }

// Size returns the total number of bytes in the managed region.
func (h *Heap) Size() uintptr { return h.size }

// Top returns the exclusive upper bound of the managed region.
func (h *Heap) Top() uintptr { return h.bottom + h.size }

// Used returns the number of bytes currently carved into live allocations.
func (h *Heap) Used() uintptr { return h.used }

// Free returns the number of bytes not currently carved into an allocation.
// It includes both hole bytes and any alignment slack absorbed into
// allocations (§8 property 4), so it is Size()-Used(), not a sum over
// holes.
func (h *Heap) Free() uintptr { return h.size - h.used }

// Stats is a point-in-time snapshot of a Heap's accounting, convenient for
// logging and the cmd/heapctl front-end.
type Stats struct {
	Bottom uintptr
	Top    uintptr
	Size   uintptr
	Used   uintptr
	Free   uintptr
	Holes  int
}

// Stats walks the free list once to count holes and returns a snapshot.
func (h *Heap) Stats() Stats {
	count := 0
	h.holes.Walk(func(uintptr, uintptr) bool {
		count++
		return true
	})

	return Stats{
		Bottom: h.bottom,
		Top:    h.Top(),
		Size:   h.size,
		Used:   h.used,
		Free:   h.Free(),
		Holes:  count,
	}
}
