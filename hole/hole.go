// Package hole implements the free-list engine: an address-ordered,
// intrusively linked list of free regions ("holes") living inside a
// caller-supplied memory range, with first-fit allocation and
// address-ordered deallocation with coalescing.
//
// Every piece of bookkeeping this package needs is written into the managed
// memory itself — there is no side allocation, no syscalls, and no
// background work. List is not safe for concurrent use; callers that need
// shared access wrap it the way lock.LockedHeap wraps heap.Heap.
package hole

import (
	"unsafe"

	"github.com/orizon-lang/orizon-heap/align"
)

const pointerWidth = unsafe.Sizeof(uintptr(0))

const (
	// MinSize is the minimum allocation granularity, the hole header's
	// size, and the hole header's required alignment: two native pointer
	// widths (§3).
	MinSize = 2 * pointerWidth

	// HeaderAlign is the alignment every real hole header is stored at.
	// It is numerically equal to MinSize (§3).
	HeaderAlign = MinSize
)

// Layout is a requested or normalized (size, alignment) pair (§4.2, §6).
type Layout struct {
	Size  uintptr
	Align uintptr
}

// Normalize raises Size up to MinSize and rounds it up to a multiple of
// HeaderAlign, per §4.2. It does not touch Align; validate that separately
// with ValidateAlign so a bad alignment reports its own reason.
//
// Normalize is idempotent (§8 property 6): normalizing an already-normalized
// layout returns it unchanged, since MinSize is itself a multiple of
// HeaderAlign and the rounding is monotonic.
func (l Layout) Normalize() Layout {
	size := l.Size
	if size < MinSize {
		size = MinSize
	}

	rounded, ok := align.UpSize(size, HeaderAlign)
	if !ok {
		panic(NewInvalidLayoutError(l, "size overflows the address space once rounded to header alignment"))
	}

	return Layout{Size: rounded, Align: l.Align}
}

// ValidateAlign panics with *InvalidLayoutError if align is zero, not a
// power of two, or larger than align.MaxAlignment (§4.1, §7).
// AllocateFirstFit calls this before doing anything else; Deallocate does
// not validate req.Align, since it uses only the normalized size.
func ValidateAlign(a uintptr) {
	if a == 0 || !align.IsPowerOfTwo(a) {
		panic(NewInvalidLayoutError(Layout{Align: a}, "alignment must be a power of two"))
	}
	if a > align.MaxAlignment {
		panic(NewInvalidLayoutError(Layout{Align: a}, "alignment exceeds half the address space"))
	}
}

// header is the intrusive record written at the start of every free region
// (§3, §6 "binary layout"). next is the address of the next hole in
// ascending order, or 0 ("absent") — real regions never live at address 0,
// so 0 is a safe null sentinel, mirroring the null-pointer Option that the
// design this package is modeled on uses.
type header struct {
	size uintptr
	next uintptr
}

func headerAt(addr uintptr) *header {
	return (*header)(unsafe.Pointer(addr)) //nolint:govet // intrusive list: the node IS the memory at addr.
}

// List is the free list described in §3. The zero value is an empty list:
// the sentinel head has size 0 and no successor, satisfying invariant 6
// without any initialization step.
type List struct {
	// firstHole is the address of the first real hole, or 0 if the list is
	// empty. It plays the role of the sentinel's `next` field from §3; the
	// sentinel itself carries no other state, so it is not a separate
	// value in this representation.
	firstHole uintptr
}

// Empty reports whether the free list has no holes at all.
func (l *List) Empty() bool {
	return l.firstHole == 0
}

// Init installs the single initial hole spanning [base, base+length), per
// §4.6. base is aligned up to HeaderAlign first; if fewer than MinSize
// usable bytes remain after that adjustment, the list is left empty.
func (l *List) Init(base, length uintptr) {
	start, ok := align.Up(base, HeaderAlign)
	if !ok || start-base > length {
		l.firstHole = 0
		return
	}

	usable := length - (start - base)
	if usable < MinSize {
		l.firstHole = 0
		return
	}

	h := headerAt(start)
	h.size = usable
	h.next = 0
	l.firstHole = start
}

// AllocateFirstFit normalizes req and walks the list in address order,
// splitting the first hole whose split succeeds (§4.3, §4.4). On success it
// returns the carved pointer and req's normalized layout. When the split
// absorbs back-padding slack too small to form a hole (§9), those bytes are
// not counted in effective.Size, which always equals req's normalized size.
// On failure it returns ErrOutOfMemory and leaves the list unchanged.
func (l *List) AllocateFirstFit(req Layout) (ptr uintptr, effective Layout, err error) {
	ValidateAlign(req.Align)
	norm := req.Normalize()

	prevNext := &l.firstHole
	curr := l.firstHole

	for curr != 0 {
		h := headerAt(curr)

		if p, ok := split(prevNext, curr, h, norm); ok {
			return p, norm, nil
		}

		prevNext = &h.next
		curr = h.next
	}

	return 0, Layout{}, ErrOutOfMemory
}

// split implements §4.3 against the hole at curr (header h), rewriting
// *prevNext (the predecessor's link to curr) in place if the split
// succeeds. It never mutates anything on failure.
func split(prevNext *uintptr, curr uintptr, h *header, norm Layout) (ptr uintptr, ok bool) {
	holeEnd := curr + h.size

	if h.size < norm.Size {
		return 0, false
	}

	// Step 2: compute the allocation start P and any front padding.
	var allocStart uintptr

	var frontPad uintptr // 0 means "no front padding"; it is also the front padding's address when nonzero, since front padding starts at curr.

	if curr%norm.Align == 0 {
		allocStart = curr
	} else {
		pushed := curr + MinSize
		if pushed < curr {
			return 0, false
		}

		aligned, aok := align.Up(pushed, norm.Align)
		if !aok {
			return 0, false
		}

		allocStart = aligned
		frontPad = curr
	}

	// Step 3: reject if alignment pushed the allocation past the hole end.
	allocEnd := allocStart + norm.Size
	if allocEnd < allocStart || allocEnd > holeEnd {
		return 0, false
	}

	// Step 4: compute back padding, if any fits.
	var backPad uintptr // address of the back-padding hole, 0 means none

	var backSize uintptr

	if b, bok := align.Up(allocEnd, HeaderAlign); bok {
		if bEnd := b + MinSize; bEnd <= holeEnd {
			backPad = b
			backSize = holeEnd - b
		}
	}

	// Step 5: list surgery.
	switch {
	case frontPad == 0 && backPad == 0:
		*prevNext = h.next
	case frontPad != 0 && backPad == 0:
		fh := headerAt(frontPad)
		fh.size = allocStart - frontPad
		fh.next = h.next
		*prevNext = frontPad
	case frontPad == 0 && backPad != 0:
		bh := headerAt(backPad)
		bh.size = backSize
		bh.next = h.next
		*prevNext = backPad
	default:
		bh := headerAt(backPad)
		bh.size = backSize
		bh.next = h.next

		fh := headerAt(frontPad)
		fh.size = allocStart - frontPad
		fh.next = backPad

		*prevNext = frontPad
	}

	return allocStart, true
}

// Deallocate inserts [ptr, ptr+req.Normalize().Size) back into the free
// list in address order and coalesces it with any touching neighbor on
// either side (§4.5). It panics with *InvalidFreeError if the region
// overlaps a neighboring hole, which signals double-free or corruption
// rather than a recoverable condition.
func (l *List) Deallocate(ptr uintptr, req Layout) {
	l.insert(ptr, req.Normalize().Size)
}

// Grow inserts a brand-new region [addr, addr+size) into the free list, as
// heap.Heap.Extend does for memory that was never carved by AllocateFirstFit
// in the first place. Unlike Deallocate, size is taken exactly as given —
// it is not rounded up to a multiple of HeaderAlign, since doing so could
// claim bytes past the caller's actual backing memory. The caller is
// responsible for ensuring addr is itself HeaderAlign-aligned and size is
// at least MinSize; Extend arranges both before calling Grow.
func (l *List) Grow(addr, size uintptr) {
	l.insert(addr, size)
}

// insert is the shared address-ordered splice-and-coalesce step behind
// Deallocate and Grow (§4.5). It panics with *InvalidFreeError if [addr,
// addr+size) overlaps a neighboring hole.
func (l *List) insert(addr, size uintptr) {
	prevNext := &l.firstHole
	predAddr := uintptr(0)
	havePred := false

	for *prevNext != 0 && *prevNext < addr {
		predAddr = *prevNext
		havePred = true
		prevNext = &headerAt(predAddr).next
	}

	succAddr := *prevNext

	if havePred {
		pred := headerAt(predAddr)
		if predEnd := predAddr + pred.size; predEnd > addr {
			panic(NewInvalidFreeError(addr, size,
				"region starts before the end of the preceding hole (double free or corruption)"))
		}
	}

	if succAddr != 0 {
		if regionEnd := addr + size; regionEnd > succAddr {
			panic(NewInvalidFreeError(addr, size,
				"region overlaps the following hole (double free or corruption)"))
		}
	}

	n := headerAt(addr)
	n.size = size
	n.next = succAddr
	*prevNext = addr

	mergeWithSuccessor(n, addr)

	if havePred {
		mergeWithSuccessor(headerAt(predAddr), predAddr)
	}
}

// mergeWithSuccessor absorbs h's immediate successor into h if they touch
// (addr(h)+h.size == h.next), per §4.5 step 4. It merges at most once: the
// list invariants guarantee there is never more than one touching pair to
// resolve at either h or its (possibly just-enlarged) successor.
func mergeWithSuccessor(h *header, addr uintptr) {
	if h.next == 0 || addr+h.size != h.next {
		return
	}

	succ := headerAt(h.next)
	h.size += succ.size
	h.next = succ.next
}

// Walk calls visit once per hole in ascending address order, stopping early
// if visit returns false. It is read-only and exists for tests and
// diagnostics (heap.Heap.Stats, the property tests in §8, cmd/heapctl).
func (l *List) Walk(visit func(addr, size uintptr) bool) {
	for curr := l.firstHole; curr != 0; {
		h := headerAt(curr)
		if !visit(curr, h.size) {
			return
		}

		curr = h.next
	}
}
