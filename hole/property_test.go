package hole

import (
	"math/rand"
	"reflect"
	"testing"
	"testing/quick"
	"unsafe"
)

// opKind drives the pseudo-random operation sequences quick.Check generates
// for TestPropertyInvariantsHoldAfterRandomSequences (§8 invariants 1, 2 and 4).
type opKind uint8

const (
	opAllocate opKind = iota
	opDeallocate
)

// opSeq is a quick.Generator: a bounded sequence of (kind, size, alignment)
// triples. quick.Check fills it via Generate, not by reflecting
// over its fields, so the field types only need to round-trip through
// rand.Rand deterministically.
type opSeq struct {
	kinds  []opKind
	sizes  []uintptr
	aligns []uintptr
}

func (opSeq) Generate(rnd *rand.Rand, size int) reflect.Value {
	n := rnd.Intn(size + 1)

	s := opSeq{
		kinds:  make([]opKind, n),
		sizes:  make([]uintptr, n),
		aligns: make([]uintptr, n),
	}

	for i := 0; i < n; i++ {
		if rnd.Intn(2) == 0 {
			s.kinds[i] = opAllocate
		} else {
			s.kinds[i] = opDeallocate
		}

		s.sizes[i] = uintptr(rnd.Intn(256))
		s.aligns[i] = uintptr(1) << uint(rnd.Intn(6)) // 1..32
	}

	return reflect.ValueOf(s)
}

// TestPropertyInvariantsHoldAfterRandomSequences drives a List through
// pseudo-random allocate/deallocate sequences (deallocating only pointers
// this run actually obtained and has not yet freed) and checks, after every
// single operation, the §8 invariants checkInvariants covers: address
// ordering, no touching neighbors, and exact accounting.
func TestPropertyInvariantsHoldAfterRandomSequences(t *testing.T) {
	const regionSize = 8192

	check := func(s opSeq) bool {
		buf := make([]byte, regionSize+HeaderAlign)
		raw := uintptr(unsafe.Pointer(&buf[0]))

		base, ok := roundUp(raw, HeaderAlign)
		if !ok {
			return true
		}

		var l List

		l.Init(base, regionSize)

		var liveAllocs []liveAlloc

		used := uintptr(0)

		for i := range s.kinds {
			switch s.kinds[i] {
			case opAllocate:
				req := Layout{Size: s.sizes[i], Align: s.aligns[i]}

				ptr, effective, err := l.AllocateFirstFit(req)
				if err != nil {
					continue
				}

				liveAllocs = append(liveAllocs, liveAlloc{ptr: ptr, layout: effective})
				used += effective.Size
			case opDeallocate:
				if len(liveAllocs) == 0 {
					continue
				}

				idx := int(s.sizes[i]) % len(liveAllocs)
				victim := liveAllocs[idx]
				liveAllocs = append(liveAllocs[:idx], liveAllocs[idx+1:]...)

				l.Deallocate(victim.ptr, victim.layout)
				used -= victim.layout.Size
			}

			if !checkInvariants(t, &l, base, regionSize, used) {
				return false
			}
		}

		return true
	}

	if err := quick.Check(check, &quick.Config{MaxCount: 200}); err != nil {
		t.Error(err)
	}
}

// checkInvariants verifies §8 invariants 1, 2, and 4 against the current
// state of l. Invariant 3 (no overlap with live allocations) is implied by
// invariant 2 holding after every operation that itself validates overlap
// at insertion time (Deallocate panics otherwise), so it is not
// re-verified independently here.
func checkInvariants(t *testing.T, l *List, base, regionSize, used uintptr) bool {
	t.Helper()

	var (
		prevAddr  uintptr
		prevSize  uintptr
		havePrev  bool
		holeTotal uintptr
		orderOK   = true
		noTouchOK = true
	)

	l.Walk(func(addr, size uintptr) bool {
		holeTotal += size

		if havePrev {
			if !(prevAddr < addr) {
				orderOK = false
				return false
			}

			if prevAddr+prevSize == addr {
				noTouchOK = false
				return false
			}
		}

		prevAddr, prevSize, havePrev = addr, size, true

		return true
	})

	if !orderOK {
		t.Errorf("address ordering violated")
		return false
	}

	if !noTouchOK {
		t.Errorf("touching neighbors found")
		return false
	}

	// base was rounded up to HeaderAlign before Init, and this test never
	// calls Extend, so there is no alignment slack to account for: the
	// accounting invariant must hold exactly.
	if used+holeTotal != regionSize {
		t.Errorf("accounting violated: used=%d + holes=%d != size=%d", used, holeTotal, regionSize)
		return false
	}

	return true
}
