// Package align provides the power-of-two alignment arithmetic shared by the
// free-list engine, the heap façade, and the region providers.
package align

import "math/bits"

// Up returns the least value >= addr that is a multiple of align.
//
// align must be a power of two; callers are expected to have validated this
// with IsPowerOfTwo before calling Up (the core validates layouts once, at
// normalization, rather than on every arithmetic helper call).
//
// ok is false only when addr+(align-1) would overflow uintptr, in which case
// the returned value is meaningless.
func Up(addr uintptr, alignment uintptr) (result uintptr, ok bool) {
	mask := alignment - 1

	sum := addr + mask
	if sum < addr {
		return 0, false
	}

	return sum &^ mask, true
}

// UpSize is Up specialized for sizes; it has the identical overflow behavior.
func UpSize(size uintptr, alignment uintptr) (result uintptr, ok bool) {
	return Up(size, alignment)
}

// Down returns the greatest value <= addr that is a multiple of align.
func Down(addr uintptr, alignment uintptr) uintptr {
	return addr &^ (alignment - 1)
}

// IsPowerOfTwo reports whether n has exactly one bit set.
func IsPowerOfTwo(n uintptr) bool {
	return n != 0 && n&(n-1) == 0
}

// MaxAlignment is the largest alignment §4.1 permits a caller to request:
// half the address space. Anything larger is rejected at layout intake
// rather than risked against the overflow check in Up.
const MaxAlignment = uintptr(1) << (bits.UintSize - 1)
