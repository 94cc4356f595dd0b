package hole

import (
	"fmt"
	"runtime"
)

// ErrOutOfMemory is returned by List.AllocateFirstFit when no hole's split
// satisfies the requested layout (§4.4, §7). It is never fatal: the free
// list is left bitwise unchanged (testable property S6, §8).
var ErrOutOfMemory = fmt.Errorf("hole: out of memory")

// category mirrors the host project's errors.ErrorCategory taxonomy
// (internal/errors.StandardError): category, code, message, and captured
// caller. This package does not import that type directly — the core is a
// leaf package and must not depend on anything above it in the module
// graph — but keeps the same shape so a caller already used to reporting a
// StandardError can report these identically.
type category string

const categoryMemory category = "MEMORY"

// InvalidLayoutError reports a requested layout that violates §4.1's
// alignment contract: alignment must be a power of two and at most
// align.MaxAlignment. Detected at normalization time and always raised via
// panic, per §7 — a caller that constructs an invalid layout has a bug, not
// a transient condition to recover from.
type InvalidLayoutError struct {
	Layout Layout
	Reason string
	caller string
}

// NewInvalidLayoutError constructs an *InvalidLayoutError. Exported so
// callers above this package (heap.Heap's bounds checks) can raise the same
// panic shape this package uses internally.
func NewInvalidLayoutError(layout Layout, reason string) *InvalidLayoutError {
	return &InvalidLayoutError{Layout: layout, Reason: reason, caller: callerName()}
}

func (e *InvalidLayoutError) Error() string {
	return fmt.Sprintf("[%s:INVALID_LAYOUT] size=%d align=%d: %s (caller: %s)",
		categoryMemory, e.Layout.Size, e.Layout.Align, e.Reason, e.caller)
}

// InvalidFreeError reports a Deallocate call whose region overlaps a
// neighboring hole — corruption or a double free (§4.5, §7). Always raised
// via panic; the allocator does not attempt to recover from it.
type InvalidFreeError struct {
	Ptr    uintptr
	Size   uintptr
	Reason string
	caller string
}

// NewInvalidFreeError constructs an *InvalidFreeError. Exported so callers
// above this package (heap.Heap's bounds checks) can raise the same panic
// shape this package uses internally.
func NewInvalidFreeError(ptr, size uintptr, reason string) *InvalidFreeError {
	return &InvalidFreeError{Ptr: ptr, Size: size, Reason: reason, caller: callerName()}
}

func (e *InvalidFreeError) Error() string {
	return fmt.Sprintf("[%s:INVALID_FREE] ptr=0x%x size=%d: %s (caller: %s)",
		categoryMemory, e.Ptr, e.Size, e.Reason, e.caller)
}

func callerName() string {
	pc, _, _, ok := runtime.Caller(2)
	if !ok {
		return "unknown"
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "unknown"
	}
	return fn.Name()
}
