//go:build !unix

package backing

import "fmt"

// Anonymous is unavailable on non-unix platforms; use FromBytes with a
// caller-supplied buffer instead.
func Anonymous(length uintptr) (*Region, error) {
	return nil, fmt.Errorf("backing: Anonymous is not supported on this platform, use FromBytes")
}

// PageSize returns 0 on platforms without an mmap-backed Anonymous.
func PageSize() int {
	return 0
}
