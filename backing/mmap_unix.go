//go:build unix

package backing

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Anonymous reserves length bytes of anonymous, zero-filled memory via
// mmap (MAP_PRIVATE|MAP_ANONYMOUS), rounded up to a whole number of pages
// by the kernel. The returned Region's Release unmaps it; failing to call
// Release leaks the mapping for the life of the process.
func Anonymous(length uintptr) (*Region, error) {
	if length == 0 {
		return nil, fmt.Errorf("backing: anonymous region length must be nonzero")
	}

	data, err := unix.Mmap(-1, 0, int(length), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("backing: mmap: %w", err)
	}

	base := uintptr(unsafe.Pointer(&data[0]))

	return &Region{
		base:   base,
		length: uintptr(len(data)),
		release: func() error {
			return unix.Munmap(data)
		},
	}, nil
}

// PageSize reports the OS page size, the granularity Anonymous actually
// rounds up to.
func PageSize() int {
	return unix.Getpagesize()
}
