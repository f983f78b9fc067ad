//go:build darwin

package memprobe

import "golang.org/x/sys/unix"

// queryFreeBytes multiplies the free-page count by the page size,
// mirroring overlapping.h's vm_statistics64 branch (free_count *
// host_page_size) without the original's cgo mach-call plumbing.
func queryFreeBytes() uint64 {
	free, err := unix.SysctlUint32("vm.page_free_count")
	if err != nil {
		return 0
	}
	return uint64(free) * uint64(unix.Getpagesize())
}
