//go:build linux

package memprobe

import "golang.org/x/sys/unix"

// queryFreeBytes sums freeram, freeswap, and bufferram from sysinfo(2),
// each scaled by mem_unit, mirroring overlapping.h's POSIX branch.
func queryFreeBytes() uint64 {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0
	}
	unit := uint64(info.Unit)
	if unit == 0 {
		unit = 1
	}
	return (uint64(info.Freeram) + uint64(info.Freeswap) + uint64(info.Bufferram)) * unit
}
