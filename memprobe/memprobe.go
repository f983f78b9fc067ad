// Package memprobe answers "how much free memory do we have" for the
// overlap driver's stage planner. It is a pluggable capability per
// spec.md §9 rather than a single global function, so tests can inject
// a fixed cap instead of depending on the host's actual memory state.
//
// Grounded on original_source/mtspgemm2017/overlapping.h's
// estimateMemory (POSIX sysinfo / Darwin vm_statistics64 / user-default
// fallback triad), reimplemented with golang.org/x/sys/unix instead of
// the original's direct syscalls.
package memprobe

// Prober returns free system memory in bytes, or 0 if it could not
// determine an answer. Callers must treat 0 as "use the caller-supplied
// default," per spec.md §4.10 and §7's resource-error policy: a probe
// failure is not fatal, it falls back.
type Prober interface {
	QueryFreeBytes() uint64
}

// System is the platform-appropriate Prober: Linux sysinfo or Darwin
// vm_statistics64, selected at build time.
var System Prober = systemProber{}

type systemProber struct{}

func (systemProber) QueryFreeBytes() uint64 {
	return queryFreeBytes()
}

// Static is a fixed-answer Prober for when the platform probe is
// unavailable or the user has supplied an explicit memory budget
// (spec.md's userDefMem/totalMemory config pair).
type Static uint64

// QueryFreeBytes returns s converted from megabytes to bytes.
func (s Static) QueryFreeBytes() uint64 {
	return uint64(s) * 1 << 20
}
