//go:build linux

package affinity

import (
	"golang.org/x/sys/unix"
)

// bindCurrentThread pins the calling OS thread to the given logical
// processors via sched_setaffinity. Callers must have already called
// runtime.LockOSThread, since affinity is a per-thread, not per-goroutine,
// property on Linux.
func bindCurrentThread(cpus []int) error {
	var set unix.CPUSet
	set.Zero()
	for _, cpu := range cpus {
		set.Set(cpu)
	}
	// tid 0 means "the calling thread" for sched_setaffinity.
	return unix.SchedSetaffinity(0, &set)
}
