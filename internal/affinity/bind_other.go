//go:build !linux

package affinity

// bindCurrentThread is a no-op off Linux; the original's Windows backend
// uses SetThreadSelectedCpuSetMasks via a dynamically loaded kernel32
// export, which has no portable Go equivalent outside this module's scope.
func bindCurrentThread(cpus []int) error {
	return nil
}
