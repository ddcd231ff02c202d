package affinity

import "runtime"

// ThreadBinder leases one Slot per calling OS thread and keeps it leased for
// that thread's remaining lifetime. The lease is deliberately never
// released: a worker's underlying OS thread lives as long as the worker
// goroutine keeps runtime.LockOSThread held, so retaining the slot for that
// whole lifetime costs one extra leased slot in exchange for avoiding a
// consume/release pair on every game.
type ThreadBinder struct {
	pool *Pool
}

// NewThreadBinder wraps a Pool for one-lease-per-thread use by worker
// goroutines.
func NewThreadBinder(pool *Pool) *ThreadBinder {
	return &ThreadBinder{pool: pool}
}

// BindOnce locks the calling goroutine to its current OS thread, leases a
// Slot, and pins the thread to it. It is meant to be called once per
// worker at startup; repeated calls on threads that already hold a lease
// are the caller's responsibility to avoid (the orchestrator only calls it
// from a dedicated per-worker goroutine that never migrates threads).
func (b *ThreadBinder) BindOnce() (*Guard, error) {
	if !b.pool.Enabled() {
		return nil, ErrNoCoresAvailable
	}
	runtime.LockOSThread()
	guard, err := b.pool.Consume()
	if err != nil {
		return nil, err
	}
	if err := bindCurrentThread(guard.CPUs()); err != nil {
		guard.Release()
		return nil, err
	}
	return guard, nil
}
