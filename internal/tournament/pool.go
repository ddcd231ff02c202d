package tournament

import (
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/joeycumines/fastchess-sub001/internal/affinity"
)

// bindFunc lazily leases a CPU slot for the calling worker goroutine the
// first time it is invoked, and returns the same CPU list on every
// subsequent call for that goroutine's remaining lifetime — the Go
// equivalent of the leaked-thread-local-storage guard described in spec
// §4.1: the worker goroutine is locked to one OS thread for its life, so a
// closure-captured variable serves the same purpose as TLS without
// needing a real TLS API.
type bindFunc func() []int

// task is one unit of work a Pool worker executes; it receives this
// worker's bindFunc so it can lease/reuse CPU affinity without a central
// lookup.
type task func(bind bindFunc)

// Pool is a fixed-size worker pool where a running task may enqueue a
// follow-up task (spec §4.8 "Worker pool"). After Stop, Enqueue silently
// drops further tasks; Stop clears any still-queued tasks under the
// pool's lock before workers observe it, matching "Drop of the pool
// joins all workers; it clears the queue under the pool's lock."
type Pool struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []task
	stopped bool
	g       *errgroup.Group
}

// NewPool starts n worker goroutines, each bound for its lifetime to one
// OS thread so CPU affinity set on it sticks (spec §4.1 "Thread
// binding"). binder is nil-safe: BindOnce is only called lazily, the
// first time a task asks for it.
func NewPool(n int, binder *affinity.ThreadBinder) *Pool {
	p := &Pool{}
	p.cond = sync.NewCond(&p.mu)
	p.g = new(errgroup.Group)
	for i := 0; i < n; i++ {
		p.g.Go(func() error {
			p.worker(binder)
			return nil
		})
	}
	return p
}

func (p *Pool) worker(binder *affinity.ThreadBinder) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var (
		bound bool
		cpus  []int
	)
	bind := func() []int {
		if bound {
			return cpus
		}
		bound = true
		if binder != nil {
			if guard, err := binder.BindOnce(); err == nil {
				cpus = guard.CPUs()
			}
		}
		return cpus
	}

	for {
		t, ok := p.pop()
		if !ok {
			return
		}
		t(bind)
	}
}

func (p *Pool) pop() (task, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.queue) == 0 && !p.stopped {
		p.cond.Wait()
	}
	if len(p.queue) == 0 {
		return nil, false
	}
	t := p.queue[0]
	p.queue = p.queue[1:]
	return t, true
}

// Enqueue adds t to the queue. If the pool has already been stopped, t is
// silently dropped (spec §4.8: "after the pool is stopped, enqueue
// silently drops the task").
func (p *Pool) Enqueue(t task) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	p.queue = append(p.queue, t)
	p.cond.Signal()
}

// Stop marks the pool stopped and clears any queued-but-unstarted tasks
// under the pool's lock, then wakes every worker so they can observe it
// once their current task (if any) finishes.
func (p *Pool) Stop() {
	p.mu.Lock()
	p.stopped = true
	p.queue = nil
	p.mu.Unlock()
	p.cond.Broadcast()
}

// Join blocks until every worker goroutine has returned.
func (p *Pool) Join() {
	_ = p.g.Wait()
}
