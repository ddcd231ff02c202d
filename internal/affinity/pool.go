package affinity

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrNoCoresAvailable is returned by Consume when every slot in both HT
// groups is currently leased.
var ErrNoCoresAvailable = errors.New("affinity: no cores available")

// HTGroup distinguishes the two hyperthread-sibling queues a Pool drains in
// order: Group1 before Group2.
type HTGroup int

const (
	Group1 HTGroup = iota
	Group2
)

// Slot is one reservable unit of CPUs: a single logical processor, both for
// an explicit -cpus list and for auto-detection (where each hyperthread
// sibling of a core gets its own slot).
type Slot struct {
	CPUs      []int
	available atomic.Bool
}

func newSlot(cpus []int) *Slot {
	s := &Slot{CPUs: cpus}
	s.available.Store(true)
	return s
}

// Guard is a leased Slot; calling Release makes the slot available again
// at its original position in its queue. Dropping the last reference
// without calling Release leaves the slot leased.
type Guard struct {
	slot *Slot
	once sync.Once
}

// CPUs returns the logical processors reserved by this guard.
func (g *Guard) CPUs() []int {
	return g.slot.CPUs
}

// Release returns the slot to the pool. Safe to call more than once or
// concurrently; only the first call has effect.
func (g *Guard) Release() {
	g.once.Do(func() {
		g.slot.available.Store(true)
	})
}

// Pool holds two ordered queues of Slots, HT1 and HT2. Every logical
// processor appears in at most one slot. Consume scans HT1 before HT2.
type Pool struct {
	mu  sync.Mutex
	ht1 []*Slot
	ht2 []*Slot

	enabled bool
}

// NewDisabledPool returns a Pool that always fails to Consume, used when
// affinity pinning is turned off or threads-per-engine exceeds one (pinning
// a multi-threaded engine to a single logical processor would be wrong).
func NewDisabledPool() *Pool {
	return &Pool{}
}

// NewAutoPool builds a Pool from a detected Topology: for each physical
// core, even-indexed hyperthread siblings go to HT1 and odd-indexed ones to
// HT2.
func NewAutoPool(topo Topology) *Pool {
	p := &Pool{enabled: true}
	for _, pkg := range topo.Packages {
		for _, core := range pkg.Cores {
			for i, cpu := range core.CPUs {
				slot := newSlot([]int{cpu})
				if i%2 == 0 {
					p.ht1 = append(p.ht1, slot)
				} else {
					p.ht2 = append(p.ht2, slot)
				}
			}
		}
	}
	return p
}

// NewExplicitPool builds a Pool from an explicit CPU list: one slot per
// listed CPU, all placed in HT1.
func NewExplicitPool(cpus []int) *Pool {
	p := &Pool{enabled: true}
	for _, c := range cpus {
		p.ht1 = append(p.ht1, newSlot([]int{c}))
	}
	return p
}

// NewPool decides which construction to use, mirroring the original
// AffinityManager::new rule: affinity is only active when useAffinity is
// set and threadsPerEngine <= 1.
func NewPool(useAffinity bool, cpus []int, threadsPerEngine int) *Pool {
	if !useAffinity || threadsPerEngine > 1 {
		return NewDisabledPool()
	}
	if len(cpus) > 0 {
		return NewExplicitPool(cpus)
	}
	return NewAutoPool(DetectTopology())
}

// Enabled reports whether this pool will ever hand out a Guard.
func (p *Pool) Enabled() bool {
	return p.enabled
}

// Consume scans HT1 then HT2 for the first available slot, flips it to
// leased, and returns a Guard. It never blocks; if nothing is free it
// returns ErrNoCoresAvailable.
func (p *Pool) Consume() (*Guard, error) {
	if !p.enabled {
		return nil, ErrNoCoresAvailable
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, slot := range p.ht1 {
		if slot.available.CompareAndSwap(true, false) {
			return &Guard{slot: slot}, nil
		}
	}
	for _, slot := range p.ht2 {
		if slot.available.CompareAndSwap(true, false) {
			return &Guard{slot: slot}, nil
		}
	}
	return nil, ErrNoCoresAvailable
}
