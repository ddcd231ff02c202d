package tournament

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPoolRunsEnqueuedTasksConcurrently(t *testing.T) {
	p := NewPool(4, nil)

	var n atomic.Int32
	var wg sync.WaitGroup
	wg.Add(8)
	for i := 0; i < 8; i++ {
		p.Enqueue(func(bind bindFunc) {
			defer wg.Done()
			n.Add(1)
		})
	}
	wg.Wait()
	require.EqualValues(t, 8, n.Load())

	p.Stop()
	p.Join()
}

func TestPoolTaskCanEnqueueItsSuccessor(t *testing.T) {
	p := NewPool(1, nil)

	var n atomic.Int32
	done := make(chan struct{})
	var enqueue func()
	enqueue = func() {
		p.Enqueue(func(bind bindFunc) {
			if n.Add(1) < 3 {
				enqueue()
			} else {
				close(done)
			}
		})
	}
	enqueue()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("successor chain did not complete in time")
	}
	require.EqualValues(t, 3, n.Load())

	p.Stop()
	p.Join()
}

func TestPoolDropsTasksEnqueuedAfterStop(t *testing.T) {
	p := NewPool(1, nil)
	p.Stop()
	p.Join()

	var ran atomic.Bool
	p.Enqueue(func(bind bindFunc) { ran.Store(true) })

	time.Sleep(20 * time.Millisecond)
	require.False(t, ran.Load())
}

func TestPoolBindFuncIsStableWithinAWorker(t *testing.T) {
	p := NewPool(1, nil)

	var first, second []int
	var wg sync.WaitGroup
	wg.Add(2)
	p.Enqueue(func(bind bindFunc) {
		defer wg.Done()
		first = bind()
	})
	p.Enqueue(func(bind bindFunc) {
		defer wg.Done()
		second = bind()
	})
	wg.Wait()

	require.Equal(t, first, second)

	p.Stop()
	p.Join()
}
