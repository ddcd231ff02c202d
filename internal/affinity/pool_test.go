package affinity

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPool_ExplicitAllInHT1(t *testing.T) {
	p := NewExplicitPool([]int{0, 1, 2})
	require.True(t, p.Enabled())
	require.Len(t, p.ht1, 3)
	require.Empty(t, p.ht2)
}

func TestPool_AutoSplitsHyperthreadsAcrossGroups(t *testing.T) {
	topo := Topology{Packages: []Package{{ID: 0, Cores: []Core{
		{ID: 0, CPUs: []int{0, 4}},
		{ID: 1, CPUs: []int{1, 5}},
	}}}}
	p := NewAutoPool(topo)
	require.Len(t, p.ht1, 2)
	require.Len(t, p.ht2, 2)
}

func TestPool_DisabledNeverConsumes(t *testing.T) {
	p := NewPool(false, nil, 1)
	require.False(t, p.Enabled())
	_, err := p.Consume()
	require.ErrorIs(t, err, ErrNoCoresAvailable)

	p2 := NewPool(true, nil, 2)
	require.False(t, p2.Enabled())
}

func TestPool_ConsumeDrainsHT1BeforeHT2(t *testing.T) {
	p := NewExplicitPool([]int{0})
	p.ht2 = append(p.ht2, newSlot([]int{1}))

	g1, err := p.Consume()
	require.NoError(t, err)
	require.Equal(t, []int{0}, g1.CPUs())

	g2, err := p.Consume()
	require.NoError(t, err)
	require.Equal(t, []int{1}, g2.CPUs())

	_, err = p.Consume()
	require.ErrorIs(t, err, ErrNoCoresAvailable)
}

func TestGuard_ReleaseRestoresOriginalState(t *testing.T) {
	p := NewExplicitPool([]int{0})
	g, err := p.Consume()
	require.NoError(t, err)
	g.Release()

	g2, err := p.Consume()
	require.NoError(t, err)
	require.Equal(t, []int{0}, g2.CPUs())
}

func TestPool_ConcurrentConsumeNeverDoubleLeases(t *testing.T) {
	const n = 16
	cpus := make([]int, n)
	for i := range cpus {
		cpus[i] = i
	}
	p := NewExplicitPool(cpus)

	var wg sync.WaitGroup
	leased := make(chan int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g, err := p.Consume()
			require.NoError(t, err)
			leased <- g.CPUs()[0]
		}()
	}
	wg.Wait()
	close(leased)

	seen := map[int]bool{}
	for cpu := range leased {
		require.False(t, seen[cpu], "cpu %d leased twice", cpu)
		seen[cpu] = true
	}
	require.Len(t, seen, n)

	_, err := p.Consume()
	require.ErrorIs(t, err, ErrNoCoresAvailable)
}
