package scheduler

import (
	"sync"
	"testing"

	"github.com/joeycumines/fastchess-sub001/internal/types"
	"github.com/stretchr/testify/require"
)

func TestScheduler_RoundRobin_TwoEngines_FourGames(t *testing.T) {
	cfg := types.TournamentConfig{Variant: types.VariantRoundRobin, Games: 2, Rounds: 2}
	s := New([]string{"A", "B"}, cfg, 0)
	require.Equal(t, 4, s.Total())

	var pairingIDs []int
	for i := 0; i < 4; i++ {
		p, ok := s.Next()
		require.True(t, ok)
		require.Equal(t, i, p.GameID)
		pairingIDs = append(pairingIDs, p.PairingID)
	}
	require.Equal(t, []int{0, 0, 1, 1}, pairingIDs)

	_, ok := s.Next()
	require.False(t, ok)
}

func TestScheduler_Gauntlet_SeedsPlayEveryChallenger(t *testing.T) {
	cfg := types.TournamentConfig{Variant: types.VariantGauntlet, GauntletSeeds: 1, Games: 1, Rounds: 1}
	s := New([]string{"seed", "c1", "c2", "c3"}, cfg, 0)
	require.Equal(t, 3, s.Total())

	for i := 0; i < 3; i++ {
		p, ok := s.Next()
		require.True(t, ok)
		require.Equal(t, "seed", p.Player1)
	}
}

func TestScheduler_ResumeSkipsInitialMatchCount(t *testing.T) {
	cfg := types.TournamentConfig{Variant: types.VariantRoundRobin, Games: 2, Rounds: 1}
	s := New([]string{"A", "B"}, cfg, 1)
	require.Equal(t, 1, s.Remaining())

	p, ok := s.Next()
	require.True(t, ok)
	require.Equal(t, 1, p.GameID)
}

func TestScheduler_ExhaustedWhenInitialEqualsFinal(t *testing.T) {
	cfg := types.TournamentConfig{Variant: types.VariantRoundRobin, Games: 2, Rounds: 1}
	s := New([]string{"A", "B"}, cfg, 2)
	require.Equal(t, 0, s.Remaining())
	_, ok := s.Next()
	require.False(t, ok)
}

func TestScheduler_ConcurrentNextNeverRepeatsAGameID(t *testing.T) {
	cfg := types.TournamentConfig{Variant: types.VariantRoundRobin, Games: 2, Rounds: 10}
	s := New([]string{"A", "B", "C", "D"}, cfg, 0)

	total := s.Total()
	seen := make([]bool, total)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				p, ok := s.Next()
				if !ok {
					return
				}
				mu.Lock()
				require.False(t, seen[p.GameID])
				seen[p.GameID] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	for _, v := range seen {
		require.True(t, v)
	}
}
