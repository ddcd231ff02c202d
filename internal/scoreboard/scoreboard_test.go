package scoreboard

import (
	"testing"

	"github.com/joeycumines/fastchess-sub001/internal/types"
	"github.com/stretchr/testify/require"
)

func TestScoreBoard_UpdateNonPair_AccumulatesWDL(t *testing.T) {
	sb := New()
	sb.UpdateNonPair("A", "B", types.Stats{Wins: 1})
	sb.UpdateNonPair("A", "B", types.Stats{Wins: 1})
	sb.UpdateNonPair("A", "B", types.Stats{Wins: 1})
	sb.UpdateNonPair("A", "B", types.Stats{Wins: 1})

	got := sb.GetStats("A", "B")
	require.Equal(t, types.Stats{Wins: 4}, got)
}

func TestScoreBoard_UpdatePair_BuffersFirstHalfThenCompletesBucket(t *testing.T) {
	sb := New()
	// Game 0: A (as player1) wins.
	sb.UpdatePair("A", "B", types.Stats{Wins: 1}, 0, types.ResultWin)
	require.False(t, sb.IsPairCompleted(0))

	// Game 1: A (as player1, colours swapped at the runner layer) wins again.
	sb.UpdatePair("A", "B", types.Stats{Wins: 1}, 0, types.ResultWin)
	require.True(t, sb.IsPairCompleted(0))

	got := sb.GetStats("A", "B")
	require.Equal(t, 2, got.Wins)
	require.Equal(t, 1, got.PentaWW)
}

func TestScoreBoard_PentaCompletedCountMatchesPairings(t *testing.T) {
	sb := New()
	for _, pid := range []int{0, 1, 2} {
		sb.UpdatePair("A", "B", types.Stats{Draws: 1}, pid, types.ResultDraw)
		sb.UpdatePair("A", "B", types.Stats{Draws: 1}, pid, types.ResultDraw)
	}
	got := sb.GetStats("A", "B")
	require.Equal(t, 3, got.PentaDD)
	require.Equal(t, got.PentaWW+got.PentaWD+got.PentaWL+got.PentaDD+got.PentaLD+got.PentaLL, 3)
}

func TestScoreBoard_SnapshotMergeRoundTrip(t *testing.T) {
	sb := New()
	sb.UpdateNonPair("A", "B", types.Stats{Wins: 2, Draws: 1})
	snap := sb.Snapshot()

	sb2 := New()
	sb2.Merge(snap)
	require.Equal(t, sb.GetStats("A", "B"), sb2.GetStats("A", "B"))
}
