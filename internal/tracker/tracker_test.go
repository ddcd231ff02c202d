package tracker

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlayerTracker(t *testing.T) {
	tr := New()
	tr.ReportTimeout("engine1")
	tr.ReportTimeout("engine1")
	tr.ReportDisconnect("engine2")

	entries := tr.Iter()
	byName := make(map[string]Entry, len(entries))
	for _, e := range entries {
		byName[e.Name] = e
	}

	require.Equal(t, 2, byName["engine1"].Timeouts)
	require.Equal(t, 0, byName["engine1"].Disconnects)
	require.Equal(t, 0, byName["engine2"].Timeouts)
	require.Equal(t, 1, byName["engine2"].Disconnects)

	tr.ResetAll()
	require.Empty(t, tr.Iter())
}

func TestPlayerTrackerConcurrent(t *testing.T) {
	tr := New()
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				tr.ReportTimeout("shared")
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	entries := tr.Iter()
	require.Len(t, entries, 1)
	require.Equal(t, 800, entries[0].Timeouts)
}
