package procio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// spawnCat starts a `cat` subprocess, used as a stand-in engine that echoes
// whatever it's given on stdin back out on stdout.
func spawnCat(t *testing.T) *Process {
	t.Helper()
	p, err := Spawn("cat-test", "cat", nil, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestProcess_ReadOutput_MatchesSearchToken(t *testing.T) {
	p := spawnCat(t)

	require.NoError(t, p.WriteInput([]byte("info depth 1\nbestmove e2e4\n")))

	lines, err := p.ReadOutput("bestmove", 2*time.Second)
	require.NoError(t, err)
	require.NotEmpty(t, lines)
	require.Equal(t, "bestmove e2e4", lines[len(lines)-1].Text)
}

func TestProcess_ReadOutput_StripsCRAndDropsEmptyLines(t *testing.T) {
	p := spawnCat(t)

	require.NoError(t, p.WriteInput([]byte("\r\nreadyok\r\n")))

	lines, err := p.ReadOutput("readyok", 2*time.Second)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.Equal(t, "readyok", lines[0].Text)
}

func TestProcess_ReadOutput_TimesOut(t *testing.T) {
	p := spawnCat(t)

	_, err := p.ReadOutput("nevercomes", 50*time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)
}

func TestProcess_ReadOutput_TimesOut_FlushesPartialLine(t *testing.T) {
	p := spawnCat(t)

	require.NoError(t, p.WriteInput([]byte("info depth 1 seldepth 2")))

	lines, err := p.ReadOutput("nevercomes", 150*time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)
	require.NotEmpty(t, lines)
	require.Equal(t, "info depth 1 seldepth 2", lines[len(lines)-1].Text)
	require.Equal(t, StdOut, lines[len(lines)-1].Std)
}

func TestProcess_Interrupt_UnblocksPendingRead(t *testing.T) {
	p := spawnCat(t)

	done := make(chan error, 1)
	go func() {
		_, err := p.ReadOutput("nevercomes", 5*time.Second)
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	p.Interrupt()

	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrInterrupted)
	case <-time.After(2 * time.Second):
		t.Fatal("interrupt did not unblock ReadOutput")
	}
}

func TestProcess_ReadOutput_DisconnectOnExit(t *testing.T) {
	p, err := Spawn("true-test", "true", nil, "")
	require.NoError(t, err)
	defer p.Close()

	_, err = p.ReadOutput("anything", 2*time.Second)
	require.ErrorIs(t, err, ErrDisconnected)
}

func TestProcess_Close_IsIdempotent(t *testing.T) {
	p := spawnCat(t)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
}
