package writer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/joeycumines/fastchess-sub001/internal/types"
)

func TestFileWriterWritesAndAppends(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	w, err := NewFileWriter(path, true, false)
	require.NoError(t, err)
	require.NoError(t, w.Write("first\n"))
	require.NoError(t, w.Close())

	w2, err := NewFileWriter(path, true, false)
	require.NoError(t, err)
	require.NoError(t, w2.Write("second\n"))
	require.NoError(t, w2.Close())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "first\nsecond\n", string(got))
}

func TestFileWriterTruncateDropsPriorContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	require.NoError(t, os.WriteFile(path, []byte("stale\n"), 0o644))

	w, err := NewFileWriter(path, false, false)
	require.NoError(t, err)
	require.NoError(t, w.Write("fresh\n"))
	require.NoError(t, w.Close())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "fresh\n", string(got))
}

func TestFileWriterCRCPrefix(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	w, err := NewFileWriter(path, false, true)
	require.NoError(t, err)
	require.NoError(t, w.Write("line\n"))
	require.NoError(t, w.Close())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(got), "{CRC:")
	require.Contains(t, string(got), "line\n")
}

func TestNewPGNWriterNilWhenFileEmpty(t *testing.T) {
	w, err := NewPGNWriter(types.PgnConfig{}, false)
	require.NoError(t, err)
	require.Nil(t, w)
}

func TestNewEPDWriterNilWhenFileEmpty(t *testing.T) {
	w, err := NewEPDWriter(types.EpdConfig{}, false)
	require.NoError(t, err)
	require.Nil(t, w)
}

func TestBuildPGNIncludesHeadersAndResult(t *testing.T) {
	m := types.NewMatchData("startfen")
	m.Players[0] = types.PlayerInfo{Name: "A", Result: types.ResultWin}
	m.Players[1] = types.PlayerInfo{Name: "B", Result: types.ResultLose}
	m.Termination = types.TerminationNormal
	m.Moves = []types.MoveData{{Move: "e2e4"}, {Move: "e7e5"}, {Move: "g1f3"}}
	m.EndTime = m.StartTime.Add(time.Minute)

	pgn := BuildPGN(types.DefaultPgnConfig(), m, 0)

	require.Contains(t, pgn, "[White \"A\"]")
	require.Contains(t, pgn, "[Black \"B\"]")
	require.Contains(t, pgn, "[Result \"1-0\"]")
	require.Contains(t, pgn, "1. e2e4 e7e5 2. g1f3 1-0")
}

func TestBuildEPDEmptyWithoutFinalFEN(t *testing.T) {
	require.Equal(t, "", BuildEPD(types.MatchData{}))
	require.Equal(t, "fen-here\n", BuildEPD(types.MatchData{FinalFEN: "fen-here"}))
}
