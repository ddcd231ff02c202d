package book

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joeycumines/fastchess-sub001/internal/types"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadEPD_OneFenPerLine(t *testing.T) {
	path := writeTemp(t, "book.epd", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1\n\nrnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1\n")
	b, err := LoadEPD(path)
	require.NoError(t, err)
	require.Equal(t, 2, b.Len())
	require.Empty(t, b.GetOpening(0).Moves)
}

func TestLoadEPD_EmptyIsFatal(t *testing.T) {
	path := writeTemp(t, "empty.epd", "\n\n")
	_, err := LoadEPD(path)
	require.ErrorIs(t, err, ErrEmptyBook)
}

type stubResolver struct{}

func (stubResolver) ApplySAN(fen, san string) (string, string, error) {
	return san + "-uci", fen + "+", nil
}

func TestLoadPGN_ExtractsFenAndTruncatesPlies(t *testing.T) {
	pgn := `[Event "?"]
[FEN "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"]

1. e4 e5 2. Nf3 Nc6 1-0

[Event "?"]

1. d4 d5 1/2-1/2
`
	path := writeTemp(t, "games.pgn", pgn)
	b, err := LoadPGN(path, 2, false, stubResolver{})
	require.NoError(t, err)
	require.Equal(t, 2, b.Len())
	require.Len(t, b.GetOpening(0).Moves, 2)
	require.Equal(t, "e4-uci", b.GetOpening(0).Moves[0])
	require.Equal(t, StartPosition, b.GetOpening(1).StartFEN)
}

func TestLoadPGN_SkipsVariations(t *testing.T) {
	pgn := `[Event "?"]

1. e4 (1. d4 d5) e5 2. Nf3 1-0
`
	path := writeTemp(t, "var.pgn", pgn)
	b, err := LoadPGN(path, -1, false, stubResolver{})
	require.NoError(t, err)
	require.Len(t, b.GetOpening(0).Moves, 3)
}

func TestBook_ApplyRotateAndTruncate(t *testing.T) {
	path := writeTemp(t, "book.epd", "A\nB\nC\nD\n")
	b, err := LoadEPD(path)
	require.NoError(t, err)

	cfg := types.OpeningConfig{Order: types.OrderSequential, Start: 2}
	require.NoError(t, b.Apply(cfg, 2, 1, 0, 0))
	require.Equal(t, 2, b.Len())
	require.Equal(t, "B", b.GetOpening(0).StartFEN)
	require.Equal(t, "C", b.GetOpening(1).StartFEN)
}

func TestBook_GetOpeningWrapsModuloLength(t *testing.T) {
	path := writeTemp(t, "book.epd", "A\nB\n")
	b, err := LoadEPD(path)
	require.NoError(t, err)

	require.Equal(t, "A", b.GetOpening(0).StartFEN)
	require.Equal(t, "B", b.GetOpening(1).StartFEN)
	require.Equal(t, "A", b.GetOpening(2).StartFEN)
	require.Equal(t, "B", b.GetOpening(3).StartFEN)
}

func TestBook_ApplyEmptyAfterTruncateIsFatal(t *testing.T) {
	path := writeTemp(t, "book.epd", "A\n")
	b, err := LoadEPD(path)
	require.NoError(t, err)

	cfg := types.OpeningConfig{Start: 1}
	err = b.Apply(cfg, 0, 1, 0, 0)
	require.ErrorIs(t, err, ErrEmptyBook)
}

func TestBook_FetchIDCyclesAndIncrements(t *testing.T) {
	path := writeTemp(t, "book.epd", "A\nB\n")
	b, err := LoadEPD(path)
	require.NoError(t, err)

	require.Equal(t, 0, b.FetchID())
	require.Equal(t, 1, b.FetchID())
	require.Equal(t, 0, b.FetchID())
}
