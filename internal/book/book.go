// Package book loads an opening book from an EPD or PGN file and serves
// openings by index after a deterministic shuffle/rotate/truncate pass.
// Move legality and SAN-to-UCI conversion are out of scope for this
// package; PGN loading consults a caller-supplied MoveResolver for that,
// the same way the core treats EngineSession as an external contract.
package book

import (
	"bufio"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"github.com/joeycumines/fastchess-sub001/internal/types"
)

// ErrEmptyBook is returned when the book has no entries after loading, or
// none left after truncation — a fatal configuration error per the core's
// contract (the CLI parser is expected to have already validated this in
// a full build, but the loader still enforces it defensively).
var ErrEmptyBook = errors.New("book: empty after load")

// MoveResolver converts one SAN move played from a position into its UCI
// form and the FEN that results. It is not told whether the game is
// Chess960, so the castling encoding (king-takes-rook or king-two-squares)
// is whatever the resolver returns. A real implementation requires a full
// chess-rules engine, which is out of scope here.
type MoveResolver interface {
	// ApplySAN plays one SAN move from fen, returning its UCI form and the
	// resulting FEN.
	ApplySAN(fen, san string) (uci, nextFEN string, err error)
}

// StartPosition is the standard chess starting position, used whenever a
// PGN game omits a FEN header.
const StartPosition = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Book is an indexed sequence of Openings served to the scheduler by
// position. Shuffle, RotateLeft and Truncate reorder it in place (Apply
// runs them once after loading), and FetchID advances an internal counter.
type Book struct {
	openings []types.Opening
	fetchIdx int
}

// LoadEPD reads one FEN per non-empty line; each Opening built this way
// always has an empty move list.
func LoadEPD(path string) (*Book, error) {
	lines, err := readNonEmptyLines(path)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyBook
	}
	openings := make([]types.Opening, len(lines))
	for i, fen := range lines {
		openings[i] = types.Opening{StartFEN: fen}
	}
	return &Book{openings: openings}, nil
}

// pgnGame is one parsed record: an optional FEN header and all of its
// ordered main-line SAN moves (LoadPGN applies the plies limit).
type pgnGame struct {
	fen   string
	sans  []string
}

// LoadPGN parses path for games, converting each game's main line (skipping
// variations) to UCI moves via resolver, truncated at plies half-moves
// (negative means unbounded). isFRC is accepted but not used: it is not
// passed to resolver, and castling moves keep whatever encoding resolver
// returns.
func LoadPGN(path string, plies int, isFRC bool, resolver MoveResolver) (*Book, error) {
	games, err := parsePGN(path)
	if err != nil {
		return nil, err
	}
	if len(games) == 0 {
		return nil, ErrEmptyBook
	}

	openings := make([]types.Opening, 0, len(games))
	for _, g := range games {
		fen := g.fen
		if fen == "" {
			fen = StartPosition
		}
		var moves []string
		cur := fen
		limit := len(g.sans)
		if plies >= 0 && plies < limit {
			limit = plies
		}
		for i := 0; i < limit; i++ {
			uci, next, err := resolver.ApplySAN(cur, g.sans[i])
			if err != nil {
				return nil, fmt.Errorf("book: resolving move %d of game: %w", i, err)
			}
			moves = append(moves, uci)
			cur = next
		}
		openings = append(openings, types.Opening{StartFEN: fen, Moves: moves})
	}
	return &Book{openings: openings}, nil
}

// Shuffle performs a Fisher-Yates shuffle seeded deterministically by seed.
func (b *Book) Shuffle(seed int64) {
	r := rand.New(rand.NewSource(seed))
	r.Shuffle(len(b.openings), func(i, j int) {
		b.openings[i], b.openings[j] = b.openings[j], b.openings[i]
	})
}

// RotateLeft rotates the book left by n positions (mod length), skipping
// openings already consumed in a prior run on resume.
func (b *Book) RotateLeft(n int) {
	if len(b.openings) == 0 {
		return
	}
	n = ((n % len(b.openings)) + len(b.openings)) % len(b.openings)
	b.openings = append(b.openings[n:], b.openings[:n]...)
}

// Truncate keeps only the first n entries.
func (b *Book) Truncate(n int) {
	if n < len(b.openings) {
		b.openings = b.openings[:n]
	}
}

// Len returns the number of loaded openings.
func (b *Book) Len() int {
	return len(b.openings)
}

// GetOpening serves opening idx, wrapping modulo Len() so a book shorter
// than the scheduler's distinct opening_id range is still served cyclically
// rather than indexed out of bounds (the original book only ever keeps
// `rounds` entries after Apply's truncate, yet a tournament with more than
// one base pairing assigns more distinct opening_ids than that per round).
func (b *Book) GetOpening(idx int) types.Opening {
	return b.openings[idx%len(b.openings)]
}

// FetchID returns the next cyclic index and advances the internal counter.
func (b *Book) FetchID() int {
	if len(b.openings) == 0 {
		return 0
	}
	idx := b.fetchIdx % len(b.openings)
	b.fetchIdx++
	return idx
}

// Apply runs the standard post-load transform pipeline: shuffle (if
// order is Random), rotate left by (start-1)+initialMatchCount/games, then
// truncate to rounds entries. Returns ErrEmptyBook if nothing survives.
func (b *Book) Apply(cfg types.OpeningConfig, rounds, games, initialMatchCount int, seed int64) error {
	if cfg.Order == types.OrderRandom {
		b.Shuffle(seed)
	}
	skip := (cfg.Start - 1)
	if games > 0 {
		skip += initialMatchCount / games
	}
	b.RotateLeft(skip)
	b.Truncate(rounds)
	if b.Len() == 0 {
		return ErrEmptyBook
	}
	return nil
}

func readNonEmptyLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("book: open %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("book: read %s: %w", path, err)
	}
	return lines, nil
}

// parsePGN extracts the FEN header and main-line SAN tokens from each game
// record in path, skipping any parenthesized variation text.
func parsePGN(path string) ([]pgnGame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("book: open %s: %w", path, err)
	}
	defer f.Close()

	var games []pgnGame
	cur := pgnGame{}
	inMoves := false
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	flush := func() {
		if cur.fen != "" || len(cur.sans) > 0 {
			games = append(games, cur)
		}
		cur = pgnGame{}
		inMoves = false
	}

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			if inMoves {
				flush()
			}
			continue
		}
		if strings.HasPrefix(line, "[") {
			if inMoves {
				flush()
			}
			if strings.HasPrefix(line, `[FEN "`) {
				end := strings.Index(line[6:], `"`)
				if end >= 0 {
					cur.fen = line[6 : 6+end]
				}
			}
			continue
		}
		inMoves = true
		cur.sans = append(cur.sans, tokenizeMoveLine(line)...)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("book: read %s: %w", path, err)
	}
	flush()
	return games, nil
}

// tokenizeMoveLine splits a PGN move-text line into SAN tokens, dropping
// move numbers, result markers, comments, and any parenthesized variation.
func tokenizeMoveLine(line string) []string {
	var out []string
	depth := 0
	for _, field := range strings.Fields(line) {
		for strings.Contains(field, "(") {
			depth++
			field = strings.Replace(field, "(", "", 1)
		}
		closeCount := strings.Count(field, ")")
		if depth > 0 {
			depth -= closeCount
			if depth < 0 {
				depth = 0
			}
			continue
		}
		field = strings.TrimSuffix(field, ")")
		if field == "" || isMoveNumber(field) || isResultMarker(field) {
			continue
		}
		out = append(out, field)
	}
	return out
}

func isMoveNumber(tok string) bool {
	i := strings.IndexByte(tok, '.')
	if i < 0 {
		return false
	}
	for _, c := range tok[:i] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func isResultMarker(tok string) bool {
	switch tok {
	case "1-0", "0-1", "1/2-1/2", "*":
		return true
	default:
		return false
	}
}
