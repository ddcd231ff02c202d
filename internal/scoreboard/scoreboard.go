// Package scoreboard tracks per-pair WDL and pentanomial statistics with
// interior mutability: a single mutex over the pair map plus a set of
// completed pairing ids.
package scoreboard

import (
	"fmt"
	"sync"

	"github.com/joeycumines/fastchess-sub001/internal/types"
)

// pairKey is the map key for a directed pair; (A, B) and (B, A) are
// distinct keys.
type pairKey struct {
	first, second string
}

// entry holds one ordered pair's stats plus any half-played pairing
// buffered pending its second game.
type entry struct {
	stats   types.Stats
	pending map[int]pendingHalf
}

type pendingHalf struct {
	result types.GameResult
}

// ScoreBoard maps an ordered (first, second) player-name pair to Stats,
// plus the set of completed pairing ids.
type ScoreBoard struct {
	mu        sync.Mutex
	entries   map[pairKey]*entry
	completed map[int]bool
}

// New returns an empty ScoreBoard.
func New() *ScoreBoard {
	return &ScoreBoard{
		entries:   make(map[pairKey]*entry),
		completed: make(map[int]bool),
	}
}

func (sb *ScoreBoard) entryFor(first, second string) *entry {
	k := pairKey{first, second}
	e := sb.entries[k]
	if e == nil {
		e = &entry{pending: make(map[int]pendingHalf)}
		sb.entries[k] = e
	}
	return e
}

// UpdateNonPair adds a WDL delta (from first's perspective) to the
// ordered (first, second) entry, used when report_penta is false.
func (sb *ScoreBoard) UpdateNonPair(first, second string, delta types.Stats) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	e := sb.entryFor(first, second)
	e.stats.Wins += delta.Wins
	e.stats.Draws += delta.Draws
	e.stats.Losses += delta.Losses
}

// UpdatePair buffers the first half of a pairing, or combines it with the
// now-arriving second half into a pentanomial bucket and increments WDL.
// Both halves contribute to WDL; only the second increments a pentanomial
// bucket and marks the pairing completed.
func (sb *ScoreBoard) UpdatePair(first, second string, delta types.Stats, pairingID int, result types.GameResult) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	e := sb.entryFor(first, second)
	e.stats.Wins += delta.Wins
	e.stats.Draws += delta.Draws
	e.stats.Losses += delta.Losses

	half, buffered := e.pending[pairingID]
	if !buffered {
		e.pending[pairingID] = pendingHalf{result: result}
		return
	}

	delete(e.pending, pairingID)
	switch combinePenta(half.result, result) {
	case pentaWW:
		e.stats.PentaWW++
	case pentaWD:
		e.stats.PentaWD++
	case pentaWL:
		e.stats.PentaWL++
	case pentaDD:
		e.stats.PentaDD++
	case pentaLD:
		e.stats.PentaLD++
	case pentaLL:
		e.stats.PentaLL++
	}
	sb.completed[pairingID] = true
}

type pentaBucket int

const (
	pentaWW pentaBucket = iota
	pentaWD
	pentaWL
	pentaDD
	pentaLD
	pentaLL
)

// combinePenta maps an unordered pair of first-player-1 results across the
// two colour-swapped games of a pairing to a pentanomial bucket. Results
// are already in "player1 of that game" terms; the pairing's two games
// swap which physical engine is player1, so callers pass both results in
// the first engine's perspective (Win beats the other engine, etc.).
func combinePenta(a, b types.GameResult) pentaBucket {
	norm := func(r types.GameResult) int {
		switch r {
		case types.ResultWin:
			return 1
		case types.ResultDraw:
			return 0
		default:
			return -1
		}
	}
	sum := norm(a) + norm(b)
	switch {
	case sum == 2:
		return pentaWW
	case sum == 1:
		return pentaWD
	case sum == 0 && (a == types.ResultWin || b == types.ResultWin):
		return pentaWL
	case sum == 0:
		return pentaDD
	case sum == -1:
		return pentaLD
	default:
		return pentaLL
	}
}

// IsPairCompleted reports whether both games of pairingID have updated the
// scoreboard.
func (sb *ScoreBoard) IsPairCompleted(pairingID int) bool {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.completed[pairingID]
}

// GetStats returns a snapshot of the (first, second) ordered entry,
// including any buffered half-result's WDL contribution.
func (sb *ScoreBoard) GetStats(first, second string) types.Stats {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	k := pairKey{first, second}
	e := sb.entries[k]
	if e == nil {
		return types.Stats{}
	}
	return e.stats
}

// Snapshot returns every ordered pair's stats keyed "first|second", the
// same convention used by persisted state.
func (sb *ScoreBoard) Snapshot() map[string]types.Stats {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	out := make(map[string]types.Stats, len(sb.entries))
	for k, e := range sb.entries {
		out[fmt.Sprintf("%s|%s", k.first, k.second)] = e.stats
	}
	return out
}

// Merge folds a persisted snapshot (keyed "first|second") into the live
// scoreboard, used on resume before any new games are played.
func (sb *ScoreBoard) Merge(snapshot map[string]types.Stats) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	for key, stats := range snapshot {
		parts := splitPairKey(key)
		if parts == nil {
			continue
		}
		e := sb.entryFor(parts[0], parts[1])
		e.stats = e.stats.Add(stats)
	}
}

func splitPairKey(key string) []string {
	for i := 0; i < len(key); i++ {
		if key[i] == '|' {
			return []string{key[:i], key[i+1:]}
		}
	}
	return nil
}
