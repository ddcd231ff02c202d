// Package scheduler produces the ordered sequence of Pairings a tournament
// variant (round-robin or gauntlet) will play, and skips the pairings
// already consumed by a prior run on resume.
package scheduler

import (
	"sync"

	"github.com/joeycumines/fastchess-sub001/internal/types"
)

// Scheduler serves Pairings in a fixed, deterministic order. Next, Total
// and Remaining take its lock internally; the order pairings *complete* in
// is up to the orchestrator, not this package.
type Scheduler struct {
	mu       sync.Mutex
	pairings []types.Pairing
	pos      int
}

// pair is one unordered (or seed, challenger) player pairing before game
// and round expansion.
type pair struct {
	p1, p2 int
}

// roundRobinPairs produces every unordered pair (i, j), i < j.
func roundRobinPairs(n int) []pair {
	var out []pair
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			out = append(out, pair{i, j})
		}
	}
	return out
}

// gauntletPairs produces all (seed, challenger) pairs with seed < nSeeds <=
// challenger.
func gauntletPairs(n, nSeeds int) []pair {
	var out []pair
	for seed := 0; seed < nSeeds && seed < n; seed++ {
		for challenger := nSeeds; challenger < n; challenger++ {
			out = append(out, pair{seed, challenger})
		}
	}
	return out
}

// New builds a Scheduler for the given player names, variant, and game/
// round counts, expanding each base pair into games Pairings per round
// (games*rounds in all); the games of one base pair within one round share
// a pairing_id and an opening_id. It also consumes
// initialMatchCount pairings internally so the first externally visible
// Next() returns the first unplayed game.
func New(players []string, cfg types.TournamentConfig, initialMatchCount int) *Scheduler {
	var base []pair
	switch cfg.Variant {
	case types.VariantGauntlet:
		base = gauntletPairs(len(players), cfg.GauntletSeeds)
	default:
		base = roundRobinPairs(len(players))
	}

	var pairings []types.Pairing
	gameID := 0
	pairingID := 0
	openingID := 0
	for round := 0; round < cfg.Rounds; round++ {
		for _, b := range base {
			for g := 0; g < cfg.Games; g++ {
				pairings = append(pairings, types.Pairing{
					Player1:   players[b.p1],
					Player2:   players[b.p2],
					GameID:    gameID,
					PairingID: pairingID,
					RoundID:   round,
					OpeningID: openingID,
				})
				gameID++
			}
			pairingID++
			openingID++
		}
	}

	s := &Scheduler{pairings: pairings}
	if initialMatchCount > 0 && initialMatchCount <= len(pairings) {
		s.pos = initialMatchCount
	}
	return s
}

// Next returns the next unplayed Pairing, or false once exhausted.
// Exhaustion is not an error: the caller simply stops enqueueing.
func (s *Scheduler) Next() (types.Pairing, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos >= len(s.pairings) {
		return types.Pairing{}, false
	}
	p := s.pairings[s.pos]
	s.pos++
	return p, true
}

// Total returns the exact number of Pairings this Scheduler will ever
// emit, including any already consumed via initialMatchCount.
func (s *Scheduler) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pairings)
}

// Remaining returns how many Pairings have not yet been handed out by
// Next.
func (s *Scheduler) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pairings) - s.pos
}
