// Package matchrunner declares the match-runner contract: given two leased
// engine sessions and an opening, play one game and produce a MatchData.
// The per-move conversation and adjudication logic are out of scope; this
// package only fixes the call boundary the orchestrator depends on.
package matchrunner

import (
	"github.com/joeycumines/fastchess-sub001/internal/enginesession"
	"github.com/joeycumines/fastchess-sub001/internal/types"
)

// Runner plays one game between white and black starting from opening,
// optionally pinned to cpus, and returns the resulting MatchData. It must
// set MatchData.NeedsRestart for either side it wants the engine cache to
// destroy, and must set Termination to Stall or Disconnect when the
// subprocess I/O driver reported engine death rather than a normal finish.
type Runner interface {
	Run(white, black enginesession.Session, opening types.Opening, cpus []int) types.MatchData
}

// RunnerFunc adapts a plain function to the Runner interface.
type RunnerFunc func(white, black enginesession.Session, opening types.Opening, cpus []int) types.MatchData

func (f RunnerFunc) Run(white, black enginesession.Session, opening types.Opening, cpus []int) types.MatchData {
	return f(white, black, opening, cpus)
}
