package matchrunner

import (
	"time"

	"github.com/joeycumines/fastchess-sub001/internal/enginesession"
	"github.com/joeycumines/fastchess-sub001/internal/types"
)

// ReferenceRunner is a minimal Runner sufficient to exercise the
// orchestrator's contract in tests and default CLI wiring: it probes both
// sessions' readiness and reports a normally-terminated draw if both
// respond, or a Disconnect/Timeout otherwise. The actual per-move
// conversation, adjudication, and notation handling are out of scope
// (spec §1, §6 "Match runner").
type ReferenceRunner struct {
	Timeout time.Duration
}

var _ Runner = (*ReferenceRunner)(nil)

// NewReferenceRunner builds a ReferenceRunner using timeout as the
// readiness-probe deadline for both sides.
func NewReferenceRunner(timeout time.Duration) *ReferenceRunner {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ReferenceRunner{Timeout: timeout}
}

func (r *ReferenceRunner) Run(white, black enginesession.Session, opening types.Opening, cpus []int) types.MatchData {
	m := types.NewMatchData(opening.StartFEN)
	if len(cpus) > 0 {
		white.SetAffinity(cpus)
		black.SetAffinity(cpus)
	}

	wReady := white.IsReady(r.Timeout)
	bReady := black.IsReady(r.Timeout)

	m.Players[0].Name = white.LogName()
	m.Players[1].Name = black.LogName()

	switch {
	case wReady == enginesession.ReadyErr || bReady == enginesession.ReadyErr:
		m.Termination = types.TerminationDisconnect
		m.Reason = "engine disconnected"
	case wReady == enginesession.ReadyTimeout || bReady == enginesession.ReadyTimeout:
		m.Termination = types.TerminationTimeout
		m.Reason = "engine unresponsive"
		if wReady == enginesession.ReadyTimeout {
			m.Players[0].Result = types.ResultLose
			m.Players[1].Result = types.ResultWin
		} else {
			m.Players[0].Result = types.ResultWin
			m.Players[1].Result = types.ResultLose
		}
	default:
		m.Termination = types.TerminationNormal
		m.Reason = "draw by agreement"
		m.Players[0].Result = types.ResultDraw
		m.Players[1].Result = types.ResultDraw
	}

	m.EndTime = time.Now()
	m.Duration = m.EndTime.Sub(m.StartTime)
	m.FinalFEN = opening.StartFEN
	return m
}
