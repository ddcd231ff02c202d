package tournament

import (
	"fmt"

	"github.com/joeycumines/fastchess-sub001/internal/enginecache"
	"github.com/joeycumines/fastchess-sub001/internal/enginesession"
	"github.com/joeycumines/fastchess-sub001/internal/output"
	"github.com/joeycumines/fastchess-sub001/internal/sprt"
	"github.com/joeycumines/fastchess-sub001/internal/types"
	"github.com/joeycumines/fastchess-sub001/internal/writer"
)

// runGame executes one game end-to-end (spec §4.8 "Per-game pipeline").
// It may enqueue its own successor before returning; a single invocation
// never blocks on another game's critical section except via the shared
// output mutex.
func (t *Tournament) runGame(pairing types.Pairing, bind bindFunc) {
	// 1. Early exit.
	if t.stopFlag.Load() {
		return
	}

	// 2. Affinity binding (lazy per-worker lease, reused for this worker's
	// remaining lifetime).
	var cpus []int
	if t.affinity.Enabled() {
		cpus = bind()
	}

	player1 := t.byName[pairing.Player1]
	player2 := t.byName[pairing.Player2]

	// 3. Color assignment.
	white, black := player1, player2
	if pairing.GameID%2 == 0 && !t.cfg.NoSwap {
		white, black = black, white
	}
	if t.cfg.Reverse {
		white, black = black, white
	}

	// 4. Opening fetch.
	opening := t.book.GetOpening(pairing.OpeningID)

	assignment := output.Assignment{White: white.Name, Black: black.Name}

	// 5. Announce start.
	t.out.StartGame(assignment, pairing.GameID, t.finalMatchCount)

	// 6. Session lease.
	realtime := t.cfg.Log.Realtime
	whiteGuard, err := t.cache.GetEngine(white, realtime)
	if err != nil {
		t.setAbnormal(fmt.Sprintf("game %d: failed to start %s: %v", pairing.GameID, white.Name, err))
		return
	}
	defer whiteGuard.Release()

	blackGuard, err := t.cache.GetEngine(black, realtime)
	if err != nil {
		t.setAbnormal(fmt.Sprintf("game %d: failed to start %s: %v", pairing.GameID, black.Name, err))
		return
	}
	defer blackGuard.Release()

	// 7. Play.
	matchData := t.runner.Run(whiteGuard.Session(), blackGuard.Session(), opening, cpus)

	if matchData.Termination == types.TerminationStall || matchData.Termination == types.TerminationDisconnect {
		if !t.cfg.Recover {
			if !t.stopFlag.Swap(true) {
				fmt.Printf("Game %d stalled/disconnected, no recover option set, stopping tournament.\n", pairing.GameID)
				t.abnormalFlag.Store(true)
			}
			return
		}
		t.recoverSession(whiteGuard, matchData.NeedsRestart[0])
		t.recoverSession(blackGuard, matchData.NeedsRestart[1])
	}

	// 8. Result classification.
	if matchData.Termination == types.TerminationInterrupt || t.stopFlag.Load() {
		t.recordTimeoutOrDisconnect(matchData)
		return
	}

	delta, resultForP1 := playerOnePerspective(matchData, white.Name, player1.Name)

	// 9-10. End-of-game critical section plus the post-CS writes.
	t.endOfGameCriticalSection(pairing, assignment, delta, resultForP1, matchData, player1.Name, player2.Name)

	// 11. Accounting.
	t.recordTimeoutOrDisconnect(matchData)
}

// endOfGameCriticalSection implements spec §4.8 step 9 (everything under
// output_mutex, serialized across all workers) followed by step 10 (the
// writes and next-game enqueue that must happen outside the lock).
func (t *Tournament) endOfGameCriticalSection(
	pairing types.Pairing,
	assignment output.Assignment,
	delta types.Stats,
	resultForP1 types.GameResult,
	m types.MatchData,
	player1Name, player2Name string,
) {
	t.outputMu.Lock()

	t.out.EndGame(assignment, delta, m.Reason, pairing.GameID)

	if t.cfg.ReportPenta {
		t.scoreboard.UpdatePair(player1Name, player2Name, delta, pairing.PairingID, resultForP1)
	} else {
		t.scoreboard.UpdateNonPair(player1Name, player2Name, delta)
	}

	current := t.matchCount.Load()
	isLast := int(current)+1 == t.finalMatchCount

	scoreInterval := t.cfg.ScoreInterval
	if scoreInterval <= 0 {
		scoreInterval = 1
	}
	if (int(current)+1)%scoreInterval == 0 || isLast {
		t.out.PrintResult(t.scoreboard.GetStats(player1Name, player2Name), player1Name, player2Name)
	}

	var ratingIdx int
	if t.cfg.ReportPenta {
		ratingIdx = pairing.PairingID + 1
	} else {
		ratingIdx = int(current) + 1
	}
	pairDone := true
	if t.cfg.ReportPenta {
		pairDone = t.scoreboard.IsPairCompleted(pairing.PairingID)
	}
	ratingDue := t.cfg.RatingInterval > 0 && ratingIdx%t.cfg.RatingInterval == 0

	printedInterval := false
	if (ratingDue && pairDone) || isLast {
		t.out.PrintInterval(t.sprtMon, t.scoreboard.GetStats(player1Name, player2Name), player1Name, player2Name, t.cfg.Opening.File, t.cfg.ReportPenta)
		printedInterval = true
	}

	sprtStoppedNow := false
	if t.sprtMon.Enabled() {
		stats := t.scoreboard.GetStats(player1Name, player2Name)
		llr := t.sprtMon.GetLLR(stats, t.cfg.ReportPenta)
		result := t.sprtMon.GetResult(llr)
		if result != sprt.Continue || isLast {
			t.stopFlag.Store(true)
			if !printedInterval {
				t.out.PrintResult(stats, player1Name, player2Name)
				t.out.PrintInterval(t.sprtMon, stats, player1Name, player2Name, t.cfg.Opening.File, t.cfg.ReportPenta)
			}
			t.out.EndTournament(fmt.Sprintf("SPRT (%s) completed - %s was accepted", t.sprtMon.Elo(), result))
			sprtStoppedNow = true
		}
	}

	t.outputMu.Unlock()

	// Post-CS writes, outside the lock: ordered per-file by each writer's
	// own mutex, not across workers (spec §5).
	if t.pgnWriter != nil {
		if err := t.pgnWriter.Write(writer.BuildPGN(t.cfg.Pgn, m, pairing.RoundID)); err != nil {
			fmt.Printf("warning: pgn write failed: %v\n", err)
		}
	}
	if t.epdWriter != nil {
		if epd := writer.BuildEPD(m); epd != "" {
			if err := t.epdWriter.Write(epd); err != nil {
				fmt.Printf("warning: epd write failed: %v\n", err)
			}
		}
	}

	t.matchCount.Add(1)

	if !sprtStoppedNow && !t.stopFlag.Load() {
		t.enqueueNext()
	}
}

// recoverSession probes a session's readiness under recover=on; a failed
// probe (or a runner-requested restart) marks the guard for destruction
// on release rather than returning it to the free-list (spec §4.8 step
// 7).
func (t *Tournament) recoverSession(guard *enginecache.Guard, needsRestart bool) {
	if needsRestart {
		guard.MarkUnhealthy()
		return
	}
	if guard.Session().IsReady(t.cfg.PingTimeout) != enginesession.ReadyOK {
		guard.MarkUnhealthy()
	}
}

func (t *Tournament) setAbnormal(msg string) {
	if !t.stopFlag.Swap(true) {
		fmt.Println(msg)
	}
	t.abnormalFlag.Store(true)
}

func (t *Tournament) recordTimeoutOrDisconnect(m types.MatchData) {
	loser, ok := m.LosingPlayer()
	if !ok {
		return
	}
	switch m.Termination {
	case types.TerminationTimeout:
		t.tracker.ReportTimeout(loser)
	case types.TerminationDisconnect, types.TerminationStall:
		t.tracker.ReportDisconnect(loser)
	}
}

// playerOnePerspective converts white's GameResult into a Stats delta and
// a GameResult oriented to pairing.Player1 (the scoreboard's canonical
// "first" side), regardless of which physical side is currently playing
// white (spec §4.6: WDL and pentanomial are always from player1's
// perspective, not from whichever side moved first in this particular
// game).
func playerOnePerspective(m types.MatchData, whiteName, player1Name string) (types.Stats, types.GameResult) {
	whiteResult := m.Players[0].Result
	result := whiteResult
	if whiteName != player1Name {
		result = invert(whiteResult)
	}
	var delta types.Stats
	switch result {
	case types.ResultWin:
		delta.Wins = 1
	case types.ResultLose:
		delta.Losses = 1
	case types.ResultDraw:
		delta.Draws = 1
	}
	return delta, result
}

func invert(r types.GameResult) types.GameResult {
	switch r {
	case types.ResultWin:
		return types.ResultLose
	case types.ResultLose:
		return types.ResultWin
	default:
		return r
	}
}
