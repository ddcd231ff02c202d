// Package output renders tournament progress to the console. Console
// formatting is switched by config between two familiar styles
// (Fastchess, Cutechess) or suppressed entirely (None); it is invoked via
// the narrow interface below so the orchestrator never depends on a
// concrete format (spec §6, §1 "Out of scope: Output formatters").
package output

import (
	"fmt"
	"io"

	"github.com/joeycumines/fastchess-sub001/internal/sprt"
	"github.com/joeycumines/fastchess-sub001/internal/types"
)

// Kind selects which concrete Output implementation a tournament uses.
type Kind int

const (
	KindFastchess Kind = iota
	KindCutechess
	KindNone
)

// Assignment names the two engines playing one game, already
// colour-assigned (white first).
type Assignment struct {
	White string
	Black string
}

// Output is the console side-effecting surface the orchestrator's
// end-of-game critical section calls into (spec §4.8 step 9, §6).
type Output interface {
	StartGame(a Assignment, gameID, total int)
	EndGame(a Assignment, delta types.Stats, reason string, gameID int)
	PrintResult(stats types.Stats, nameA, nameB string)
	PrintInterval(monitor *sprt.Monitor, stats types.Stats, nameA, nameB, openingFile string, reportPenta bool)
	EndTournament(msg string)
}

// New builds the Output implementation named by kind, writing to w.
func New(kind Kind, w io.Writer) Output {
	switch kind {
	case KindCutechess:
		return &cutechess{w: w}
	case KindNone:
		return noneOutput{}
	default:
		return &fastchess{w: w}
	}
}

// winRatio computes a simple percentage score for display, from nameA's
// perspective: (wins + draws/2) / total.
func winRatio(s types.Stats) float64 {
	total := s.Wins + s.Draws + s.Losses
	if total == 0 {
		return 0
	}
	return (float64(s.Wins) + float64(s.Draws)/2) / float64(total) * 100
}

type fastchess struct {
	w io.Writer
}

func (o *fastchess) StartGame(a Assignment, gameID, total int) {
	fmt.Fprintf(o.w, "Started game %d of %d (%s vs %s)\n", gameID+1, total, a.White, a.Black)
}

func (o *fastchess) EndGame(a Assignment, delta types.Stats, reason string, gameID int) {
	result := "1/2-1/2"
	switch {
	case delta.Wins > 0:
		result = "1-0"
	case delta.Losses > 0:
		result = "0-1"
	}
	fmt.Fprintf(o.w, "Finished game %d (%s vs %s): %s {%s}\n", gameID+1, a.White, a.Black, result, reason)
}

func (o *fastchess) PrintResult(stats types.Stats, nameA, nameB string) {
	fmt.Fprintf(o.w, "Score of %s vs %s: %d - %d - %d [%.3f] %d\n",
		nameA, nameB, stats.Wins, stats.Losses, stats.Draws,
		winRatio(stats)/100, stats.Wins+stats.Draws+stats.Losses)
}

func (o *fastchess) PrintInterval(m *sprt.Monitor, stats types.Stats, nameA, nameB, openingFile string, reportPenta bool) {
	if reportPenta {
		fmt.Fprintf(o.w, "Ptnml(0-2): %d, %d, %d, %d, %d\n",
			stats.PentaLL, stats.PentaLD, stats.PentaDD+stats.PentaWL, stats.PentaWD, stats.PentaWW)
	}
	if m.Enabled() {
		llr := m.GetLLR(stats, reportPenta)
		fmt.Fprintf(o.w, "SPRT: llr %.2f (%.1f%%), lbound %.2f, ubound %.2f\n",
			llr, m.GetFraction(llr)*100, m.LowerBound(), m.UpperBound())
	}
}

func (o *fastchess) EndTournament(msg string) {
	fmt.Fprintln(o.w, msg)
}

type cutechess struct {
	w io.Writer
}

func (o *cutechess) StartGame(a Assignment, gameID, total int) {
	fmt.Fprintf(o.w, "Started game %d of %d (%s vs %s)\n", gameID+1, total, a.White, a.Black)
}

func (o *cutechess) EndGame(a Assignment, delta types.Stats, reason string, gameID int) {
	result := "1/2-1/2"
	switch {
	case delta.Wins > 0:
		result = "1-0"
	case delta.Losses > 0:
		result = "0-1"
	}
	fmt.Fprintf(o.w, "Finished game %d (%s vs %s): %s {%s}\n", gameID+1, a.White, a.Black, result, reason)
}

func (o *cutechess) PrintResult(stats types.Stats, nameA, nameB string) {
	total := stats.Wins + stats.Draws + stats.Losses
	fmt.Fprintf(o.w, "Score of %s vs %s: %d - %d - %d  [%.3f] %d\n",
		nameA, nameB, stats.Wins, stats.Losses, stats.Draws, winRatio(stats)/100, total)
}

func (o *cutechess) PrintInterval(m *sprt.Monitor, stats types.Stats, nameA, nameB, openingFile string, reportPenta bool) {
	if m.Enabled() {
		llr := m.GetLLR(stats, reportPenta)
		fmt.Fprintf(o.w, "SPRT: llr %.2f %s %s\n", llr, m.Bounds(), m.Elo())
	}
}

func (o *cutechess) EndTournament(msg string) {
	fmt.Fprintln(o.w, msg)
}

type noneOutput struct{}

func (noneOutput) StartGame(Assignment, int, int)                            {}
func (noneOutput) EndGame(Assignment, types.Stats, string, int)               {}
func (noneOutput) PrintResult(types.Stats, string, string)                    {}
func (noneOutput) PrintInterval(*sprt.Monitor, types.Stats, string, string, string, bool) {}
func (noneOutput) EndTournament(string)                                       {}
