// Package tournament implements the tournament orchestrator (spec §4.8,
// C10): the worker pool, the per-game pipeline, the end-of-game critical
// section, SPRT-triggered early stop, and periodic autosave.
package tournament

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joeycumines/fastchess-sub001/internal/affinity"
	"github.com/joeycumines/fastchess-sub001/internal/book"
	"github.com/joeycumines/fastchess-sub001/internal/enginecache"
	"github.com/joeycumines/fastchess-sub001/internal/enginesession"
	"github.com/joeycumines/fastchess-sub001/internal/logging"
	"github.com/joeycumines/fastchess-sub001/internal/matchrunner"
	"github.com/joeycumines/fastchess-sub001/internal/output"
	"github.com/joeycumines/fastchess-sub001/internal/persist"
	"github.com/joeycumines/fastchess-sub001/internal/scheduler"
	"github.com/joeycumines/fastchess-sub001/internal/scoreboard"
	"github.com/joeycumines/fastchess-sub001/internal/sprt"
	"github.com/joeycumines/fastchess-sub001/internal/tracker"
	"github.com/joeycumines/fastchess-sub001/internal/types"
	"github.com/joeycumines/fastchess-sub001/internal/writer"
)

// Deps bundles the out-of-scope collaborators a Tournament needs: the
// match runner and engine session factory are both external contracts
// (spec §1 "Out of scope").
type Deps struct {
	SessionFactory enginesession.Factory
	Runner         matchrunner.Runner
	Output         output.Output
	// Logger is the root logger passed to every spawned engine session;
	// sessions derive their per-engine realtime-logging child logger from
	// it when a config's realtime_logging flag is set. Nil disables
	// realtime logging regardless of that flag.
	Logger *logging.Logger
}

// Tournament owns every long-lived component assembled at startup (spec
// §4.8 "Startup") and runs the per-game pipeline via a fixed worker pool
// until the schedule is exhausted, SPRT concludes, or the process
// stop-flag is set.
type Tournament struct {
	cfg     types.TournamentConfig
	engines []types.EngineConfig
	byName  map[string]types.EngineConfig

	book      *book.Book
	scheduler *scheduler.Scheduler
	scoreboard *scoreboard.ScoreBoard
	sprtMon   *sprt.Monitor
	tracker   *tracker.PlayerTracker
	cache     *enginecache.Cache
	affinity  *affinity.Pool
	pool      *Pool
	out       output.Output
	runner    matchrunner.Runner

	pgnWriter *writer.FileWriter
	epdWriter *writer.FileWriter

	outputMu sync.Mutex

	matchCount       atomic.Int64
	finalMatchCount  int
	initialMatchCount int

	stopFlag     atomic.Bool
	abnormalFlag atomic.Bool
}

// New assembles a Tournament from cfg, the per-engine configs (order
// fixes scheduler pairing indices), a previously persisted stats
// snapshot (nil/empty for a fresh run), and the out-of-scope
// collaborators in deps.
func New(cfg types.TournamentConfig, engines []types.EngineConfig, resumeStats map[string]types.Stats, deps Deps) (*Tournament, error) {
	if len(engines) < 2 {
		return nil, fmt.Errorf("tournament: need at least two engines, got %d", len(engines))
	}

	names := make([]string, len(engines))
	byName := make(map[string]types.EngineConfig, len(engines))
	for i, e := range engines {
		names[i] = e.Name
		byName[e.Name] = e
	}

	sb := scoreboard.New()
	if len(resumeStats) > 0 {
		sb.Merge(resumeStats)
	}
	initialMatchCount := types.PersistedState{Stats: resumeStats}.InitialMatchCount()

	bk, err := loadBook(cfg)
	if err != nil {
		return nil, fmt.Errorf("tournament: loading opening book: %w", err)
	}
	if err := bk.Apply(cfg.Opening, cfg.Rounds, cfg.Games, initialMatchCount, 0); err != nil {
		return nil, fmt.Errorf("tournament: preparing opening book: %w", err)
	}

	sched := scheduler.New(names, cfg, initialMatchCount)

	mon := sprt.New(cfg.Sprt.Alpha, cfg.Sprt.Beta, cfg.Sprt.Elo0, cfg.Sprt.Elo1, cfg.Sprt.Model, cfg.Sprt.Enabled)

	var pgnW *writer.FileWriter
	if cfg.Pgn.File != "" {
		pgnW, err = writer.NewPGNWriter(cfg.Pgn, initialMatchCount > 0)
		if err != nil {
			return nil, fmt.Errorf("tournament: opening pgn writer: %w", err)
		}
	}
	var epdW *writer.FileWriter
	if cfg.Epd.File != "" {
		epdW, err = writer.NewEPDWriter(cfg.Epd, initialMatchCount > 0)
		if err != nil {
			return nil, fmt.Errorf("tournament: opening epd writer: %w", err)
		}
	}

	// Bound repeated spawn failures per engine name: a crash-looping engine
	// config should stop eating fresh subprocess attempts well before it
	// exhausts the operator's patience, matching DESIGN.md's C4 wiring of
	// go-catrate as a per-category failure-rate guard rather than an
	// unconditional retry.
	failureRates := map[time.Duration]int{
		10 * time.Second: 3,
		time.Minute:       8,
	}
	cache := enginecache.New(deps.SessionFactory, failureRates, deps.Logger)
	pool := affinity.NewPool(cfg.UseAffinity, cfg.CPUs, cfg.ThreadsPerEngine)

	t := &Tournament{
		cfg:               cfg,
		engines:           engines,
		byName:            byName,
		book:              bk,
		scheduler:         sched,
		scoreboard:        sb,
		sprtMon:           mon,
		tracker:           tracker.New(),
		cache:             cache,
		affinity:          pool,
		out:               deps.Output,
		runner:            deps.Runner,
		pgnWriter:         pgnW,
		epdWriter:         epdW,
		finalMatchCount:   sched.Total(),
		initialMatchCount: initialMatchCount,
	}
	t.matchCount.Store(int64(initialMatchCount))
	t.pool = NewPool(cfg.Concurrency, affinity.NewThreadBinder(pool))
	return t, nil
}

func loadBook(cfg types.TournamentConfig) (*book.Book, error) {
	switch cfg.Opening.Format {
	case types.FormatPGN:
		return book.LoadPGN(cfg.Opening.File, cfg.Opening.Plies, false, passthroughResolver{})
	default:
		return book.LoadEPD(cfg.Opening.File)
	}
}

// passthroughResolver is used only when no chess-rules engine is wired in.
// SAN-to-UCI conversion is out of scope (spec §1), so ApplySAN always
// fails: a PGN book loads only when no moves are resolved (plies=0, or
// games without moves), giving FEN-only openings; otherwise loading fails
// with this error.
type passthroughResolver struct{}

func (passthroughResolver) ApplySAN(fen, san string) (string, string, error) {
	return "", fen, fmt.Errorf("tournament: SAN resolution unavailable (out of scope): %q", san)
}

// Run kicks off the initial batch of games (one per worker) and blocks
// until the schedule is exhausted, SPRT concludes, or the stop-flag is
// externally set (e.g. by a SIGINT handler calling Stop()). It returns
// true if the tournament ended abnormally (spec §6 "Exit codes").
func (t *Tournament) Run() bool {
	for i := 0; i < t.cfg.Concurrency; i++ {
		t.enqueueNext()
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	nextSave := t.initialMatchCount + t.cfg.AutosaveInterval

	for int(t.matchCount.Load()) < t.finalMatchCount && !t.stopFlag.Load() {
		<-ticker.C
		if t.cfg.AutosaveInterval > 0 && int(t.matchCount.Load()) >= nextSave {
			t.saveJSON()
			nextSave += t.cfg.AutosaveInterval
		}
	}

	t.printTrackerStats()
	t.saveJSON()

	t.pool.Stop()
	t.pool.Join()
	t.cache.Close()

	return t.abnormalFlag.Load()
}

// Stop sets the process stop-flag exactly once; used by a SIGINT handler
// installed by the caller (the Ctrl-C handling itself is outside this
// package's scope — cmd/fastchess-sub001 wires signal.Notify to this).
func (t *Tournament) Stop() {
	if !t.stopFlag.Swap(true) {
		fmt.Fprintln(os.Stderr, "Interrupted — stopping tournament...")
	}
}

func (t *Tournament) enqueueNext() {
	pairing, ok := t.scheduler.Next()
	if !ok {
		return
	}
	t.pool.Enqueue(func(bind bindFunc) {
		t.runGame(pairing, bind)
	})
}

func (t *Tournament) printTrackerStats() {
	for _, e := range t.tracker.Iter() {
		fmt.Printf("Player: %s\n  Timeouts: %d\n  Crashed: %d\n", e.Name, e.Timeouts, e.Disconnects)
	}
}

// saveJSON serializes the tournament config, engine configs, and merged
// scoreboard to cfg.ConfigName. Failures log a warning and do not abort
// (spec §7 "soft failures").
func (t *Tournament) saveJSON() {
	if t.cfg.ConfigName == "" {
		return
	}
	state := types.PersistedState{
		Config:  t.cfg,
		Engines: t.engines,
		Stats:   t.mergedStats(),
	}
	if err := persist.Save(t.cfg.ConfigName, state); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
}

// mergedStats walks every unordered engine pair exactly once and reads
// its current scoreboard snapshot, mirroring the original's
// merge_results lambda.
func (t *Tournament) mergedStats() map[string]types.Stats {
	out := make(map[string]types.Stats)
	seen := make(map[string]bool)
	for _, a := range t.engines {
		for _, b := range t.engines {
			if a.Name == b.Name {
				continue
			}
			key := a.Name + "|" + b.Name
			revKey := b.Name + "|" + a.Name
			if seen[key] || seen[revKey] {
				continue
			}
			out[key] = t.scoreboard.GetStats(a.Name, b.Name)
			seen[key] = true
		}
	}
	return out
}

// AbnormalTermination reports whether the run ended without completing
// its schedule (spec §6 "Exit codes").
func (t *Tournament) AbnormalTermination() bool {
	return t.abnormalFlag.Load()
}
