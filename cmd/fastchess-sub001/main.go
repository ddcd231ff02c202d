// Command fastchess-sub001 runs a concurrent engine-vs-engine tournament.
//
// Full CLI/JSON configuration parsing is out of scope for the core (spec
// §1); this is the thin, directly-translated subset of the documented
// surface (spec §6) needed to actually launch a run — option parsing and
// validation beyond that belongs to a real CLI layer, not this package.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joeycumines/fastchess-sub001/internal/enginesession"
	"github.com/joeycumines/fastchess-sub001/internal/logging"
	"github.com/joeycumines/fastchess-sub001/internal/matchrunner"
	"github.com/joeycumines/fastchess-sub001/internal/output"
	"github.com/joeycumines/fastchess-sub001/internal/persist"
	"github.com/joeycumines/fastchess-sub001/internal/tournament"
	"github.com/joeycumines/fastchess-sub001/internal/types"
)

// engineSpecs collects the repeated "-engine key=val,key=val" arguments,
// one EngineConfig per occurrence.
type engineSpecs []types.EngineConfig

func (e *engineSpecs) String() string { return "" }

func (e *engineSpecs) Set(s string) error {
	cfg := types.EngineConfig{Restart: types.RestartOff, Options: map[string]string{}}
	for _, kv := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		switch k {
		case "name":
			cfg.Name = v
		case "cmd":
			cfg.Command = v
		case "dir":
			cfg.Dir = v
		case "restart":
			if v == "on" {
				cfg.Restart = types.RestartOn
			}
		case "args":
			cfg.Args = strings.Fields(v)
		default:
			cfg.Options[k] = v
		}
	}
	if cfg.Name == "" {
		cfg.Name = cfg.Command
	}
	*e = append(*e, cfg)
	return nil
}

func parseKVFlag(s string) map[string]string {
	out := make(map[string]string)
	for _, kv := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(kv, "=")
		if ok {
			out[k] = v
		}
	}
	return out
}

func atoiOr(m map[string]string, key string, def int) int {
	if v, ok := m[key]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func atofOr(m map[string]string, key string, def float64) float64 {
	if v, ok := m[key]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func main() {
	os.Exit(run())
}

func run() int {
	start := time.Now()

	cfg := types.DefaultTournamentConfig()

	var engines engineSpecs
	flag.Var(&engines, "engine", "engine spec: cmd=path,name=...,dir=...,args=\"...\",restart=on|off (repeatable)")
	concurrency := flag.Int("concurrency", 1, "number of games to run in parallel")
	rounds := flag.Int("rounds", 2, "number of rounds")
	games := flag.Int("games", 2, "games per pairing per round (1 or 2)")
	variant := flag.String("type", "round-robin", "round-robin|gauntlet")
	gauntletSeeds := flag.Int("gauntlet-seeds", 1, "number of seed engines for gauntlet")
	reportPenta := flag.Bool("report-penta", true, "report pentanomial statistics")
	openings := flag.String("openings", "", "file=...,format=epd|pgn,order=sequential|random,plies=P,start=S")
	sprtSpec := flag.String("sprt", "", "alpha=...,beta=...,elo0=...,elo1=...,model=normalized|bayesian|logistic")
	affinityOn := flag.Bool("affinity", false, "pin worker threads to physical cores")
	cpuList := flag.String("cpus", "", "comma-separated explicit CPU list")
	scoreInterval := flag.Int("scoreinterval", 1, "print score every N completed games")
	ratingInterval := flag.Int("ratinginterval", 10, "print rating/SPRT block every N rating units")
	autosaveInterval := flag.Int("autosaveinterval", 20, "autosave every N completed games")
	recover_ := flag.Bool("recover", false, "attempt to restart unresponsive engines instead of aborting")
	noSwap := flag.Bool("noswap", false, "do not alternate colours on even game ids")
	reverse := flag.Bool("reverse", false, "swap colours for every game (resolved Open Question, spec §9)")
	outputKind := flag.String("output", "fastchess", "fastchess|cutechess|none")
	pgnFile := flag.String("pgnout", "", "PGN output file")
	epdFile := flag.String("epdout", "", "EPD output file")
	configFile := flag.String("config", "", "resume file written by a previous run's autosave")
	logFile := flag.String("logfile", "", "log file path (stderr if empty)")

	flag.Parse()

	cfg.Concurrency = *concurrency
	cfg.Rounds = *rounds
	cfg.Games = *games
	cfg.GauntletSeeds = *gauntletSeeds
	cfg.ReportPenta = *reportPenta
	cfg.UseAffinity = *affinityOn
	cfg.Recover = *recover_
	cfg.NoSwap = *noSwap
	cfg.Reverse = *reverse
	cfg.ScoreInterval = *scoreInterval
	cfg.RatingInterval = *ratingInterval
	cfg.AutosaveInterval = *autosaveInterval
	cfg.Pgn.File = *pgnFile
	cfg.Epd.File = *epdFile
	cfg.Log.File = *logFile
	if *variant == "gauntlet" {
		cfg.Variant = types.VariantGauntlet
	}
	if *cpuList != "" {
		for _, s := range strings.Split(*cpuList, ",") {
			if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
				cfg.CPUs = append(cfg.CPUs, n)
			}
		}
	}
	if *openings != "" {
		m := parseKVFlag(*openings)
		cfg.Opening.File = m["file"]
		if m["format"] == "pgn" {
			cfg.Opening.Format = types.FormatPGN
		}
		if m["order"] == "random" {
			cfg.Opening.Order = types.OrderRandom
		}
		cfg.Opening.Plies = atoiOr(m, "plies", -1)
		cfg.Opening.Start = atoiOr(m, "start", 1)
	}
	if *sprtSpec != "" {
		m := parseKVFlag(*sprtSpec)
		cfg.Sprt.Enabled = true
		cfg.Sprt.Alpha = atofOr(m, "alpha", 0.05)
		cfg.Sprt.Beta = atofOr(m, "beta", 0.05)
		cfg.Sprt.Elo0 = atofOr(m, "elo0", 0)
		cfg.Sprt.Elo1 = atofOr(m, "elo1", 5)
		switch m["model"] {
		case "bayesian":
			cfg.Sprt.Model = types.SprtBayesian
		case "logistic":
			cfg.Sprt.Model = types.SprtLogistic
		default:
			cfg.Sprt.Model = types.SprtNormalized
		}
	}
	cfg.ConfigName = *configFile
	if cfg.ConfigName == "" {
		cfg.ConfigName = "config.json"
	}

	engineConfigs := []types.EngineConfig(engines)
	var resumeStats map[string]types.Stats
	if *configFile != "" {
		if state, err := persist.Load(*configFile); err == nil {
			cfg = state.Config
			engineConfigs = state.Engines
			resumeStats = state.Stats
		} else if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	if len(engineConfigs) < 2 {
		fmt.Fprintln(os.Stderr, "Error: at least two -engine specs are required")
		return 1
	}

	logger, closeLog, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer closeLog()
	logger.Info().Str("config", cfg.ConfigName).Log("starting tournament")

	outKind := output.KindFastchess
	switch *outputKind {
	case "cutechess":
		outKind = output.KindCutechess
	case "none":
		outKind = output.KindNone
	}

	deps := tournament.Deps{
		SessionFactory: enginesession.NewReferenceFactory(),
		Runner:         matchrunner.NewReferenceRunner(cfg.PingTimeout),
		Output:         output.New(outKind, os.Stdout),
		Logger:         logger,
	}

	tour, err := tournament.New(cfg, engineConfigs, resumeStats, deps)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		tour.Stop()
	}()

	abnormal := tour.Run()

	elapsed := time.Since(start)
	fmt.Printf("Finished in %s\n", elapsed.Round(time.Second))

	if abnormal {
		fmt.Fprintf(os.Stderr, "The tournament was interrupted abnormally.\nTo resume, use: -config %s\n", cfg.ConfigName)
		return 1
	}
	return 0
}
