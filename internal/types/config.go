package types

import "time"

// OrderType selects the post-load opening book transform.
type OrderType int

const (
	OrderSequential OrderType = iota
	OrderRandom
)

// FormatType selects the opening book's on-disk format.
type FormatType int

const (
	FormatEPD FormatType = iota
	FormatPGN
)

// SprtModel selects which LLR derivation the SPRT monitor uses.
type SprtModel int

const (
	SprtLogistic SprtModel = iota
	SprtBayesian
	SprtNormalized
)

// TournamentVariant selects the scheduler's pairing strategy.
type TournamentVariant int

const (
	VariantRoundRobin TournamentVariant = iota
	VariantGauntlet
)

// OpeningConfig mirrors the CLI's "-openings ..." surface.
type OpeningConfig struct {
	File   string
	Format FormatType
	Order  OrderType
	Plies  int // -1 means unbounded
	Start  int // 1-based index into the loaded book
}

// DefaultOpeningConfig matches the original Default impl's field values.
func DefaultOpeningConfig() OpeningConfig {
	return OpeningConfig{Plies: -1, Start: 1}
}

// SprtConfig mirrors the CLI's "-sprt ..." surface.
type SprtConfig struct {
	Enabled bool
	Alpha   float64
	Beta    float64
	Elo0    float64
	Elo1    float64
	Model   SprtModel
}

// PgnConfig controls the (out of scope) PGN writer's behavior; the core
// only threads it through unopened because start/end timestamps and
// move lists originate here.
type PgnConfig struct {
	File        string
	EventName   string
	Site        string
	AppendFile  bool
	Min         bool
	CRC         bool
}

// DefaultPgnConfig matches the original's Default impl.
func DefaultPgnConfig() PgnConfig {
	return PgnConfig{EventName: "Fastchess Tournament", Site: "?", AppendFile: true}
}

// EpdConfig controls the (out of scope) EPD writer's behavior.
type EpdConfig struct {
	File       string
	AppendFile bool
}

// DefaultEpdConfig matches the original's Default impl.
func DefaultEpdConfig() EpdConfig {
	return EpdConfig{AppendFile: true}
}

// LogLevel selects logiface's verbosity threshold.
type LogLevel int

const (
	LogTrace LogLevel = iota
	LogDebug
	LogInfo
	LogWarn
	LogError
	LogFatal
)

// LogConfig controls the ambient logger; ordinary file rotation and
// compression of rotated files are out of scope, the field is carried
// purely so persisted state round-trips losslessly.
type LogConfig struct {
	File         string
	Level        LogLevel
	AppendFile   bool
	Compress     bool
	Realtime     bool
	EngineComs   bool
}

// DefaultLogConfig matches the original's Default impl (Warn level).
func DefaultLogConfig() LogConfig {
	return LogConfig{Level: LogWarn}
}

// TournamentConfig is the top-level, process-lifetime configuration record.
// Populated once before the first worker starts; never mutated thereafter
// (see the Design Notes rationale for treating it as an immutable context
// rather than a global singleton).
type TournamentConfig struct {
	Variant           TournamentVariant
	Concurrency       int
	Games             int
	Rounds            int
	GauntletSeeds     int
	ReportPenta       bool
	UseAffinity       bool
	CPUs              []int
	ThreadsPerEngine  int
	Recover           bool
	NoSwap            bool
	Reverse           bool
	ScoreInterval     int
	RatingInterval    int
	AutosaveInterval  int
	StartupTimeout    time.Duration
	UciNewGameTimeout time.Duration
	PingTimeout       time.Duration
	Opening           OpeningConfig
	Sprt              SprtConfig
	Pgn               PgnConfig
	Epd               EpdConfig
	Log               LogConfig
	ConfigName        string
}

// DefaultTournamentConfig matches the original's Default impl's numeric
// defaults (autosaveinterval=20, ratinginterval=10, games=2, rounds=2,
// report_penta=true, scoreinterval=1, concurrency=1, gauntlet_seeds=1,
// startup_time=10s, ucinewgame_time=60s, ping_time=60s).
func DefaultTournamentConfig() TournamentConfig {
	return TournamentConfig{
		Concurrency:       1,
		Games:             2,
		Rounds:            2,
		GauntletSeeds:     1,
		ReportPenta:       true,
		ThreadsPerEngine:  1,
		ScoreInterval:     1,
		RatingInterval:    10,
		AutosaveInterval:  20,
		StartupTimeout:    10 * time.Second,
		UciNewGameTimeout: 60 * time.Second,
		PingTimeout:       60 * time.Second,
		Opening:           DefaultOpeningConfig(),
		Pgn:               DefaultPgnConfig(),
		Epd:               DefaultEpdConfig(),
		Log:               DefaultLogConfig(),
	}
}

// PersistedState is the exact shape saved to, and loaded from, the resume
// file named by TournamentConfig.ConfigName: config verbatim, an engines
// array, and a stats object keyed by "A|B".
type PersistedState struct {
	Config  TournamentConfig         `json:"config"`
	Engines []EngineConfig           `json:"engines"`
	Stats   map[string]Stats         `json:"stats"`
}

// InitialMatchCount sums wins+draws+losses across every persisted entry,
// used to reconstruct how many games were already played before resume.
func (p PersistedState) InitialMatchCount() int {
	total := 0
	for _, s := range p.Stats {
		total += s.Wins + s.Draws + s.Losses
	}
	return total
}
