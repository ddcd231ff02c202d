package enginesession

import (
	"time"

	"github.com/joeycumines/fastchess-sub001/internal/logging"
	"github.com/joeycumines/fastchess-sub001/internal/procio"
	"github.com/joeycumines/fastchess-sub001/internal/types"
)

// ReferenceSession is a minimal Session implementation used by tests and by
// the orchestrator's default wiring. It only understands enough of a
// generic line protocol to prove liveness ("isready" / "readyok"); a real
// engine's option set and per-move conversation are out of scope and are
// left to whatever Factory the caller supplies in production.
type ReferenceSession struct {
	cfg        types.EngineConfig
	proc       *procio.Process
	healthy    bool
	realtime   bool
	rootLogger *logging.Logger
	comsLogger *logging.Logger
}

var _ Session = (*ReferenceSession)(nil)

// NewReferenceFactory returns a Factory producing unstarted
// ReferenceSessions; the engine cache calls Start itself immediately after
// the Factory returns (spec §4.3), so the Factory must not start the
// subprocess a second time.
func NewReferenceFactory() Factory {
	return func(cfg types.EngineConfig) (Session, error) {
		return &ReferenceSession{cfg: cfg}, nil
	}
}

func (s *ReferenceSession) Start(cfg types.EngineConfig, realtimeLogging bool, comsLogger *logging.Logger) error {
	s.cfg = cfg
	s.realtime = realtimeLogging
	s.rootLogger = comsLogger
	if realtimeLogging {
		s.comsLogger = logging.EngineComsLogger(comsLogger, cfg.Name)
	} else {
		s.comsLogger = nil
	}
	proc, err := procio.Spawn(cfg.Name, cfg.Command, cfg.Args, cfg.Dir)
	if err != nil {
		s.healthy = false
		return err
	}
	s.proc = proc
	s.healthy = true
	return nil
}

func (s *ReferenceSession) IsReady(timeout time.Duration) Readiness {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if err := s.proc.WriteInput([]byte("isready\n")); err != nil {
		s.healthy = false
		return ReadyErr
	}
	lines, err := s.proc.ReadOutput("readyok", timeout)
	for _, l := range lines {
		s.comsLogger.Trace().Str("line", l.Text).Log("engine output")
	}
	switch err {
	case nil:
		return ReadyOK
	case procio.ErrTimeout:
		return ReadyTimeout
	default:
		s.healthy = false
		return ReadyErr
	}
}

func (s *ReferenceSession) Restart() error {
	if s.proc != nil {
		_ = s.proc.Close()
	}
	return s.Start(s.cfg, s.realtime, s.rootLogger)
}

func (s *ReferenceSession) SetAffinity(cpus []int) bool {
	// The subprocess inherits the spawning thread's affinity on Linux by
	// the usual process-inheritance rules; there is nothing further to do
	// here for the reference implementation.
	return len(cpus) > 0
}

func (s *ReferenceSession) Healthy() bool {
	return s.healthy
}

func (s *ReferenceSession) Close() error {
	if s.proc == nil {
		return nil
	}
	return s.proc.Close()
}

func (s *ReferenceSession) LogName() string {
	return s.cfg.Name
}
