// Package enginesession declares the EngineSession contract: the
// per-engine protocol wrapper the tournament core depends on but does not
// implement. The handshake, option negotiation, and per-move conversation
// are out of scope; this package only fixes the capability set — ready,
// restart, write, read — that the orchestrator and engine cache need, plus
// a minimal reference implementation sufficient to exercise that contract
// in tests.
package enginesession

import (
	"time"

	"github.com/joeycumines/fastchess-sub001/internal/logging"
	"github.com/joeycumines/fastchess-sub001/internal/types"
)

// Readiness is the outcome of an IsReady probe.
type Readiness int

const (
	ReadyOK Readiness = iota
	ReadyErr
	ReadyTimeout
)

// Session is the one-layer polymorphism surface the core depends on: a
// running engine subprocess with a protocol state machine behind it.
// Implementations that drive a real text-line protocol live outside this
// module's scope.
type Session interface {
	// Start launches the subprocess (if not already running) and performs
	// whatever handshake the concrete protocol requires. When realtimeLogging
	// is true and comsLogger is non-nil, every line drained from the child is
	// logged through it at Trace level.
	Start(cfg types.EngineConfig, realtimeLogging bool, comsLogger *logging.Logger) error

	// IsReady probes liveness with an optional timeout (zero means use the
	// implementation's default).
	IsReady(timeout time.Duration) Readiness

	// Restart tears down and relaunches the subprocess.
	Restart() error

	// SetAffinity requests the subprocess run pinned to the given logical
	// processors; returns false if the implementation cannot honor it.
	SetAffinity(cpus []int) bool

	// Healthy reports whether the session is fit to be returned to an
	// idle free-list rather than destroyed.
	Healthy() bool

	// Close performs the session's guaranteed teardown.
	Close() error

	// LogName identifies this session in log lines.
	LogName() string
}

// Factory constructs a new Session for the given engine config. The engine
// cache calls this on a free-list miss.
type Factory func(cfg types.EngineConfig) (Session, error)
