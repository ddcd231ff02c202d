// Package logging builds the tournament-wide structured logger from a
// types.LogConfig. It mirrors the teacher's own split between a
// backend-agnostic facade (logiface) and a concrete sink (zerolog via
// logiface/zerolog): every other package that logs imports only logiface's
// types, never zerolog directly.
package logging

import (
	"fmt"
	"io"
	"os"

	logiface "github.com/joeycumines/go-utilpkg/logiface"
	izerolog "github.com/joeycumines/go-utilpkg/logiface/zerolog"
	"github.com/rs/zerolog"

	"github.com/joeycumines/fastchess-sub001/internal/types"
)

// Event is the concrete event type threaded through every Logger in this
// module, fixed once here so call sites never repeat the type parameter.
type Event = izerolog.Event

// Logger is the root logger type every component receives.
type Logger = logiface.Logger[*Event]

func levelFor(l types.LogLevel) logiface.Level {
	switch l {
	case types.LogTrace:
		return logiface.LevelTrace
	case types.LogDebug:
		return logiface.LevelDebug
	case types.LogInfo:
		return logiface.LevelInformational
	case types.LogWarn:
		return logiface.LevelWarning
	case types.LogError:
		return logiface.LevelError
	case types.LogFatal:
		return logiface.LevelCritical
	default:
		return logiface.LevelWarning
	}
}

// New builds the root Logger from cfg. When cfg.File is empty, logs go to
// stderr; otherwise the named file is opened for append or truncation per
// cfg.AppendFile. Log compression of rotated files is out of scope (spec
// §1) — the returned closer just closes the open file handle.
func New(cfg types.LogConfig) (*Logger, func() error, error) {
	var w io.Writer = os.Stderr
	closer := func() error { return nil }

	if cfg.File != "" {
		flags := os.O_CREATE | os.O_WRONLY
		if cfg.AppendFile {
			flags |= os.O_APPEND
		} else {
			flags |= os.O_TRUNC
		}
		f, err := os.OpenFile(cfg.File, flags, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("logging: open %s: %w", cfg.File, err)
		}
		w = f
		closer = f.Close
	}

	zl := zerolog.New(w).With().Timestamp().Logger()

	logger := logiface.New[*Event](
		izerolog.WithZerolog(zl),
		logiface.WithLevel[*Event](levelFor(cfg.Level)),
	)

	return logger, closer, nil
}

// EngineComsLogger returns a child logger scoped to one engine's subprocess
// line traffic, used by EngineSession implementations when realtime_logging
// is enabled (spec §4.1 ambient stack, §6 "realtime_logging"). Every line
// drained from the child is logged at Trace level tagged with its log_name.
// Safe to call with a nil root; the returned Logger is then nil too, and
// every logiface method on a nil Logger is a no-op.
func EngineComsLogger(root *Logger, logName string) *Logger {
	return root.Clone().Str("engine", logName).Logger()
}
