// Package writer implements the append-only PGN/EPD file writers the
// orchestrator appends to outside its end-of-game critical section (spec
// §4.8 step 10, §5 "PGN/EPD writes happen outside this section"). Each
// writer owns its own mutex; ordering across files is per-file, not across
// workers.
package writer

import (
	"fmt"
	"hash/crc32"
	"os"
	"strings"
	"sync"

	"github.com/joeycumines/fastchess-sub001/internal/types"
)

// FileWriter is a thread-safe, append-only file sink with optional
// per-write CRC32 checksumming, grounded on the original core's
// util::FileWriter (file_writer.rs): one mutex, create-or-truncate-or-append
// on open, write-through on every call.
type FileWriter struct {
	mu      sync.Mutex
	f       *os.File
	crc     bool
}

// NewFileWriter opens path for append (if append is true) or truncation,
// creating it if absent. When crc is true, every Write call is preceded by
// a "{CRC:XXXXXXXX}\n" line computed over the content.
func NewFileWriter(path string, appendFile, crc bool) (*FileWriter, error) {
	flags := os.O_CREATE | os.O_WRONLY
	if appendFile {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("writer: open %s: %w", path, err)
	}
	return &FileWriter{f: f, crc: crc}, nil
}

// Write appends content to the file, thread-safe across concurrent
// callers. Write errors are returned; reporting them is the caller's
// responsibility (spec §7: soft failures log and continue).
func (w *FileWriter) Write(content string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.crc {
		sum := crc32.ChecksumIEEE([]byte(content))
		if _, err := fmt.Fprintf(w.f, "{CRC:%08X}\n", sum); err != nil {
			return err
		}
	}
	_, err := w.f.WriteString(content)
	return err
}

// Close closes the underlying file.
func (w *FileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}

// NewPGNWriter opens the PGN output file named by cfg, honoring
// AppendFile (forced true if resuming mid-run, per the caller). Returns
// nil, nil when cfg.File is empty — PGN writing is optional.
func NewPGNWriter(cfg types.PgnConfig, forceAppend bool) (*FileWriter, error) {
	if cfg.File == "" {
		return nil, nil
	}
	return NewFileWriter(cfg.File, cfg.AppendFile || forceAppend, cfg.CRC)
}

// NewEPDWriter opens the EPD output file named by cfg. Returns nil, nil
// when cfg.File is empty.
func NewEPDWriter(cfg types.EpdConfig, forceAppend bool) (*FileWriter, error) {
	if cfg.File == "" {
		return nil, nil
	}
	return NewFileWriter(cfg.File, cfg.AppendFile || forceAppend, false)
}

// BuildPGN renders one MatchData as a single PGN game record. It is
// format-level only (spec §6): the move list is already in UCI form
// (SAN conversion is the out-of-scope chess-rules engine's job), so
// moves are emitted as a numbered UCI move list rather than full SAN.
func BuildPGN(cfg types.PgnConfig, m types.MatchData, roundID int) string {
	var b strings.Builder

	white, black := m.Players[0].Name, m.Players[1].Name
	result := pgnResult(m)

	fmt.Fprintf(&b, "[Event \"%s\"]\n", orDefault(cfg.EventName, "?"))
	fmt.Fprintf(&b, "[Site \"%s\"]\n", orDefault(cfg.Site, "?"))
	fmt.Fprintf(&b, "[Round \"%d\"]\n", roundID+1)
	fmt.Fprintf(&b, "[White \"%s\"]\n", white)
	fmt.Fprintf(&b, "[Black \"%s\"]\n", black)
	fmt.Fprintf(&b, "[Result \"%s\"]\n", result)
	fmt.Fprintf(&b, "[Termination \"%s\"]\n", m.Termination)
	if !cfg.Min {
		fmt.Fprintf(&b, "[StartTime \"%s\"]\n", m.StartTime.UTC().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(&b, "[EndTime \"%s\"]\n", m.EndTime.UTC().Format("2006-01-02 15:04:05"))
		if m.FinalFEN != "" {
			fmt.Fprintf(&b, "[FEN \"%s\"]\n", m.FinalFEN)
		}
	}
	b.WriteByte('\n')

	for i, mv := range m.Moves {
		if i%2 == 0 {
			fmt.Fprintf(&b, "%d. ", i/2+1)
		}
		b.WriteString(mv.Move)
		b.WriteByte(' ')
	}
	b.WriteString(result)
	b.WriteString("\n\n")

	return b.String()
}

func pgnResult(m types.MatchData) string {
	switch {
	case m.Players[0].Result == types.ResultWin:
		return "1-0"
	case m.Players[1].Result == types.ResultWin:
		return "0-1"
	case m.Players[0].Result == types.ResultDraw || m.Players[1].Result == types.ResultDraw:
		return "1/2-1/2"
	default:
		return "*"
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// BuildEPD renders one MatchData's final FEN as a single EPD line.
func BuildEPD(m types.MatchData) string {
	if m.FinalFEN == "" {
		return ""
	}
	return m.FinalFEN + "\n"
}
