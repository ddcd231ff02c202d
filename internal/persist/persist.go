// Package persist reads and writes the tournament's resume file: one JSON
// object holding the tournament config verbatim, the engine configs, and
// the merged per-pair scoreboard stats (spec §6 "Persisted state").
package persist

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/joeycumines/fastchess-sub001/internal/types"
)

// Save writes state to path via a buffered writer, matching the
// supervisor's periodic autosave (spec §4.8). Write failures are returned
// for the caller to log as a warning and continue (spec §7: soft
// failures never abort the tournament).
func Save(path string, state types.PersistedState) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("persist: create %s: %w", path, err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	enc := json.NewEncoder(bw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(state); err != nil {
		return fmt.Errorf("persist: encode %s: %w", path, err)
	}
	return bw.Flush()
}

// Load reads a resume file previously written by Save, used by "-config
// file=..." to pre-populate the scheduler's skip count and the scoreboard
// before the first worker starts.
func Load(path string) (types.PersistedState, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.PersistedState{}, fmt.Errorf("persist: open %s: %w", path, err)
	}
	defer f.Close()

	var state types.PersistedState
	if err := json.NewDecoder(f).Decode(&state); err != nil {
		return types.PersistedState{}, fmt.Errorf("persist: decode %s: %w", path, err)
	}
	if state.Stats == nil {
		state.Stats = make(map[string]types.Stats)
	}
	return state, nil
}
