package persist

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joeycumines/fastchess-sub001/internal/types"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resume.json")

	cfg := types.DefaultTournamentConfig()
	cfg.ConfigName = path
	engines := []types.EngineConfig{{Name: "A"}, {Name: "B"}}
	stats := map[string]types.Stats{"A|B": {Wins: 3, Draws: 1, Losses: 2}}

	require.NoError(t, Save(path, types.PersistedState{Config: cfg, Engines: engines, Stats: stats}))

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.ConfigName, got.Config.ConfigName)
	require.Equal(t, engines, got.Engines)
	require.Equal(t, stats, got.Stats)
}

func TestLoadMissingFileIsErrNotExist(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	require.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadNilStatsBecomesEmptyMap(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resume.json")
	require.NoError(t, Save(path, types.PersistedState{Config: types.DefaultTournamentConfig()}))

	got, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, got.Stats)
	require.Empty(t, got.Stats)
}

func TestInitialMatchCountSumsAllPairs(t *testing.T) {
	p := types.PersistedState{Stats: map[string]types.Stats{
		"A|B": {Wins: 2, Draws: 1, Losses: 1},
		"A|C": {Wins: 1, Draws: 0, Losses: 0},
	}}
	require.Equal(t, 5, p.InitialMatchCount())
}
