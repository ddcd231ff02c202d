package enginecache

import (
	"errors"
	"testing"
	"time"

	"github.com/joeycumines/fastchess-sub001/internal/enginesession"
	"github.com/joeycumines/fastchess-sub001/internal/logging"
	"github.com/joeycumines/fastchess-sub001/internal/types"
	"github.com/stretchr/testify/require"
)

// stubSession is a minimal enginesession.Session used only to exercise the
// cache's leasing/release/restart bookkeeping, never a real subprocess.
type stubSession struct {
	name    string
	closed  bool
	healthy bool
}

func (s *stubSession) Start(cfg types.EngineConfig, realtimeLogging bool, comsLogger *logging.Logger) error {
	return nil
}
func (s *stubSession) IsReady(timeout time.Duration) enginesession.Readiness    { return enginesession.ReadyOK }
func (s *stubSession) Restart() error                                          { return nil }
func (s *stubSession) SetAffinity(cpus []int) bool                             { return true }
func (s *stubSession) Healthy() bool                                           { return s.healthy }
func (s *stubSession) Close() error                                            { s.closed = true; return nil }
func (s *stubSession) LogName() string                                        { return s.name }

func stubFactory(calls *int) enginesession.Factory {
	return func(cfg types.EngineConfig) (enginesession.Session, error) {
		*calls++
		return &stubSession{name: cfg.Name, healthy: true}, nil
	}
}

func TestCache_ReusesReleasedSession(t *testing.T) {
	var calls int
	c := New(stubFactory(&calls), nil, nil)
	cfg := types.EngineConfig{Name: "engineA", Restart: types.RestartOff}

	g1, err := c.GetEngine(cfg, false)
	require.NoError(t, err)
	require.Equal(t, 1, calls)
	g1.Release()

	require.Equal(t, 1, c.IdleCount("engineA"))

	g2, err := c.GetEngine(cfg, false)
	require.NoError(t, err)
	require.Equal(t, 1, calls, "second lease should reuse, not respawn")
	g2.Release()
}

func TestCache_RestartOnDestroysOnRelease(t *testing.T) {
	var calls int
	c := New(stubFactory(&calls), nil, nil)
	cfg := types.EngineConfig{Name: "engineA", Restart: types.RestartOn}

	g1, err := c.GetEngine(cfg, false)
	require.NoError(t, err)
	g1.Release()

	require.Equal(t, 0, c.IdleCount("engineA"))

	_, err = c.GetEngine(cfg, false)
	require.NoError(t, err)
	require.Equal(t, 2, calls, "restart=on must spawn a fresh session every lease")
}

func TestCache_UnhealthySessionIsDestroyedNotReused(t *testing.T) {
	var calls int
	c := New(stubFactory(&calls), nil, nil)
	cfg := types.EngineConfig{Name: "engineA", Restart: types.RestartOff}

	g, err := c.GetEngine(cfg, false)
	require.NoError(t, err)
	g.MarkUnhealthy()
	g.Release()

	require.Equal(t, 0, c.IdleCount("engineA"))
}

func TestCache_SpawnFailureWraps(t *testing.T) {
	wantErr := errors.New("boom")
	factory := func(cfg types.EngineConfig) (enginesession.Session, error) {
		return nil, wantErr
	}
	c := New(factory, nil, nil)

	_, err := c.GetEngine(types.EngineConfig{Name: "bad"}, false)
	require.ErrorIs(t, err, ErrSpawnFailed)
}

func TestCache_ConcurrentLeasesDoNotCollide(t *testing.T) {
	var calls int
	c := New(stubFactory(&calls), nil, nil)
	cfgA := types.EngineConfig{Name: "A"}
	cfgB := types.EngineConfig{Name: "B"}

	gA, err := c.GetEngine(cfgA, false)
	require.NoError(t, err)
	gB, err := c.GetEngine(cfgB, false)
	require.NoError(t, err)

	require.Equal(t, 1, c.LeasedCount("A"))
	require.Equal(t, 1, c.LeasedCount("B"))
	gA.Release()
	gB.Release()
}
