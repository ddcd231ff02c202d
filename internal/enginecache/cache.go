// Package enginecache pools idle EngineSessions per engine name so that
// successive games reuse subprocesses instead of respawning them, and
// guards against spawn storms when an engine config is crash-looping.
package enginecache

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/joeycumines/go-catrate"

	"github.com/joeycumines/fastchess-sub001/internal/enginesession"
	"github.com/joeycumines/fastchess-sub001/internal/logging"
	"github.com/joeycumines/fastchess-sub001/internal/types"
)

// ErrSpawnFailed wraps a Factory error; the orchestrator treats this as
// fatal for the tournament (abnormal termination + stop-flag).
var ErrSpawnFailed = errors.New("enginecache: spawn failed")

// ErrSpawnRateExceeded is returned when an engine name has exceeded its
// configured spawn-failure rate, ahead of even attempting another spawn.
var ErrSpawnRateExceeded = errors.New("enginecache: spawn rate exceeded")

type freeList struct {
	idle []enginesession.Session
}

// Cache is a per-engine-name pool of idle sessions plus a leased count.
// A single mutex guards the free-list map; it is never held while a
// session plays a game.
type Cache struct {
	factory enginesession.Factory
	logger  *logging.Logger

	mu     sync.Mutex
	lists  map[string]*freeList
	leased map[string]int

	failureGuard *catrate.Limiter
}

// New builds a Cache backed by factory. failureRates, if non-nil, bounds
// how many consecutive spawn failures an engine name may accumulate within
// each window before further spawns for that name are rejected outright
// (a multi-window rate limiter, one category per engine name). logger is
// the root logger passed to every spawned Session.Start as the basis for
// its per-engine realtime logging; nil disables it regardless of the
// per-config realtime_logging flag.
func New(factory enginesession.Factory, failureRates map[time.Duration]int, logger *logging.Logger) *Cache {
	c := &Cache{
		factory: factory,
		logger:  logger,
		lists:   make(map[string]*freeList),
		leased:  make(map[string]int),
	}
	if len(failureRates) > 0 {
		c.failureGuard = catrate.NewLimiter(failureRates)
	}
	return c
}

// Guard holds a leased Session exclusively. The guard's mutex covers only
// its own release state and restart flag; calls made on the Session that
// Session() returns are not serialized by the guard. Releasing the guard
// returns the session to its free-list, or destroys it under restart=on or
// when unhealthy.
type Guard struct {
	cache   *Cache
	name    string
	session enginesession.Session
	restart types.RestartPolicy
	mu      sync.Mutex
	done    bool
}

// Session returns the leased Session for use by the match runner.
func (g *Guard) Session() enginesession.Session {
	return g.session
}

// MarkUnhealthy flags the session for destruction on Release, e.g. after a
// failed recover-mode readiness probe.
func (g *Guard) MarkUnhealthy() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.restart = types.RestartOn
}

// Release returns the session to the cache's free-list, or destroys it.
func (g *Guard) Release() {
	g.mu.Lock()
	if g.done {
		g.mu.Unlock()
		return
	}
	g.done = true
	g.mu.Unlock()
	g.cache.release(g.name, g.session, g.restart)
}

// GetEngine leases an idle session for name if one exists; otherwise it
// constructs a new one via the Factory, recording the handshake/spawn
// under the same rate guard used for subsequent failures.
func (c *Cache) GetEngine(cfg types.EngineConfig, realtimeLogging bool) (*Guard, error) {
	name := cfg.Name

	c.mu.Lock()
	fl := c.lists[name]
	if fl != nil && len(fl.idle) > 0 {
		session := fl.idle[len(fl.idle)-1]
		fl.idle = fl.idle[:len(fl.idle)-1]
		c.leased[name]++
		c.mu.Unlock()
		return &Guard{cache: c, name: name, session: session, restart: cfg.Restart}, nil
	}
	c.mu.Unlock()

	if c.failureGuard != nil {
		if _, ok := c.failureGuard.Allow(name); !ok {
			return nil, fmt.Errorf("%w: %s", ErrSpawnRateExceeded, name)
		}
	}

	session, err := c.factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSpawnFailed, name, err)
	}
	if err := session.Start(cfg, realtimeLogging, c.logger); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSpawnFailed, name, err)
	}

	c.mu.Lock()
	c.leased[name]++
	c.mu.Unlock()

	return &Guard{cache: c, name: name, session: session, restart: cfg.Restart}, nil
}

func (c *Cache) release(name string, session enginesession.Session, restart types.RestartPolicy) {
	c.mu.Lock()
	c.leased[name]--
	c.mu.Unlock()

	if restart == types.RestartOn || !session.Healthy() {
		_ = session.Close()
		return
	}

	c.mu.Lock()
	fl := c.lists[name]
	if fl == nil {
		fl = &freeList{}
		c.lists[name] = fl
	}
	fl.idle = append(fl.idle, session)
	c.mu.Unlock()
}

// IdleCount reports how many sessions for name currently sit on the
// free-list, used by tests to assert reuse behavior.
func (c *Cache) IdleCount(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if fl := c.lists[name]; fl != nil {
		return len(fl.idle)
	}
	return 0
}

// LeasedCount reports how many sessions for name are currently leased out.
func (c *Cache) LeasedCount(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.leased[name]
}

// Close destroys every idle session across every engine name.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, fl := range c.lists {
		for _, s := range fl.idle {
			_ = s.Close()
		}
		fl.idle = nil
	}
}
