package session

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"collegeportal/internal/platform/metrics"
)

const (
	DefaultMaxClients = 10000
	DefaultIdleTTL    = 30 * time.Minute
)

// ContextsConfig bounds the registry. Zero values take the defaults.
type ContextsConfig struct {
	// MaxClients caps live Managers; the least recently used idle one is
	// evicted to make room.
	MaxClients int
	// IdleTTL evicts Managers not seen for this long.
	IdleTTL time.Duration
	// OnEvict is called with the client id of every evicted Manager, outside
	// the registry lock.
	OnEvict func(clientID string)
}

func (c ContextsConfig) withDefaults() ContextsConfig {
	if c.MaxClients <= 0 {
		c.MaxClients = DefaultMaxClients
	}
	if c.IdleTTL <= 0 {
		c.IdleTTL = DefaultIdleTTL
	}
	return c
}

type contextEntry struct {
	manager  *Manager
	lastSeen time.Time
}

// Contexts is the process-wide registry of session Managers keyed by
// client id. A Manager is created and restored on first use. Idle Managers
// are evicted; the durable slot is untouched, so a returning client is
// restored into a fresh Manager.
type Contexts struct {
	slots   SlotStore
	auth    AuthService
	opts    []Option
	metrics *metrics.Metrics
	cfg     ContextsConfig
	now     func() time.Time

	mu        sync.Mutex
	entries   map[string]*contextEntry
	lastSweep time.Time
}

// NewContexts applies opts to every Manager it creates. mx may be nil.
func NewContexts(slots SlotStore, auth AuthService, cfg ContextsConfig, mx *metrics.Metrics, opts ...Option) (*Contexts, error) {
	if slots == nil {
		return nil, errors.New("slot store is required")
	}
	if auth == nil {
		return nil, errors.New("auth service is required")
	}
	c := &Contexts{
		slots:   slots,
		auth:    auth,
		opts:    append(slices.Clone(opts), WithMetrics(mx)),
		metrics: mx,
		cfg:     cfg.withDefaults(),
		now:     time.Now,
		entries: make(map[string]*contextEntry),
	}
	return c, nil
}

// Get returns the Manager for clientID, restoring it from the slot until a
// read succeeds. Concurrent callers for a new client wait for the same
// restore. A restore failure is returned together with the Manager, whose
// identity is then absent.
func (c *Contexts) Get(ctx context.Context, clientID string) (*Manager, error) {
	now := c.now()

	c.mu.Lock()
	var evicted []string
	e, ok := c.entries[clientID]
	if !ok {
		m, err := NewManager(clientID, c.slots, c.auth, c.opts...)
		if err != nil {
			c.mu.Unlock()
			return nil, err
		}
		if now.Sub(c.lastSweep) >= c.cfg.IdleTTL/2 {
			evicted = c.sweepLocked(now)
		}
		if len(c.entries) >= c.cfg.MaxClients {
			if id, ok := c.evictOldestLocked(); ok {
				evicted = append(evicted, id)
			}
		}
		e = &contextEntry{manager: m}
		c.entries[clientID] = e
		c.metrics.SetSessionContexts(len(c.entries))
	}
	e.lastSeen = now
	c.mu.Unlock()

	c.notifyEvicted(evicted)
	return e.manager, e.manager.Restore(ctx)
}

// Sweep evicts Managers idle for longer than the configured TTL and returns
// how many were removed.
func (c *Contexts) Sweep(now time.Time) int {
	c.mu.Lock()
	evicted := c.sweepLocked(now)
	c.metrics.SetSessionContexts(len(c.entries))
	c.mu.Unlock()

	c.notifyEvicted(evicted)
	return len(evicted)
}

// StartCleanup sweeps every interval until ctx is cancelled.
func (c *Contexts) StartCleanup(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Sweep(c.now())
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Len reports how many clients have a live Manager.
func (c *Contexts) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// sweepLocked must be called with c.mu held. Managers with a restore or
// login pending are kept.
func (c *Contexts) sweepLocked(now time.Time) []string {
	c.lastSweep = now
	var evicted []string
	for id, e := range c.entries {
		if now.Sub(e.lastSeen) > c.cfg.IdleTTL && e.manager.idle() {
			delete(c.entries, id)
			evicted = append(evicted, id)
		}
	}
	return evicted
}

// evictOldestLocked must be called with c.mu held.
func (c *Contexts) evictOldestLocked() (string, bool) {
	var (
		oldestID string
		oldest   time.Time
		found    bool
	)
	for id, e := range c.entries {
		if !e.manager.idle() {
			continue
		}
		if !found || e.lastSeen.Before(oldest) {
			oldestID, oldest, found = id, e.lastSeen, true
		}
	}
	if found {
		delete(c.entries, oldestID)
	}
	return oldestID, found
}

func (c *Contexts) notifyEvicted(ids []string) {
	if c.cfg.OnEvict == nil {
		return
	}
	for _, id := range ids {
		c.cfg.OnEvict(id)
	}
}
