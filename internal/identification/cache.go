package identification

import (
	"context"
	"sync"
)

// Source describes where a resolution came from.
type Source string

const (
	SourceProvider Source = "provider"
	SourceCache    Source = "cached"
	SourceShared   Source = "coalesced"
	SourceOverride Source = "override"
)

// Cache memoizes matches per cache key for the life of the process and
// coalesces concurrent resolutions of the same key into one provider
// round-trip. Overrides registered through the gateway preempt both cached
// entries and in-flight resolutions.
type Cache struct {
	mu        sync.Mutex
	entries   map[string]Match
	overrides map[string]ProviderResult
	inflight  map[string]*call
}

type call struct {
	done   chan struct{}
	cancel context.CancelFunc

	// Written under Cache.mu before done is closed.
	match     Match
	err       error
	settled   bool // an override answered this call
	abandoned bool // the leader was cancelled; waiters must retry
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{
		entries:   make(map[string]Match),
		overrides: make(map[string]ProviderResult),
		inflight:  make(map[string]*call),
	}
}

// Get returns the stored match for key, preferring an override.
func (c *Cache) Get(key string) (Match, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if chosen, ok := c.overrides[key]; ok {
		return overrideMatch(chosen), true
	}
	m, ok := c.entries[key]
	return m, ok
}

// Put stores a match unless an override owns the key.
func (c *Cache) Put(key string, m Match) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.storeLocked(key, m)
}

func (c *Cache) storeLocked(key string, m Match) {
	if _, ok := c.overrides[key]; ok {
		return
	}
	c.entries[key] = m
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Overrides returns the override gateway bound to this cache.
func (c *Cache) Overrides() *OverrideGateway {
	return &OverrideGateway{cache: c}
}

// resolve returns the match for key, running fn at most once concurrently
// per key. Unavailable outcomes are shared with waiters but not stored, and
// a cancelled leader stores nothing.
func (c *Cache) resolve(ctx context.Context, key string, fn func(context.Context) (Match, error)) (Match, Source, error) {
	for {
		c.mu.Lock()
		if chosen, ok := c.overrides[key]; ok {
			m := overrideMatch(chosen)
			c.entries[key] = m
			c.mu.Unlock()
			return m, SourceOverride, nil
		}
		if m, ok := c.entries[key]; ok {
			c.mu.Unlock()
			return m, SourceCache, nil
		}
		if cl, ok := c.inflight[key]; ok {
			c.mu.Unlock()
			select {
			case <-cl.done:
			case <-ctx.Done():
				return Match{}, "", ctx.Err()
			}
			if cl.abandoned {
				continue
			}
			if cl.settled {
				return cl.match, SourceOverride, nil
			}
			return cl.match, SourceShared, cl.err
		}

		callCtx, cancel := context.WithCancel(ctx)
		cl := &call{done: make(chan struct{}), cancel: cancel}
		c.inflight[key] = cl
		c.mu.Unlock()

		m, err := fn(callCtx)
		cancel()

		c.mu.Lock()
		if cl.settled {
			c.mu.Unlock()
			return cl.match, SourceOverride, nil
		}
		delete(c.inflight, key)
		if ctxErr := ctx.Err(); ctxErr != nil {
			cl.abandoned = true
			close(cl.done)
			c.mu.Unlock()
			return Match{}, "", ctxErr
		}
		cl.match, cl.err = m, err
		if err == nil {
			c.storeLocked(key, m)
		}
		close(cl.done)
		c.mu.Unlock()
		return m, SourceProvider, err
	}
}

// register installs an override and settles any in-flight call for key.
func (c *Cache) register(key string, chosen ProviderResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := overrideMatch(chosen)
	c.overrides[key] = chosen
	c.entries[key] = m
	if cl, ok := c.inflight[key]; ok {
		delete(c.inflight, key)
		cl.match, cl.err, cl.settled = m, nil, true
		cl.cancel()
		close(cl.done)
	}
}

// OverrideGateway accepts user-chosen matches. Registration is atomic with
// respect to concurrent resolutions of the same key.
type OverrideGateway struct {
	cache *Cache
}

// Register makes chosen the answer for key. Once it returns, every
// resolution of key, including ones already waiting on an in-flight
// provider call, observes the override.
func (g *OverrideGateway) Register(key string, chosen ProviderResult) {
	g.cache.register(key, chosen)
}

// Lookup returns the override registered for key.
func (g *OverrideGateway) Lookup(key string) (ProviderResult, bool) {
	g.cache.mu.Lock()
	defer g.cache.mu.Unlock()
	chosen, ok := g.cache.overrides[key]
	return chosen, ok
}
