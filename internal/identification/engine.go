package identification

import (
	"context"
)

// Engine composes normalization, numeral expansion, planning, and
// resolution for raw names. It is safe for concurrent use.
type Engine struct {
	normalizer *Normalizer
	resolver   *Resolver
	overrides  *OverrideGateway
}

// NewEngine wires an engine. A nil normalizer uses the defaults and a nil
// cache gets a private one.
func NewEngine(normalizer *Normalizer, provider Provider, cache *Cache, opts Options) *Engine {
	if normalizer == nil {
		normalizer = NewNormalizer()
	}
	if cache == nil {
		cache = NewCache()
	}
	return &Engine{
		normalizer: normalizer,
		resolver:   NewResolver(provider, cache, opts),
		overrides:  cache.Overrides(),
	}
}

// Candidate normalizes and expands a raw name without touching shared state.
func (e *Engine) Candidate(raw string, isDir bool) Candidate {
	return Expand(e.normalizer.NormalizeName(raw, isDir))
}

// Plan returns the candidate for raw and its query plan.
func (e *Engine) Plan(raw string, isDir bool) (Candidate, []SearchQuery) {
	c := e.Candidate(raw, isDir)
	return c, Plan(c)
}

// ResolveName resolves a raw file or folder name.
func (e *Engine) ResolveName(ctx context.Context, raw string, isDir bool) (Candidate, Match, error) {
	c := e.Candidate(raw, isDir)
	m, err := e.resolver.Resolve(ctx, c)
	return c, m, err
}

// Register records a manual match for the cache key raw normalizes to and
// returns that key.
func (e *Engine) Register(raw string, isDir bool, chosen ProviderResult) string {
	key := CacheKey(e.Candidate(raw, isDir))
	e.overrides.Register(key, chosen)
	return key
}

// Overrides exposes the gateway for callers that already hold cache keys.
func (e *Engine) Overrides() *OverrideGateway {
	return e.overrides
}
