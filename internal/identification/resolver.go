package identification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"reelname/internal/logging"
	"reelname/internal/services"
)

// DefaultQueryTimeout bounds a single provider call when no timeout is set.
const DefaultQueryTimeout = 10 * time.Second

// Options configures resolution.
type Options struct {
	// Language is the provider locale sent with every query (e.g. "en-US").
	Language string
	// QueryTimeout bounds each provider call. A call that times out counts as
	// a provider failure for that query only.
	QueryTimeout time.Duration
	Logger       *slog.Logger
}

// Resolver runs query plans against a provider through the cache.
type Resolver struct {
	provider     Provider
	cache        *Cache
	language     string
	queryTimeout time.Duration
	logger       *slog.Logger
}

// NewResolver wires a resolver. A nil cache gets a private one.
func NewResolver(provider Provider, cache *Cache, opts Options) *Resolver {
	if cache == nil {
		cache = NewCache()
	}
	timeout := opts.QueryTimeout
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	return &Resolver{
		provider:     provider,
		cache:        cache,
		language:     opts.Language,
		queryTimeout: timeout,
		logger:       logging.NewComponentLogger(opts.Logger, "resolver"),
	}
}

// Resolve returns the match for a candidate. Overrides and cached matches
// are returned without provider calls. The error is non-nil only when ctx is
// done (nothing is cached) or when every planned query failed at the
// provider, in which case the match carries OutcomeUnavailable and the error
// wraps services.ErrProviderUnavailable.
func (r *Resolver) Resolve(ctx context.Context, c Candidate) (Match, error) {
	key := CacheKey(c)
	started := time.Now()
	m, source, err := r.cache.resolve(ctx, key, func(callCtx context.Context) (Match, error) {
		return r.search(callCtx, Plan(c))
	})
	if err != nil && ctx.Err() != nil {
		return Match{}, ctx.Err()
	}
	r.logDecision(ctx, c, key, m, source, time.Since(started), err)
	return m, err
}

func (r *Resolver) search(ctx context.Context, plan []SearchQuery) (Match, error) {
	logger := logging.WithContext(ctx, r.logger)
	failures := 0
	var lastErr error
	for i, q := range plan {
		if err := ctx.Err(); err != nil {
			return Match{}, err
		}
		queryCtx, cancel := context.WithTimeout(ctx, r.queryTimeout)
		results, err := r.provider.Search(queryCtx, q, r.language)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return Match{}, ctx.Err()
			}
			failures++
			lastErr = err
			logging.WarnWithContext(logger, "provider query failed", "provider_query_failed",
				logging.String("query", q.String()),
				logging.Int("priority", q.Priority),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check network access and the TMDB API key"),
				logging.String(logging.FieldImpact, "falling back to the next planned query"),
			)
			continue
		}
		best, accepted, ok := selectBest(q, results)
		logger.Debug("provider query answered",
			logging.String("query", q.String()),
			logging.Int("priority", q.Priority),
			logging.Int("results", len(results)),
			logging.Int("accepted", accepted),
		)
		if ok {
			return foundMatch(best, q, plan[:i+1]), nil
		}
	}
	if len(plan) > 0 && failures == len(plan) {
		msg := fmt.Sprintf("all %d planned queries failed", failures)
		return Match{Outcome: OutcomeUnavailable, Tried: plan},
			services.Wrap(services.ErrProviderUnavailable, "resolver", "search", msg, lastErr)
	}
	return Match{Outcome: OutcomeNotFound, Tried: plan}, nil
}

func (r *Resolver) logDecision(ctx context.Context, c Candidate, key string, m Match, source Source, elapsed time.Duration, err error) {
	logger := logging.WithContext(ctx, r.logger)
	result := string(m.Outcome)
	reason := "query plan exhausted"
	switch {
	case source == SourceOverride:
		result, reason = "override", "manual selection registered"
	case source == SourceCache:
		result, reason = "cached", "cache hit"
	case m.Found():
		reason = "accepted result for " + m.Query.String()
	case err != nil:
		reason = "provider unreachable for every query"
	}
	attrs := logging.DecisionAttrs("title_resolution", result, reason)
	attrs = append(attrs, logging.Title("", c.Title, c.Year)...)
	attrs = append(attrs,
		logging.String("cache_key", key),
		logging.String("cache_decision", string(source)),
		logging.Int("queries_attempted", len(m.Tried)),
		logging.Duration("duration", elapsed),
	)
	if m.Found() {
		attrs = append(attrs, logging.Int64("tmdb_id", m.Result.ID))
		attrs = append(attrs, logging.Title("matched", m.Result.Title, m.Result.ReleaseYear)...)
		attrs = append(attrs, logging.Float64("popularity", m.Result.Popularity))
	}
	if source == SourceCache || source == SourceShared {
		logger.Debug("title resolved", logging.Args(attrs...)...)
		return
	}
	if err != nil {
		attrs = append(attrs, logging.Error(err))
		logging.WarnWithContext(logger, "title resolution unavailable", "provider_unavailable",
			append(attrs,
				logging.String(logging.FieldErrorHint, "retry once TMDB is reachable"),
				logging.String(logging.FieldImpact, "item left unresolved and not cached"),
			)...)
		return
	}
	logger.Info("title resolved", logging.Args(attrs...)...)
}
