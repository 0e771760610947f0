package tmdb

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"reelname/internal/identification"
	"reelname/internal/logging"
	"reelname/internal/services"
)

const (
	defaultInitialBackoff = 2 * time.Second
	defaultMaxBackoff     = 60 * time.Second
)

// ProviderOptions tunes request pacing and rate-limit retries.
type ProviderOptions struct {
	// MinInterval is the minimum spacing between requests across all
	// callers. Zero disables spacing.
	MinInterval time.Duration
	// MaxRetries bounds retries of rate-limited (429) requests.
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Logger         *slog.Logger
}

// Provider adapts a TMDB client to identification.Provider.
type Provider struct {
	client         Searcher
	limiter        *rate.Limiter
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *slog.Logger
}

var _ identification.Provider = (*Provider)(nil)

// NewProvider wraps client. The provider is safe for concurrent use; the
// request spacing is shared by every caller.
func NewProvider(client Searcher, opts ProviderOptions) *Provider {
	limit := rate.Inf
	if opts.MinInterval > 0 {
		limit = rate.Every(opts.MinInterval)
	}
	initial := opts.InitialBackoff
	if initial <= 0 {
		initial = defaultInitialBackoff
	}
	maxBackoff := opts.MaxBackoff
	if maxBackoff <= 0 {
		maxBackoff = defaultMaxBackoff
	}
	return &Provider{
		client:         client,
		limiter:        rate.NewLimiter(limit, 1),
		maxRetries:     max(opts.MaxRetries, 0),
		initialBackoff: initial,
		maxBackoff:     maxBackoff,
		logger:         logging.NewComponentLogger(opts.Logger, "tmdb"),
	}
}

// Search runs a movie search for query in the given locale.
func (p *Provider) Search(ctx context.Context, query identification.SearchQuery, language string) ([]identification.ProviderResult, error) {
	var resp *Response
	err := p.do(ctx, "search", func() error {
		var err error
		resp, err = p.client.SearchMovieWithOptions(ctx, query.Text, SearchOptions{Year: query.Year, Language: language})
		return err
	})
	if err != nil {
		return nil, err
	}
	results := make([]identification.ProviderResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, toProviderResult(r))
	}
	return results, nil
}

// Lookup fetches a single movie by TMDB ID.
func (p *Provider) Lookup(ctx context.Context, id int64, language string) (identification.ProviderResult, error) {
	var details *Result
	err := p.do(ctx, "movie_details", func() error {
		var err error
		details, err = p.client.GetMovieDetails(ctx, id, language)
		return err
	})
	if err != nil {
		return identification.ProviderResult{}, err
	}
	return toProviderResult(*details), nil
}

func toProviderResult(r Result) identification.ProviderResult {
	return identification.ProviderResult{
		ID:          r.ID,
		Title:       r.Title,
		ReleaseYear: r.ReleaseYear(),
		Popularity:  r.Popularity,
		RawPayload:  r.Raw,
	}
}

// do waits for the shared limiter, runs fn, and retries 429 responses with
// exponential backoff. Everything else fails on the first attempt.
func (p *Provider) do(ctx context.Context, operation string, fn func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = p.initialBackoff
	policy.MaxInterval = p.maxBackoff
	policy.Multiplier = 2
	policy.RandomizationFactor = 0
	policy.MaxElapsedTime = 0
	policy.Reset()

	attempt := 0
	err := backoff.RetryNotify(func() error {
		attempt++
		if err := p.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		err := fn()
		if err == nil {
			return nil
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.RateLimited() {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(p.maxRetries)), ctx), func(err error, wait time.Duration) {
		p.logger.Debug("tmdb rate limited; backing off",
			logging.String("operation", operation),
			logging.Int("attempt", attempt),
			logging.Duration("wait", wait),
		)
	})
	if err != nil {
		return classify(ctx, operation, err)
	}
	return nil
}

func classify(ctx context.Context, operation string, err error) error {
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		return services.Wrap(services.ErrTimeout, "tmdb", operation, "request timed out", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return services.Wrap(services.ErrTransient, "tmdb", operation, "request failed", err)
	}
	switch {
	case apiErr.StatusCode == http.StatusUnauthorized:
		return services.Wrap(services.ErrConfiguration, "tmdb", operation, "invalid API key", err)
	case apiErr.StatusCode == http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, "tmdb", operation, "not found", err)
	case apiErr.RateLimited():
		return services.Wrap(services.ErrTransient, "tmdb", operation, "rate limited", err)
	case apiErr.StatusCode >= 500:
		return services.Wrap(services.ErrTransient, "tmdb", operation, "server error", err)
	default:
		return services.Wrap(services.ErrValidation, "tmdb", operation, "request rejected", err)
	}
}
