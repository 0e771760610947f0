package tmdb_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"reelname/internal/identification"
	"reelname/internal/identification/tmdb"
	"reelname/internal/services"
)

func newProvider(t *testing.T, handler http.HandlerFunc, opts tmdb.ProviderOptions) *tmdb.Provider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := tmdb.New("key", server.URL, "en-US")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if opts.InitialBackoff == 0 {
		opts.InitialBackoff = time.Millisecond
	}
	return tmdb.NewProvider(client, opts)
}

func TestProviderConvertsResults(t *testing.T) {
	provider := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"id":155,"title":"The Dark Knight","release_date":"2008-07-16","popularity":80.5,"vote_count":3}]}`))
	}, tmdb.ProviderOptions{})

	results, err := provider.Search(context.Background(), identification.SearchQuery{Text: "The Dark Knight", Year: 2008, Priority: 1}, "en-US")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected one result, got %d", len(results))
	}
	got := results[0]
	if got.ID != 155 || got.ReleaseYear != 2008 || got.Popularity != 80.5 {
		t.Fatalf("unexpected result %+v", got)
	}
	if !strings.Contains(string(got.RawPayload), `"vote_count":3`) {
		t.Fatalf("raw payload not preserved: %s", got.RawPayload)
	}
}

func TestProviderRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	provider := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"results":[{"id":949,"title":"Heat","release_date":"1995-12-15"}]}`))
	}, tmdb.ProviderOptions{MaxRetries: 2})

	results, err := provider.Search(context.Background(), identification.SearchQuery{Text: "Heat", Priority: 1}, "")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || calls.Load() != 2 {
		t.Fatalf("expected a retry, results=%d calls=%d", len(results), calls.Load())
	}
}

func TestProviderGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	provider := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}, tmdb.ProviderOptions{MaxRetries: 1})

	_, err := provider.Search(context.Background(), identification.SearchQuery{Text: "Heat", Priority: 1}, "")
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls.Load())
	}
}

func TestProviderClassifiesFailures(t *testing.T) {
	tests := []struct {
		status int
		marker error
	}{
		{http.StatusUnauthorized, services.ErrConfiguration},
		{http.StatusNotFound, services.ErrNotFound},
		{http.StatusBadGateway, services.ErrTransient},
		{http.StatusBadRequest, services.ErrValidation},
	}
	for _, tt := range tests {
		var calls atomic.Int32
		provider := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(tt.status)
		}, tmdb.ProviderOptions{MaxRetries: 3})

		_, err := provider.Search(context.Background(), identification.SearchQuery{Text: "Heat", Priority: 1}, "")
		if !errors.Is(err, tt.marker) {
			t.Errorf("status %d: expected %v, got %v", tt.status, tt.marker, err)
		}
		var apiErr *tmdb.APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != tt.status {
			t.Errorf("status %d: expected wrapped APIError, got %v", tt.status, err)
		}
		if calls.Load() != 1 {
			t.Errorf("status %d: expected no retries, got %d calls", tt.status, calls.Load())
		}
	}
}

func TestProviderTimeoutIsClassified(t *testing.T) {
	provider := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}, tmdb.ProviderOptions{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := provider.Search(ctx, identification.SearchQuery{Text: "Heat", Priority: 1}, "")
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestProviderSpacesRequests(t *testing.T) {
	provider := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	}, tmdb.ProviderOptions{MinInterval: 30 * time.Millisecond})

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := provider.Search(context.Background(), identification.SearchQuery{Text: "Heat", Priority: 1}, ""); err != nil {
			t.Fatalf("Search: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Fatalf("expected requests to be spaced, took %v", elapsed)
	}
}

func TestProviderLookup(t *testing.T) {
	provider := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/949" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"id":949,"title":"Heat","release_date":"1995-12-15","popularity":31.5}`))
	}, tmdb.ProviderOptions{})

	got, err := provider.Lookup(context.Background(), 949, "en-US")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got.Title != "Heat" || got.ReleaseYear != 1995 {
		t.Fatalf("unexpected lookup %+v", got)
	}
	if _, err := provider.Lookup(context.Background(), 1, ""); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
