package testsupport

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"reelname/internal/identification"
)

// FakeProvider is an in-memory identification.Provider. Results are keyed by
// query text (case-insensitive) and optional year. It counts every call and
// can hold calls open until Release is called.
type FakeProvider struct {
	mu      sync.Mutex
	results map[string][]identification.ProviderResult
	errs    map[string]error
	failAll error
	gate    chan struct{}
	started chan struct{}
	queries []identification.SearchQuery

	calls atomic.Int64
}

// NewFakeProvider returns an empty provider that answers every query with no
// results.
func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		results: make(map[string][]identification.ProviderResult),
		errs:    make(map[string]error),
		started: make(chan struct{}, 64),
	}
}

func fakeKey(text string, year int) string {
	key := strings.ToLower(strings.Join(strings.Fields(text), " "))
	if year > 0 {
		key += "|" + strconv.Itoa(year)
	}
	return key
}

// Add registers results for a query. A zero year matches queries without a
// year.
func (p *FakeProvider) Add(text string, year int, results ...identification.ProviderResult) *FakeProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := fakeKey(text, year)
	p.results[key] = append(p.results[key], results...)
	return p
}

// FailQuery makes a single query return err.
func (p *FakeProvider) FailQuery(text string, year int, err error) *FakeProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs[fakeKey(text, year)] = err
	return p
}

// FailAll makes every query return err. A nil err clears it.
func (p *FakeProvider) FailAll(err error) *FakeProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failAll = err
	return p
}

// Hold makes subsequent calls block until Release or their context ends.
func (p *FakeProvider) Hold() *FakeProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gate = make(chan struct{})
	return p
}

// Release unblocks held calls.
func (p *FakeProvider) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gate != nil {
		close(p.gate)
		p.gate = nil
	}
}

// Started receives once per call as it begins.
func (p *FakeProvider) Started() <-chan struct{} {
	return p.started
}

// Calls reports the number of Search invocations.
func (p *FakeProvider) Calls() int {
	return int(p.calls.Load())
}

// Queries returns the queries received so far, in order.
func (p *FakeProvider) Queries() []identification.SearchQuery {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]identification.SearchQuery(nil), p.queries...)
}

// Search implements identification.Provider.
func (p *FakeProvider) Search(ctx context.Context, query identification.SearchQuery, _ string) ([]identification.ProviderResult, error) {
	p.calls.Add(1)
	p.mu.Lock()
	p.queries = append(p.queries, query)
	gate := p.gate
	p.mu.Unlock()

	select {
	case p.started <- struct{}{}:
	default:
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failAll != nil {
		return nil, p.failAll
	}
	key := fakeKey(query.Text, query.Year)
	if err, ok := p.errs[key]; ok {
		return nil, err
	}
	return append([]identification.ProviderResult(nil), p.results[key]...), nil
}
