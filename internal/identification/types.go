package identification

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
)

// Candidate is the cleaned title and optional year derived from a raw
// file or folder name.
type Candidate struct {
	Title string `json:"title"`
	// Year is zero when no release year was recognized.
	Year int `json:"year,omitempty"`
	// RomanVariant is the title with its trailing numeral swapped between
	// Roman and Arabic form, or empty.
	RomanVariant string `json:"roman_variant,omitempty"`
}

// String renders the candidate the way it appears in logs and tables.
func (c Candidate) String() string {
	if c.Year > 0 {
		return c.Title + " (" + strconv.Itoa(c.Year) + ")"
	}
	return c.Title
}

// SearchQuery is one planned provider lookup. Lower priorities run first.
type SearchQuery struct {
	Text     string `json:"text"`
	Year     int    `json:"year,omitempty"`
	Priority int    `json:"priority"`
}

const manualQueryText = "manual"

// ManualQuery is the sentinel matched query attached to override results.
var ManualQuery = SearchQuery{Text: manualQueryText, Priority: 0}

// IsManual reports whether q is the override sentinel. Planned queries
// always carry a priority of one or more.
func (q SearchQuery) IsManual() bool {
	return q.Priority == 0 && q.Text == manualQueryText
}

func (q SearchQuery) String() string {
	if q.IsManual() {
		return manualQueryText
	}
	if q.Year > 0 {
		return q.Text + " [" + strconv.Itoa(q.Year) + "]"
	}
	return q.Text
}

// ProviderResult is a single catalog entry returned by the metadata provider.
type ProviderResult struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	ReleaseYear int     `json:"release_year,omitempty"`
	Popularity  float64 `json:"popularity"`
	// RawPayload is the provider's original record, passed through untouched.
	RawPayload json.RawMessage `json:"raw_payload,omitempty"`
}

// Outcome classifies a resolution.
type Outcome string

const (
	OutcomeFound       Outcome = "found"
	OutcomeNotFound    Outcome = "not_found"
	OutcomeUnavailable Outcome = "unavailable"
)

// Match is the immutable result of resolving one candidate. Result and Query
// are set only when Outcome is OutcomeFound; Tried lists the queries issued
// in order.
type Match struct {
	Outcome Outcome         `json:"outcome"`
	Result  *ProviderResult `json:"result,omitempty"`
	Query   *SearchQuery    `json:"matched_query,omitempty"`
	Tried   []SearchQuery   `json:"tried_queries,omitempty"`
}

// Found reports whether the match resolved to a catalog entry.
func (m Match) Found() bool {
	return m.Outcome == OutcomeFound && m.Result != nil
}

// Manual reports whether the match came from an override.
func (m Match) Manual() bool {
	return m.Found() && m.Query != nil && m.Query.IsManual()
}

func foundMatch(result ProviderResult, query SearchQuery, tried []SearchQuery) Match {
	return Match{Outcome: OutcomeFound, Result: &result, Query: &query, Tried: tried}
}

func overrideMatch(result ProviderResult) Match {
	return foundMatch(result, ManualQuery, nil)
}

// Provider is the metadata catalog capability the resolver depends on. It
// returns results ordered by provider relevance, or a failure that the
// resolver absorbs for that query.
type Provider interface {
	Search(ctx context.Context, query SearchQuery, language string) ([]ProviderResult, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, query SearchQuery, language string) ([]ProviderResult, error)

func (f ProviderFunc) Search(ctx context.Context, query SearchQuery, language string) ([]ProviderResult, error) {
	return f(ctx, query, language)
}

// CacheKey derives the case-insensitive, whitespace-collapsed key for a
// candidate's title and year.
func CacheKey(c Candidate) string {
	key := strings.ToLower(strings.Join(strings.Fields(c.Title), " "))
	if c.Year > 0 {
		return key + "|" + strconv.Itoa(c.Year)
	}
	return key + "|"
}
