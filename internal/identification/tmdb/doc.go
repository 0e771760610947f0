// Package tmdb provides the minimal TMDB API client used for title
// resolution.
//
// The Client authenticates requests and exposes movie search with an
// optional release year and movie detail lookups by ID. Provider adapts the
// client to identification.Provider: it spaces requests across workers,
// retries rate-limited calls with exponential backoff, and classifies
// failures with the services error markers. Options allow tests to supply
// custom HTTP clients without modifying production code.
package tmdb
