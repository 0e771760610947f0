// Package services defines shared utilities consumed by the identification core,
// the batch runner, and the TMDB integration.
//
// Key responsibilities:
//   - Context helpers that stamp batch IDs, raw item names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that let callers tell
//     configuration problems apart from transient provider failures.
//
// Use these helpers when wiring new components so error classification and
// observability stay uniform.
package services
