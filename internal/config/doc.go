// Package config loads, normalizes, and validates reelname configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TMDB_API_KEY. Configured languages are resolved to TMDB locales during
// normalization so downstream code never sees a bare language code.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
