// Package identification turns raw movie file and folder names into TMDB
// matches.
//
// A Normalizer strips release junk (quality, source, codec, audio, and
// trailing edition or release-group words) and extracts a Candidate title
// and year. Expand adds a Roman/Arabic numeral variant, Plan orders the
// provider queries, and the Resolver runs that plan through a per-process
// Cache that coalesces concurrent lookups of the same key. Overrides
// registered through the OverrideGateway win over cached and in-flight
// resolutions.
//
// Engine wires the stages together and is what callers normally use.
package identification
