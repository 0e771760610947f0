// Package language provides language code normalization and mapping.
//
// It resolves configured languages into the locales sent with TMDB searches
// and recognizes the language words that release groups embed in filenames
// ("FRENCH", "MULTi") so the normalizer can drop them from titles.
package language
