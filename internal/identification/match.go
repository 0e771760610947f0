package identification

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// yearTolerance absorbs production versus release year differences.
const yearTolerance = 1

var leadingArticles = map[string]struct{}{"the": {}, "a": {}, "an": {}}

var symbolWords = strings.NewReplacer("&", " and ", "+", " and ", "@", " at ")

// comparisonWords lowercases, folds diacritics, spells out symbols, and
// splits on anything that is not a letter or digit.
func comparisonWords(value string) []string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), value)
	if err != nil {
		folded = value
	}
	folded = strings.ToLower(symbolWords.Replace(folded))
	return strings.FieldsFunc(folded, func(r rune) bool {
		return r != '\'' && !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func joinKey(words []string) string {
	var b strings.Builder
	for _, w := range words {
		for _, r := range w {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

func stripArticle(words []string) []string {
	if len(words) > 1 {
		if _, ok := leadingArticles[words[0]]; ok {
			return words[1:]
		}
	}
	return words
}

// titlesMatch applies the near-match half of the acceptance rule: exact
// comparison keys, equal keys after folding sequel numerals or dropping a
// leading article, or a small edit distance between keys with identical
// digits. Numbers never fuzz, so "Rocky II" does not match "Rocky III".
func titlesMatch(query, candidate string) bool {
	qWords, cWords := comparisonWords(query), comparisonWords(candidate)
	qKey, cKey := joinKey(qWords), joinKey(cWords)
	if qKey == "" || cKey == "" {
		return false
	}
	if qKey == cKey {
		return true
	}
	qFold := joinKey(stripArticle(foldNumerals(qWords)))
	cFold := joinKey(stripArticle(foldNumerals(cWords)))
	if qFold == cFold {
		return true
	}
	if digitsOf(qFold) != digitsOf(cFold) {
		return false
	}
	shorter := min(len([]rune(qFold)), len([]rune(cFold)))
	if shorter < 5 {
		return false
	}
	return levenshtein(qFold, cFold) <= max(1, shorter/10)
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// accepts reports whether result satisfies the acceptance rule for query.
func accepts(query SearchQuery, result ProviderResult) bool {
	if !titlesMatch(query.Text, result.Title) {
		return false
	}
	if query.Year > 0 {
		if result.ReleaseYear <= 0 {
			return false
		}
		diff := result.ReleaseYear - query.Year
		if diff < -yearTolerance || diff > yearTolerance {
			return false
		}
	}
	return true
}

// selectBest picks the acceptable result with the highest popularity,
// breaking ties on the lowest ID.
func selectBest(query SearchQuery, results []ProviderResult) (ProviderResult, int, bool) {
	var best ProviderResult
	found := false
	accepted := 0
	for _, r := range results {
		if !accepts(query, r) {
			continue
		}
		accepted++
		if !found || r.Popularity > best.Popularity || (r.Popularity == best.Popularity && r.ID < best.ID) {
			best = r
			found = true
		}
	}
	return best, accepted, found
}
