package identification

import "strings"

// Plan returns the ordered provider queries for a candidate, most specific
// first:
//
//  1. title with year
//  2. title alone
//  3. roman variant with year
//  4. roman variant alone, when there is no year
//
// Queries with the same text and year are suppressed after their first
// occurrence. Priorities are assigned 1..n over the surviving queries.
func Plan(c Candidate) []SearchQuery {
	title := strings.TrimSpace(c.Title)
	variant := strings.TrimSpace(c.RomanVariant)

	planned := make([]SearchQuery, 0, 4)
	if title != "" {
		if c.Year > 0 {
			planned = append(planned, SearchQuery{Text: title, Year: c.Year})
		}
		planned = append(planned, SearchQuery{Text: title})
	}
	if variant != "" {
		if c.Year > 0 {
			planned = append(planned, SearchQuery{Text: variant, Year: c.Year})
		} else {
			planned = append(planned, SearchQuery{Text: variant})
		}
	}

	seen := make(map[string]struct{}, len(planned))
	out := planned[:0]
	for _, q := range planned {
		key := planKey(q)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		q.Priority = len(out) + 1
		out = append(out, q)
	}
	return out
}

func planKey(q SearchQuery) string {
	return CacheKey(Candidate{Title: q.Text, Year: q.Year})
}
