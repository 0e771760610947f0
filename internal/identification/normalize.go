package identification

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	minReleaseYear = 1878
	unknownTitle   = "Unknown Title"
)

var defaultVideoExtensions = []string{"mp4", "mkv", "avi", "mov", "flv"}

var (
	bracketPattern    = regexp.MustCompile(`\[[^\]]*\]|\{[^}]*\}`)
	separatorReplacer = strings.NewReplacer(".", " ", "_", " ")
)

// Normalizer turns raw file and folder names into candidates. It holds no
// mutable state and is safe for concurrent use.
type Normalizer struct {
	extensions map[string]struct{}
	now        func() time.Time
}

// NormalizerOption customizes a Normalizer.
type NormalizerOption func(*Normalizer)

// WithExtensions replaces the supported video extension set. Entries are
// matched case-insensitively with or without a leading dot.
func WithExtensions(exts []string) NormalizerOption {
	return func(n *Normalizer) {
		if len(exts) == 0 {
			return
		}
		n.extensions = extensionSet(exts)
	}
}

// WithClock sets the clock used for the upper bound of the year range.
func WithClock(now func() time.Time) NormalizerOption {
	return func(n *Normalizer) {
		if now != nil {
			n.now = now
		}
	}
}

// NewNormalizer builds a Normalizer with the default extension set.
func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		extensions: extensionSet(defaultVideoExtensions),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func extensionSet(exts []string) map[string]struct{} {
	set := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			set[ext] = struct{}{}
		}
	}
	return set
}

// Normalize derives a candidate from a file name. It never fails: when no
// title survives token stripping the separator-normalized name is returned.
func (n *Normalizer) Normalize(raw string) Candidate {
	return n.normalize(raw, false)
}

// NormalizeDir derives a candidate from a folder name. Extensions are not
// stripped, so "Heat.1995" keeps its year.
func (n *Normalizer) NormalizeDir(raw string) Candidate {
	return n.normalize(raw, true)
}

// NormalizeName dispatches on isDir.
func (n *Normalizer) NormalizeName(raw string, isDir bool) Candidate {
	return n.normalize(raw, isDir)
}

func (n *Normalizer) normalize(raw string, isDir bool) Candidate {
	name := strings.TrimSpace(raw)
	if !isDir {
		name = n.stripExtension(name)
	}
	spaced := separatorReplacer.Replace(name)
	fallback := strings.Join(strings.Fields(spaced), " ")

	tokens := tokenize(separatorReplacer.Replace(bracketPattern.ReplaceAllString(name, " ")))
	yr := yearRange{min: minReleaseYear, max: n.now().Year() + 2}
	classify(tokens)

	title, year := extractTitle(tokens, yr)
	if title == "" {
		title, year = fallback, 0
	}
	if title == "" {
		title = unknownTitle
	}
	return Candidate{Title: title, Year: year}
}

func (n *Normalizer) stripExtension(name string) string {
	ext := filepath.Ext(name)
	if ext == "" || len(ext) == len(name) {
		return name
	}
	if _, ok := n.extensions[strings.ToLower(ext[1:])]; ok {
		return strings.TrimSpace(name[:len(name)-len(ext)])
	}
	return name
}

type token struct {
	text  string
	lower string
	sep   bool // standalone dash kept as a subtitle separator
	paren bool // the source field was wrapped in parentheses
	class tokenClass
	hard  bool
	junk  bool
}

type yearRange struct {
	min, max int
}

func (r yearRange) contains(t token) bool {
	if t.sep || len(t.text) != 4 {
		return false
	}
	year, err := strconv.Atoi(t.text)
	if err != nil {
		return false
	}
	return year >= r.min && year <= r.max
}

func isDash(r rune) bool {
	return r == '-' || r == '–' || r == '—'
}

func tokenize(name string) []token {
	fields := strings.Fields(name)
	tokens := make([]token, 0, len(fields))
	for _, field := range fields {
		if strings.TrimFunc(field, isDash) == "" {
			tokens = append(tokens, token{text: "-", sep: true})
			continue
		}
		paren := strings.HasPrefix(field, "(") && strings.HasSuffix(field, ")")
		for _, part := range strings.FieldsFunc(field, isDash) {
			part = strings.Trim(part, "()")
			if part == "" {
				continue
			}
			tokens = append(tokens, token{text: part, lower: strings.ToLower(part), paren: paren})
		}
	}
	return tokens
}

// classify marks junk tokens in three passes: table and pair lookups,
// qualifiers that trail a classified token, then soft classes inside the
// trailing junk run (right to left).
func classify(tokens []token) {
	for i := 0; i < len(tokens); i++ {
		if tokens[i].sep {
			continue
		}
		if i+1 < len(tokens) && !tokens[i+1].sep {
			if class := classifyPair(tokens[i].lower, tokens[i+1].lower); class != classNone {
				hard := class.hard(tokens[i].lower + "." + tokens[i+1].lower)
				for _, j := range []int{i, i + 1} {
					tokens[j].class, tokens[j].hard, tokens[j].junk = class, hard, hard
				}
				i++
				continue
			}
		}
		class := classifyToken(tokens[i].lower)
		tokens[i].class = class
		tokens[i].hard = class != classNone && class.hard(tokens[i].lower)
		tokens[i].junk = tokens[i].hard
	}

	// A qualifier takes the class of the token it follows, so "German DL"
	// is one soft language run and "DTS HD MA" one hard audio run.
	for i := range tokens {
		t := &tokens[i]
		if t.sep || t.class != classNone || !isTrailingQualifier(t.lower) {
			continue
		}
		prev := prevWord(tokens, i)
		if prev < 0 || tokens[prev].class == classNone {
			continue
		}
		t.class, t.hard, t.junk = tokens[prev].class, tokens[prev].hard, tokens[prev].junk
	}

	first := nextWord(tokens, -1)
	for i := len(tokens) - 1; i > first; i-- {
		t := &tokens[i]
		if t.sep || t.junk || t.class == classNone {
			continue
		}
		if next := nextWord(tokens, i); next < 0 || tokens[next].junk {
			t.junk = true
		}
	}
}

func nextWord(tokens []token, i int) int {
	for j := i + 1; j < len(tokens); j++ {
		if !tokens[j].sep {
			return j
		}
	}
	return -1
}

func prevWord(tokens []token, i int) int {
	for j := i - 1; j >= 0; j-- {
		if !tokens[j].sep {
			return j
		}
	}
	return -1
}

// selectYear returns the index of the release year token, or -1.
//
// Parenthesized years win. Otherwise the first in-range number that is
// followed by junk, or by nothing but junk, is the year. Failing that, the
// rightmost candidate preceded by a title word is taken, so unknown tags
// after a lone year ("Heat 1995 LIMITED") do not hide it. A number that
// would leave no title is never a year.
func selectYear(tokens []token, yr yearRange) int {
	var candidates []int
	words := 0
	for i, t := range tokens {
		if t.sep || t.junk {
			continue
		}
		words++
		if yr.contains(t) {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 || words < 2 {
		return -1
	}
	for _, i := range candidates {
		if tokens[i].paren {
			return i
		}
	}
	for _, i := range candidates {
		if confirmedYear(tokens, i) {
			return i
		}
	}
	for k := len(candidates) - 1; k >= 0; k-- {
		if i := candidates[k]; followsTitleWord(tokens, i) {
			return i
		}
	}
	return -1
}

func confirmedYear(tokens []token, i int) bool {
	next := nextWord(tokens, i)
	if next >= 0 && tokens[next].junk {
		return true
	}
	for j := i + 1; j < len(tokens); j++ {
		if !tokens[j].sep && !tokens[j].junk {
			return false
		}
	}
	return true
}

func followsTitleWord(tokens []token, i int) bool {
	prev := prevWord(tokens, i)
	return prev >= 0 && !tokens[prev].junk && !isNumeric(tokens[prev].text)
}

func extractTitle(tokens []token, yr yearRange) (string, int) {
	y := selectYear(tokens, yr)
	var parts []token
	year := 0
	if y >= 0 {
		year, _ = strconv.Atoi(tokens[y].text)
		for _, t := range tokens[:y] {
			if !t.junk {
				parts = append(parts, t)
			}
		}
		if !hasWord(parts) {
			parts = leadingRun(tokens[y+1:])
		}
	} else {
		parts = leadingRun(tokens)
	}
	title := renderTokens(parts)
	if title == "" {
		return "", 0
	}
	return title, year
}

// leadingRun returns the tokens from the first title word up to the next
// junk token.
func leadingRun(tokens []token) []token {
	start := nextWord(tokens, -1)
	for start >= 0 && tokens[start].junk {
		start = nextWord(tokens, start)
	}
	if start < 0 {
		return nil
	}
	end := start
	for end < len(tokens) && !tokens[end].junk {
		end++
	}
	return tokens[start:end]
}

func hasWord(tokens []token) bool {
	for _, t := range tokens {
		if !t.sep {
			return true
		}
	}
	return false
}

// renderTokens joins surviving tokens, collapsing repeated separators and
// trimming dangling ones.
func renderTokens(tokens []token) string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t.sep {
			if len(out) == 0 || out[len(out)-1] == "-" {
				continue
			}
			out = append(out, "-")
			continue
		}
		out = append(out, t.text)
	}
	for len(out) > 0 && out[len(out)-1] == "-" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, " ")
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
