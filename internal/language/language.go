package language

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

type entry struct {
	code2   string   // ISO 639-1 (2-letter)
	code3   string   // ISO 639-2 primary (3-letter)
	alt3    string   // ISO 639-2 alternate (e.g. "fre" vs "fra")
	display string   // Human-readable name
	locale  string   // TMDB query locale; empty when TMDB lookups are not offered
	words   []string // Full word forms seen in release names (e.g. "english")
}

var languages = []entry{
	{"en", "eng", "", "English", "en-US", []string{"english"}},
	{"es", "spa", "", "Spanish", "es-ES", []string{"spanish", "espanol", "castellano"}},
	{"fr", "fra", "fre", "French", "fr-FR", []string{"french", "francais", "truefrench", "vff", "vfq"}},
	{"de", "deu", "ger", "German", "de-DE", []string{"german", "deutsch"}},
	{"pt", "por", "", "Portuguese", "pt-BR", []string{"portuguese", "dublado"}},
	{"ja", "jpn", "", "Japanese", "ja-JP", []string{"japanese"}},
	{"zh", "zho", "chi", "Chinese", "zh-CN", []string{"chinese", "mandarin", "cantonese"}},
	{"it", "ita", "", "Italian", "", []string{"italian"}},
	{"ko", "kor", "", "Korean", "", []string{"korean"}},
	{"ru", "rus", "", "Russian", "", []string{"russian"}},
	{"hi", "hin", "", "Hindi", "", []string{"hindi"}},
	{"nl", "nld", "dut", "Dutch", "", []string{"dutch"}},
	{"pl", "pol", "", "Polish", "", []string{"polish"}},
	{"sv", "swe", "", "Swedish", "", []string{"swedish"}},
}

// releaseMarkers are language-related release tags that do not name a single language.
var releaseMarkers = []string{"multi", "dual", "dubbed", "subbed", "vostfr", "legendado", "nordic"}

// Index maps built at init time.
var (
	byCode2  map[string]*entry
	byCode3  map[string]*entry
	byWord   map[string]*entry
	byMarker map[string]struct{}
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byWord = make(map[string]*entry, len(languages)*2)
	byMarker = make(map[string]struct{}, len(releaseMarkers))
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
		for _, w := range e.words {
			byWord[w] = e
		}
	}
	for _, m := range releaseMarkers {
		byMarker[m] = struct{}{}
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	return nil
}

// ToISO2 converts any recognized language code or word to ISO 639-1 (2-letter).
// Returns empty string for unrecognized input.
// If the input is already a 2-letter code (even if unknown), it passes through.
func ToISO2(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if e := lookup(code); e != nil {
		return e.code2
	}
	if len(code) == 2 {
		return code
	}
	return ""
}

// DisplayName returns a human-readable language name for any recognized code.
// Returns "Unknown" for empty input, or the uppercased code for unrecognized input.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	if e := lookup(code); e != nil {
		return e.display
	}
	return strings.ToUpper(strings.TrimSpace(code))
}

// Supported lists the ISO 639-1 codes that can be used for TMDB lookups, in
// display order.
func Supported() []string {
	out := make([]string, 0, len(languages))
	for _, e := range languages {
		if e.locale != "" {
			out = append(out, e.code2)
		}
	}
	return out
}

// Locale resolves a configured language into the TMDB query locale. Both bare
// codes ("fr") and BCP 47 tags ("fr-FR", "pt_BR") are accepted; region
// subtags on supported languages are kept when present.
func Locale(value string) (string, error) {
	value = strings.TrimSpace(strings.ReplaceAll(value, "_", "-"))
	if value == "" {
		return "", fmt.Errorf("language is empty")
	}
	tag, err := language.Parse(value)
	if err != nil {
		return "", fmt.Errorf("parse language %q: %w", value, err)
	}
	base, _ := tag.Base()
	e := lookup(base.String())
	if e == nil || e.locale == "" {
		return "", fmt.Errorf("language %q is not supported (supported: %s)", value, strings.Join(Supported(), ", "))
	}
	if region, conf := tag.Region(); conf == language.Exact {
		return e.code2 + "-" + region.String(), nil
	}
	return e.locale, nil
}

// IsReleaseToken reports whether a lowercased filename token names a
// language or a language-related release marker such as "multi".
func IsReleaseToken(token string) bool {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return false
	}
	if _, ok := byWord[token]; ok {
		return true
	}
	_, ok := byMarker[token]
	return ok
}
