package identification

import (
	"strconv"
	"strings"
)

// romanNumerals covers sequel numbering; there is no general Roman arithmetic.
var romanNumerals = []string{
	"", "I", "II", "III", "IV", "V", "VI", "VII", "VIII", "IX", "X",
	"XI", "XII", "XIII", "XIV", "XV", "XVI", "XVII", "XVIII", "XIX", "XX",
}

var romanValues = func() map[string]int {
	m := make(map[string]int, len(romanNumerals))
	for value, numeral := range romanNumerals {
		if numeral != "" {
			m[numeral] = value
		}
	}
	return m
}()

// romanValue returns the value of a standalone numeral token. Single-letter
// numerals must be uppercase so words like "i" or "x" in lowercase names are
// left alone.
func romanValue(word string) (int, bool) {
	if len(word) == 1 && strings.ToUpper(word) != word {
		return 0, false
	}
	value, ok := romanValues[strings.ToUpper(word)]
	return value, ok
}

// arabicValue parses a plain 2-20 sequel number without leading zeros.
func arabicValue(word string) (int, bool) {
	if word == "" || word[0] == '0' || !isNumeric(word) {
		return 0, false
	}
	value, err := strconv.Atoi(word)
	if err != nil || value < 2 || value > 20 {
		return 0, false
	}
	return value, true
}

// Expand sets RomanVariant when the title ends in a sequel numeral, swapping
// Roman for Arabic digits or the reverse. Titles of a single word are left
// alone. Expand is idempotent.
func Expand(c Candidate) Candidate {
	c.RomanVariant = ""
	words := strings.Fields(c.Title)
	if len(words) < 2 {
		return c
	}
	last := words[len(words)-1]
	var replacement string
	if value, ok := romanValue(last); ok {
		replacement = strconv.Itoa(value)
	} else if value, ok := arabicValue(last); ok {
		replacement = romanNumerals[value]
	} else {
		return c
	}
	words[len(words)-1] = replacement
	c.RomanVariant = strings.Join(words, " ")
	return c
}

// foldNumerals rewrites standalone Roman numeral words as Arabic digits so
// "Rocky IV" and "Rocky 4" compare equal.
func foldNumerals(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		if value, ok := romanValues[strings.ToUpper(w)]; ok && i > 0 {
			out[i] = strconv.Itoa(value)
			continue
		}
		out[i] = w
	}
	return out
}
