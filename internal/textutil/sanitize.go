package textutil

import (
	"strings"
	"unicode"
)

// nameReplacer maps characters that are unsafe on common filesystems. A
// subtitle colon ("Alien: Covenant") becomes a spaced dash.
var nameReplacer = strings.NewReplacer(
	": ", " - ",
	":", "-",
	"/", "-",
	"\\", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName makes a proposed name safe to use as a file or folder
// name. Control characters are dropped, whitespace runs collapse to a single
// space, and trailing dots are removed.
func SanitizeFileName(name string) string {
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	name = nameReplacer.Replace(name)
	name = strings.Join(strings.Fields(name), " ")
	return strings.TrimRight(name, ". ")
}
