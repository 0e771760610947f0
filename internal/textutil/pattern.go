package textutil

import (
	"strconv"
	"strings"
)

// RenderName expands a naming pattern such as "{title} ({year})" for a
// resolved title. Supported placeholders are {title}, {year}, and {ext}.
// When year is zero, "({year})" and "[{year}]" groups collapse along with
// the whitespace around them. The result is passed through SanitizeFileName.
func RenderName(pattern, title string, year int, ext string) string {
	if strings.TrimSpace(pattern) == "" {
		pattern = "{title} ({year})"
	}
	out := pattern
	if year > 0 {
		out = strings.ReplaceAll(out, "{year}", strconv.Itoa(year))
	} else {
		out = yearGroupReplacer.Replace(out)
		out = strings.ReplaceAll(out, "{year}", "")
	}
	out = strings.ReplaceAll(out, "{title}", title)
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	out = strings.ReplaceAll(out, "{ext}", ext)
	out = strings.Join(strings.Fields(out), " ")
	out = strings.Trim(out, " -")
	out = strings.TrimRight(out, " .")
	return SanitizeFileName(out)
}

var yearGroupReplacer = strings.NewReplacer(
	"({year})", "",
	"[{year}]", "",
)
