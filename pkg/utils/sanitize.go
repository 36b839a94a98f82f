package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Sanitize lowercases s, strips accents, and replaces every run of
// non-alphanumeric characters with a single underscore. Used to build
// safe download filenames from author names and paper titles.
func Sanitize(s string) string {
	s = stripAccents(s)
	s = strings.ToLower(s)
	// Apostrophes are dropped outright so "O'Brien" yields "obrien",
	// not "o_brien".
	s = strings.NewReplacer("'", "", "’", "").Replace(s)

	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// DownloadBasename builds the manuscript download basename:
// sanitize(authorName)_sanitize(paperTitle).
func DownloadBasename(authorName, paperTitle string) string {
	name := Sanitize(authorName)
	title := Sanitize(paperTitle)
	switch {
	case name == "":
		return title
	case title == "":
		return name
	}
	return name + "_" + title
}

// stripAccents decomposes to NFD and drops combining marks, so
// "José" becomes "Jose".
func stripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
