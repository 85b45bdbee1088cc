package downloader

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	maxFileNameLength = 200
	fallbackFileName  = "audio"
)

var (
	disallowedChars = regexp.MustCompile(`[^\w\s-]`)
	whitespaceRuns  = regexp.MustCompile(`\s+`)
	underscoreRuns  = regexp.MustCompile(`_+`)
	hyphenRuns      = regexp.MustCompile(`-+`)

	stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// SanitizeFileName reduces a title to ASCII word characters joined by
// single underscores or hyphens, at most 200 bytes long.
func SanitizeFileName(title string) string {
	s, _, err := transform.String(stripMarks, title)
	if err != nil {
		s = title
	}

	s = disallowedChars.ReplaceAllString(s, "")
	s = whitespaceRuns.ReplaceAllString(s, "_")
	s = underscoreRuns.ReplaceAllString(s, "_")
	s = hyphenRuns.ReplaceAllString(s, "-")
	s = strings.Trim(s, "_")

	if len(s) > maxFileNameLength {
		s = strings.TrimRight(s[:maxFileNameLength], "_")
	}
	if s == "" {
		return fallbackFileName
	}
	return s
}
