package source

import (
	"regexp"
	"strings"
)

// FileExtension is appended to every download filename.
const FileExtension = ".mp4"

var (
	unsafeChars    = regexp.MustCompile(`[^A-Za-z0-9_\- ]`)
	whitespaceRuns = regexp.MustCompile(`\s+`)
	underscoreRuns = regexp.MustCompile(`_+`)
)

// SanitizeTitle renders a display title as a filesystem-safe stem. Characters
// outside [A-Za-z0-9_- ] and runs of whitespace become a single underscore,
// and leading or trailing underscores are dropped. Applying it twice gives
// the same result as applying it once.
func SanitizeTitle(title string) string {
	s := unsafeChars.ReplaceAllString(title, "_")
	s = whitespaceRuns.ReplaceAllString(s, "_")
	s = underscoreRuns.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return "download"
	}
	return s
}

// Filename is the attachment name for title, e.g. "My_Movie_Part_2.mp4".
func Filename(title string) string {
	return SanitizeTitle(title) + FileExtension
}
