// Package fuzzy matches on-disk file names against download titles.
//
// Everything here is a pure function of its inputs so it can be used
// from request handlers, background cleanup and tests alike.
package fuzzy

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

// PartialSuffixes are the extensions used by interrupted transfers
var PartialSuffixes = []string{".part", ".ytdl", ".temp", ".download", ".crdownload"}

var (
	fragmentSuffix = regexp.MustCompile(`(?i)\.part-frag\d+$`)
	formatSuffix   = regexp.MustCompile(`(?i)\.f\d+$`)
)

var mediaExtensions = map[string]bool{
	".mp4": true, ".mkv": true, ".webm": true, ".avi": true, ".mov": true,
	".m4v": true, ".flv": true, ".wmv": true, ".m4a": true, ".mp3": true,
	".opus": true, ".ogg": true, ".wav": true, ".aac": true, ".3gp": true,
}

// IsPartial reports whether a file name carries a partial-transfer suffix
func IsPartial(name string) bool {
	lower := strings.ToLower(name)
	if fragmentSuffix.MatchString(lower) {
		return true
	}
	for _, s := range PartialSuffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}

// StripPartial removes every trailing partial suffix, media extension and
// yt-dlp format id from a file name, leaving the title part.
func StripPartial(name string) string {
	name = filepath.Base(name)
	for {
		before := name
		name = fragmentSuffix.ReplaceAllString(name, "")
		lower := strings.ToLower(name)
		for _, s := range PartialSuffixes {
			if strings.HasSuffix(lower, s) {
				name = name[:len(name)-len(s)]
				lower = strings.ToLower(name)
			}
		}
		if ext := strings.ToLower(filepath.Ext(name)); mediaExtensions[ext] {
			name = name[:len(name)-len(ext)]
		}
		name = formatSuffix.ReplaceAllString(name, "")
		if name == before {
			return name
		}
	}
}

// NormalizeFilename normalizes the title part of a file name
func NormalizeFilename(name string) string {
	return Normalize(StripPartial(name))
}

// Normalize reduces a title to lower-case words separated by single
// spaces. Separators such as underscores, dots and dashes count as
// whitespace, every other non-alphanumeric character is dropped.
func Normalize(s string) string {
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '_' || r == '-' || r == '.':
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// words returns the set of words of an already normalized string
func words(normalized string) map[string]struct{} {
	fields := strings.Fields(normalized)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
