package engine

import (
	"strings"
)

// UnknownTitle replaces titles that clean down to nothing
const UnknownTitle = "Unknown Video"

var junkPrefixes = []string{"NA - ", "undefined - ", "null - ", "[object Object] - ", "untitled - "}

var titleWords = map[string]bool{"and": true, "the": true, "with": true, "for": true, "on": true, "in": true}

// CleanTitle removes placeholder and uploader prefixes from a media title
func CleanTitle(title string) string {
	title = strings.TrimLeft(title, " \t")
	for _, p := range junkPrefixes {
		if len(title) >= len(p) && strings.EqualFold(title[:len(p)], p) {
			title = strings.TrimSpace(title[len(p):])
		}
	}

	if prefix, rest, ok := strings.Cut(title, " - "); ok {
		rest = strings.TrimSpace(rest)
		if len(prefix) <= 20 && len(rest) >= 10 && !hasTitleWord(prefix) {
			title = rest
		}
	}

	title = strings.Trim(title, "- \t")
	if title == "" {
		return UnknownTitle
	}
	return title
}

func hasTitleWord(s string) bool {
	for _, w := range strings.Fields(strings.ToLower(s)) {
		if titleWords[w] {
			return true
		}
	}
	return false
}
