package utils

import (
	"strings"
	"unicode"
)

// Simple text statistics for rendered documents.

// CountWords counts whitespace-separated words that contain at least one
// letter or digit. Markup-only tokens such as "#" or "---" are skipped.
func CountWords(text string) int {
	n := 0
	for _, f := range strings.Fields(text) {
		if strings.IndexFunc(f, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }) >= 0 {
			n++
		}
	}
	return n
}

// SanitizeFileName turns a row key into a safe file name stem. Path
// separators and characters that are invalid on common filesystems become
// '_'; leading dots are dropped so keys cannot produce hidden files.
func SanitizeFileName(key string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(key) {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*' || r == '?' || r == '"' || r == '<' || r == '>' || r == '|':
			b.WriteRune('_')
		case unicode.IsControl(r):
			continue
		default:
			b.WriteRune(r)
		}
	}
	s := strings.TrimLeft(b.String(), ".")
	if s == "" {
		return "_"
	}
	return s
}
