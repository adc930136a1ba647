package utils

import "strings"

// LowerToken normalizes a free-text search token for case-insensitive
// LIKE matching: trimmed, lowercased, with LIKE wildcards escaped.
func LowerToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
