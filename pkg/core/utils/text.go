package utils

import "unicode/utf8"

// Truncate cuts s to at most limit runes. No marker is appended, so the
// result is still a verbatim prefix of s.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
