package common

import "unicode/utf8"

// TruncatePrefix returns at most limit bytes of s. When the limit lands
// inside a multi-byte rune the cut backs up to the preceding rune
// boundary so the result is always valid UTF-8.
func TruncatePrefix(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
