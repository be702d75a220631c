package common

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncatePrefix(t *testing.T) {
	tests := []struct {
		name  string
		input string
		limit int
		want  string
	}{
		{name: "shorter than limit", input: "abc", limit: 10, want: "abc"},
		{name: "exact limit", input: "abcde", limit: 5, want: "abcde"},
		{name: "ascii cut", input: "abcdef", limit: 3, want: "abc"},
		{name: "zero limit", input: "abc", limit: 0, want: ""},
		{name: "negative limit", input: "abc", limit: -1, want: ""},
		{name: "empty input", input: "", limit: 5, want: ""},
		// "…" is 3 bytes; a limit inside it backs up to the boundary
		{name: "cut inside rune", input: "ab…", limit: 3, want: "ab"},
		{name: "cut inside rune deeper", input: "ab…", limit: 4, want: "ab"},
		{name: "rune fits exactly", input: "ab…cd", limit: 5, want: "ab…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncatePrefix(tt.input, tt.limit)
			if got != tt.want {
				t.Errorf("TruncatePrefix(%q, %d) = %q, want %q", tt.input, tt.limit, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("TruncatePrefix(%q, %d) = %q is not valid UTF-8", tt.input, tt.limit, got)
			}
		})
	}
}

func TestTruncatePrefixMultiByteSweep(t *testing.T) {
	// Every possible cut point over mixed-width runes must stay valid
	input := strings.Repeat("s", 9) + "…Ω漢"
	for limit := 0; limit <= len(input)+1; limit++ {
		got := TruncatePrefix(input, limit)
		if !utf8.ValidString(got) {
			t.Errorf("limit %d: %q is not valid UTF-8", limit, got)
		}
		if len(got) > limit && limit >= 0 {
			t.Errorf("limit %d: result is %d bytes", limit, len(got))
		}
	}
}
