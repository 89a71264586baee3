package utils

import "testing"

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		maxLen int
		want   string
	}{
		{"short string unchanged", "hello", 10, "hello"},
		{"cut with ellipsis", "hello world", 5, "hello..."},
		{"no trailing space before ellipsis", "hello world", 6, "hello..."},
		{"zero only collapses", "a\n\n  b", 0, "a b"},
		{"clause newlines collapse", "Article 33\n1. In the case of", 40, "Article 33 1. In the case of"},
		{"multibyte runes are not split", "§ 5 Verarbeitung", 3, "§ 5..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.in, tt.maxLen); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
			}
		})
	}
}
