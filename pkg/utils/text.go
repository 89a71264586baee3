// Package utils provides shared helpers for logging, vector math and display text.
package utils

import "strings"

// Truncate collapses runs of whitespace to single spaces and cuts the result to at most
// maxLen runes, appending "..." when it cut. A maxLen of 0 or less only collapses.
func Truncate(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return strings.TrimRight(string(runes[:maxLen]), " ") + "..."
}
