package indexer

import (
	"strings"
	"unicode"
)

// Preprocess trims text and collapses whitespace runs. Control characters left by
// PDF extraction are treated as whitespace.
func Preprocess(text string) string {
	text = strings.TrimSpace(text)
	var b strings.Builder
	b.Grow(len(text))
	wasSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			if !wasSpace {
				b.WriteRune(' ')
				wasSpace = true
			}
			continue
		}
		b.WriteRune(r)
		wasSpace = false
	}
	return strings.TrimSpace(b.String())
}
