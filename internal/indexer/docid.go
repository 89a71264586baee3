package indexer

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
	"unicode"
)

const docIDPrefix = "file:"

// FileDocID returns a stable document ID for an absolute path. Re-indexing the same
// path replaces the same document.
func FileDocID(absolutePath string) string {
	hash := sha256.Sum256([]byte(filepath.Clean(absolutePath)))
	return docIDPrefix + hex.EncodeToString(hash[:8])
}

// Slug derives a short document name from a file name: lower-cased, extension
// dropped, runs of non-alphanumerics collapsed to a single hyphen.
// "DPDP Act 2023.pdf" becomes "dpdp-act-2023".
func Slug(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(base) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	if b.Len() == 0 {
		return "document"
	}
	return b.String()
}
