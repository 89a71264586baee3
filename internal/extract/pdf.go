package extract

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/ledongthuc/pdf"
)

// lineBreakHyphen matches a word split across lines by a hyphen, as in "obliga-\ntions".
var lineBreakHyphen = regexp.MustCompile(`(\p{Ll})-\n(\p{Ll})`)

func extractPDF(content []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}
	var buf bytes.Buffer
	numPages := r.NumPage()
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract page %d: %w", i, err)
		}
		buf.WriteString(text)
		if i < numPages {
			buf.WriteByte('\n')
		}
	}
	return joinHyphenated(buf.String()), nil
}

// joinHyphenated rejoins lower-case words broken across a line end.
func joinHyphenated(s string) string {
	return lineBreakHyphen.ReplaceAllString(s, "$1$2")
}
