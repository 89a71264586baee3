package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestExtractBytes_plain(t *testing.T) {
	e := NewExtractor()
	tests := []struct {
		name    string
		content []byte
		ext     string
		want    string
	}{
		{"txt", []byte("Section 8. Obligations\nof Data Fiduciary"), ".txt", "Section 8. Obligations\nof Data Fiduciary"},
		{"utf8", []byte("caf\xc3\xa9"), ".md", "café"},
		{"invalid utf8", []byte("hello\x80world"), ".rst", "hello\uFFFDworld"},
		{"bom", []byte("\xef\xbb\xbfArticle 5"), ".TXT", "Article 5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.ExtractBytes(tt.content, tt.ext)
			if err != nil {
				t.Fatalf("ExtractBytes: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractBytes_unsupported(t *testing.T) {
	e := NewExtractor()
	for _, ext := range []string{".xyz", ".pptx", ""} {
		if _, err := e.ExtractBytes([]byte("raw"), ext); !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("ext %q: err = %v, want ErrUnsupportedFormat", ext, err)
		}
	}
}

func TestExtractor_Supported(t *testing.T) {
	e := NewExtractor()
	if !e.Supported(".PDF") || !e.Supported(".docx") {
		t.Error("pdf and docx should be supported")
	}
	if e.Supported(".exe") {
		t.Error(".exe should not be supported")
	}
	want := []string{".docx", ".md", ".pdf", ".rst", ".txt", ".xlsx"}
	got := e.Extensions()
	if len(got) != len(want) {
		t.Fatalf("Extensions() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Extensions()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestExtractBytes_excel(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "Breach")
	f.SetCellValue("Sheet1", "B1", "Penalty")
	f.SetCellValue("Sheet1", "A2", "Failure to take security safeguards")
	f.SetCellValue("Sheet1", "B2", "up to 250 crore rupees")
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	got, err := NewExtractor().ExtractBytes(buf.Bytes(), ".xlsx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	want := "Breach | Penalty\nFailure to take security safeguards | up to 250 crore rupees"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExtract_files(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "gdpr.txt")
	if err := os.WriteFile(txt, []byte("Article 33 notification"), 0600); err != nil {
		t.Fatal(err)
	}
	xlsx := filepath.Join(dir, "schedule.xlsx")
	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "A1", "Schedule text")
	if err := f.SaveAs(xlsx); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	f.Close()

	e := NewExtractor()
	for path, want := range map[string]string{txt: "Article 33 notification", xlsx: "Schedule text"} {
		got, err := e.Extract(path)
		if err != nil {
			t.Fatalf("Extract(%s): %v", path, err)
		}
		if got != want {
			t.Errorf("Extract(%s) = %q, want %q", path, got, want)
		}
	}
}

func TestExtract_nonexistent(t *testing.T) {
	if _, err := NewExtractor().Extract("/nonexistent/path/file.txt"); err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func zipOf(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, body := range files {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

const docxBody = `<?xml version="1.0"?><w:document><w:body>` +
	`<w:p w:rsidR="00A1"><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Section 8</w:t></w:r></w:p>` +
	`<w:p><w:r><w:t xml:space="preserve">The Data Fiduciary </w:t></w:r><w:r><w:t>shall protect data &amp; records.</w:t></w:r></w:p>` +
	`<w:p></w:p>` +
	`</w:body></w:document>`

func TestExtractBytes_docx(t *testing.T) {
	got, err := NewExtractor().ExtractBytes(zipOf(t, map[string]string{"word/document.xml": docxBody}), ".docx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	want := "Section 8\nThe Data Fiduciary shall protect data & records."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExtractBytes_docxContentTypes(t *testing.T) {
	orders := map[string]string{
		"part first": `<Override PartName="/word/document2.xml" ContentType="` + docxMainContentType + `"/>`,
		"type first": `<Override ContentType="` + docxMainContentType + `" PartName="/word/document2.xml"/>`,
	}
	for name, override := range orders {
		t.Run(name, func(t *testing.T) {
			data := zipOf(t, map[string]string{
				contentTypesPath:     `<?xml version="1.0"?><Types>` + override + `</Types>`,
				"word/document2.xml": `<w:document><w:body><w:p><w:r><w:t>Article 17</w:t></w:r></w:p></w:body></w:document>`,
			})
			got, err := NewExtractor().ExtractBytes(data, ".docx")
			if err != nil {
				t.Fatalf("ExtractBytes: %v", err)
			}
			if got != "Article 17" {
				t.Errorf("got %q", got)
			}
		})
	}
}

func TestExtractBytes_docxErrors(t *testing.T) {
	e := NewExtractor()
	if _, err := e.ExtractBytes([]byte("not a zip"), ".docx"); err == nil {
		t.Error("expected error for non-zip docx")
	}
	if _, err := e.ExtractBytes(zipOf(t, map[string]string{"other.xml": "<x/>"}), ".docx"); err == nil {
		t.Error("expected error for missing document body")
	}
}

func TestExtractBytes_pdfInvalid(t *testing.T) {
	if _, err := NewExtractor().ExtractBytes([]byte("%PDF-garbage"), ".pdf"); err == nil {
		t.Error("expected error for malformed PDF")
	}
}

func TestJoinHyphenated(t *testing.T) {
	got := joinHyphenated("processing obliga-\ntions under Section-\n8 and\nconsent")
	want := "processing obligations under Section-\n8 and\nconsent"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
