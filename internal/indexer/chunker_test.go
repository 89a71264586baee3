package indexer

import (
	"testing"

	"github.com/hyperjump/clausegate/internal/models"
)

func TestChunker_Chunk(t *testing.T) {
	c := NewChunker(3, 1)
	chunks := c.Chunk("file:ab12", "dpdp-act-2023", "DPDP Act 2023.pdf", "one two three four five six seven")
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	wantText := []string{"one two three", "three four five", "five six seven"}
	for i, ch := range chunks {
		if ch.DocumentID != "file:ab12" {
			t.Errorf("chunk %d DocumentID=%s", i, ch.DocumentID)
		}
		if ch.ChunkIndex != i {
			t.Errorf("chunk %d ChunkIndex=%d", i, ch.ChunkIndex)
		}
		if ch.Content != wantText[i] {
			t.Errorf("chunk %d Content=%q, want %q", i, ch.Content, wantText[i])
		}
		if want := ClauseID("dpdp-act-2023", i); ch.Metadata[models.MetaClauseID] != want {
			t.Errorf("chunk %d clause_id=%v, want %s", i, ch.Metadata[models.MetaClauseID], want)
		}
		if ch.Metadata[models.MetaSource] != "DPDP Act 2023.pdf" || ch.Metadata[models.MetaDocumentID] != "file:ab12" {
			t.Errorf("chunk %d metadata=%v", i, ch.Metadata)
		}
	}
	if chunks[0].ID != "file:ab12_c0" {
		t.Errorf("chunk ID = %q", chunks[0].ID)
	}
}

func TestChunker_deterministicIDs(t *testing.T) {
	c := NewChunker(4, 0)
	a := c.Chunk("d", "s", "s.txt", "a b c d e f g h")
	b := c.Chunk("d", "s", "s.txt", "a b c d e f g h")
	for i := range a {
		if a[i].ID != b[i].ID {
			t.Errorf("chunk %d IDs differ: %s vs %s", i, a[i].ID, b[i].ID)
		}
	}
}

func TestChunker_ChunkEmpty(t *testing.T) {
	c := NewChunker(5, 1)
	if chunks := c.Chunk("d", "s", "s.txt", "   \n\t  "); chunks != nil {
		t.Errorf("empty text should return nil, got %v", chunks)
	}
}

func TestChunker_overlapNotSmallerThanSize(t *testing.T) {
	c := NewChunker(2, 5)
	chunks := c.Chunk("d", "s", "s.txt", "a b c")
	if len(chunks) != 2 {
		t.Errorf("step clamps to 1: got %d chunks", len(chunks))
	}
}

func TestPreprocess(t *testing.T) {
	tests := map[string]string{
		"  a  b  ":              "a b",
		"Section 8\n\n(1) The":  "Section 8 (1) The",
		"tab\there\x00and\x0cff": "tab here and ff",
		"":                      "",
	}
	for in, want := range tests {
		if got := Preprocess(in); got != want {
			t.Errorf("Preprocess(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"DPDP Act 2023.pdf":        "dpdp-act-2023",
		"/corpus/gdpr_full.txt":    "gdpr-full",
		"Règlement (UE) 2016.docx": "règlement-ue-2016",
		"---.md":                   "document",
	}
	for in, want := range tests {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFileDocID(t *testing.T) {
	a := FileDocID("/corpus/gdpr.txt")
	if a != FileDocID("/corpus/./gdpr.txt") {
		t.Error("cleaned paths should share an ID")
	}
	if a == FileDocID("/corpus/dpdp.txt") {
		t.Error("different paths should differ")
	}
	if len(a) != len(docIDPrefix)+16 {
		t.Errorf("unexpected ID %q", a)
	}
}
