package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hyperjump/clausegate/internal/models"
)

func ps(ids ...string) []models.Passage {
	out := make([]models.Passage, len(ids))
	for i, id := range ids {
		out[i] = models.Passage{ID: id, Text: "text " + id, Relevance: 0.5}
	}
	return out
}

func ids(passages []models.Passage) []string {
	out := make([]string, len(passages))
	for i, p := range passages {
		out[i] = p.ID
	}
	return out
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name     string
		semantic []models.Passage
		lexical  []models.Passage
		want     []string
	}{
		{"both empty", nil, nil, []string{}},
		{"semantic only", ps("a", "b"), nil, []string{"a", "b"}},
		{"lexical only", nil, ps("x"), []string{"x"}},
		{"semantic before lexical", ps("a", "b"), ps("c"), []string{"a", "b", "c"}},
		{"duplicates keep first sighting", ps("a", "b", "c"), ps("c", "a", "d"), []string{"a", "b", "c", "d"}},
		{"duplicate inside one channel", ps("a", "a"), ps("a"), []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.semantic, tt.lexical)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestMerge_keepsSemanticCopyOfSharedPassage(t *testing.T) {
	sem := []models.Passage{{ID: "a", Relevance: 0.9}}
	lex := []models.Passage{{ID: "a", Relevance: 7.2}}
	got := Merge(sem, lex)
	assert.Len(t, got, 1)
	assert.Equal(t, 0.9, got[0].Relevance)
}
