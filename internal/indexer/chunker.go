// Package indexer turns regulation files into clause chunks and writes them to the
// chunk store and both retrieval indices.
package indexer

import (
	"fmt"
	"strings"

	"github.com/hyperjump/clausegate/internal/models"
)

// Chunker splits text into overlapping word windows. Each window is one clause.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker creates a chunker with the given size and overlap (in words).
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// Chunk splits text into clause chunks for docID. Chunk IDs and clause IDs are derived
// from the position in the document, so re-indexing unchanged text yields the same IDs.
func (c *Chunker) Chunk(docID, slug, source, text string) []*models.DocumentChunk {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var chunks []*models.DocumentChunk
	step := c.chunkSize - c.chunkOverlap
	if step <= 0 {
		step = 1
	}
	for i, n := 0, 0; i < len(words); i, n = i+step, n+1 {
		end := i + c.chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, &models.DocumentChunk{
			ID:         fmt.Sprintf("%s_c%d", docID, n),
			DocumentID: docID,
			Content:    strings.Join(words[i:end], " "),
			ChunkIndex: n,
			Metadata: map[string]interface{}{
				models.MetaClauseID:   ClauseID(slug, n),
				models.MetaSource:     source,
				models.MetaDocumentID: docID,
			},
		})
		if end >= len(words) {
			break
		}
	}
	return chunks
}

// ClauseID is the human-readable clause reference shown in prompts and responses.
func ClauseID(slug string, n int) string {
	return fmt.Sprintf("%s#clause_%d", slug, n)
}
