// Package keyword provides the lexical (BM25-style) clause index behind the keyword retrieval channel.
package keyword

import (
	"context"

	"github.com/hyperjump/clausegate/internal/models"
)

// KeywordIndex defines keyword search operations over clause chunks.
type KeywordIndex interface {
	Index(ctx context.Context, chunk *models.DocumentChunk) error
	IndexBatch(ctx context.Context, chunks []*models.DocumentChunk) error
	Search(ctx context.Context, query string, limit int) ([]*KeywordResult, error)
	Delete(ctx context.Context, ids []string) error
	// DocCount returns the total number of chunks in the index.
	DocCount() (uint64, error)
	Close() error
}

// KeywordResult is a single keyword search hit. ID is the chunk ID.
type KeywordResult struct {
	ID    string
	Score float64
}
