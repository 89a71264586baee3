// Package retrieval runs the semantic and lexical channels and merges their passages.
package retrieval

import (
	"context"
	"errors"

	"github.com/hyperjump/clausegate/internal/models"
)

// ErrChannelUnavailable reports that a channel has no backend or an empty index.
// It is a degraded condition, not a failure.
var ErrChannelUnavailable = errors.New("retrieval channel unavailable")

// Channel is one retrieval strategy returning up to topK rank-ordered passages.
type Channel interface {
	Name() string
	Retrieve(ctx context.Context, query string, topK int) ([]models.Passage, error)
}

// chunkStore is the subset of storage.Storage the channels use to hydrate hits.
type chunkStore interface {
	GetChunks(ctx context.Context, ids []string) (map[string]*models.DocumentChunk, error)
}

// hydrate turns ranked (id, score) hits into passages, keeping hit order and skipping
// hits whose chunk is gone from the store.
func hydrate(ctx context.Context, store chunkStore, ids []string, scores []float64) ([]models.Passage, error) {
	chunks, err := store.GetChunks(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]models.Passage, 0, len(ids))
	for i, id := range ids {
		c, ok := chunks[id]
		if !ok {
			continue
		}
		meta := make(map[string]interface{}, len(c.Metadata)+1)
		for k, v := range c.Metadata {
			meta[k] = v
		}
		if _, ok := meta[models.MetaDocumentID]; !ok {
			meta[models.MetaDocumentID] = c.DocumentID
		}
		out = append(out, models.Passage{ID: id, Text: c.Content, Relevance: scores[i], Metadata: meta})
	}
	return out, nil
}
