package retrieval

import (
	"context"
	"fmt"

	"github.com/hyperjump/clausegate/internal/embedding"
	"github.com/hyperjump/clausegate/internal/models"
	"github.com/hyperjump/clausegate/internal/vector"
	"github.com/hyperjump/clausegate/pkg/utils"
)

// SemanticChannel ranks chunks by embedding similarity to the query.
type SemanticChannel struct {
	embedder embedding.Embedder
	index    vector.VectorIndex
	store    chunkStore
}

// NewSemanticChannel returns a semantic channel. Any nil dependency makes it unavailable.
func NewSemanticChannel(embedder embedding.Embedder, index vector.VectorIndex, store chunkStore) *SemanticChannel {
	return &SemanticChannel{embedder: embedder, index: index, store: store}
}

// Name returns "semantic".
func (c *SemanticChannel) Name() string { return "semantic" }

// Retrieve embeds the query and returns the topK nearest chunks, relevance being the inner product bounded to [0, 1].
func (c *SemanticChannel) Retrieve(ctx context.Context, query string, topK int) ([]models.Passage, error) {
	if c == nil || c.embedder == nil || c.index == nil || c.store == nil || c.index.Size() == 0 {
		return nil, ErrChannelUnavailable
	}
	qv, err := c.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	hits, err := c.index.Search(ctx, qv, topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	ids := make([]string, len(hits))
	scores := make([]float64, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
		scores[i] = utils.Clamp01(h.Score)
	}
	passages, err := hydrate(ctx, c.store, ids, scores)
	if err != nil {
		return nil, fmt.Errorf("hydrate semantic hits: %w", err)
	}
	return passages, nil
}
