package retrieval

import (
	"context"
	"fmt"

	"github.com/hyperjump/clausegate/internal/keyword"
	"github.com/hyperjump/clausegate/internal/models"
)

// LexicalChannel ranks chunks by keyword match score.
type LexicalChannel struct {
	index keyword.KeywordIndex
	store chunkStore
}

// NewLexicalChannel returns a lexical channel. Any nil dependency makes it unavailable.
func NewLexicalChannel(index keyword.KeywordIndex, store chunkStore) *LexicalChannel {
	return &LexicalChannel{index: index, store: store}
}

// Name returns "lexical".
func (c *LexicalChannel) Name() string { return "lexical" }

// Retrieve returns the topK keyword hits, relevance being the raw Bleve score.
func (c *LexicalChannel) Retrieve(ctx context.Context, query string, topK int) ([]models.Passage, error) {
	if c == nil || c.index == nil || c.store == nil {
		return nil, ErrChannelUnavailable
	}
	n, err := c.index.DocCount()
	if err != nil {
		return nil, fmt.Errorf("keyword doc count: %w", err)
	}
	if n == 0 {
		return nil, ErrChannelUnavailable
	}
	hits, err := c.index.Search(ctx, query, topK)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	ids := make([]string, len(hits))
	scores := make([]float64, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
		scores[i] = h.Score
	}
	passages, err := hydrate(ctx, c.store, ids, scores)
	if err != nil {
		return nil, fmt.Errorf("hydrate keyword hits: %w", err)
	}
	return passages, nil
}
