// Package embedding turns clause text and questions into vectors for the semantic channel.
package embedding

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/clausegate/internal/config"
)

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// New builds the embedder named by cfg.Provider and wraps it in an LRU cache.
// An ONNX embedder that cannot load falls back to the hash embedder with a warning,
// so a fresh install without a model still serves keyword-backed answers.
func New(cfg config.EmbeddingConfig, llm config.LLMConfig, logger *zap.Logger) (Embedder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var inner Embedder
	switch cfg.Provider {
	case "hash":
		inner = NewHashEmbedder(cfg.Dimensions)
	case "openai":
		e, err := NewOpenAIEmbedder(OpenAIOptions{
			APIKey:     llm.APIKey(),
			BaseURL:    llm.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		})
		if err != nil {
			return nil, err
		}
		inner = e
	case "onnx", "":
		e, err := NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens)
		if err != nil {
			logger.Warn("ONNX embedder unavailable, using hash embedder", zap.Error(err))
			inner = NewHashEmbedder(cfg.Dimensions)
		} else {
			inner = e
		}
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
	return NewCachedEmbedder(inner, cfg.CacheSize), nil
}
