package server

import (
	"context"
	"fmt"

	"github.com/hyperjump/clausegate/internal/config"
	"github.com/hyperjump/clausegate/internal/storage"
)

// Status summarizes the indexed corpus.
type Status struct {
	Documents        int64        `json:"documents"`
	Clauses          int64        `json:"clauses"`
	VectorIndexSize  int          `json:"vector_index_size"`
	KeywordIndexSize uint64       `json:"keyword_index_size"`
	DiskUsageBytes   int64        `json:"disk_usage_bytes"`
	Config           StatusConfig `json:"config"`
}

// StatusConfig is the subset of configuration shown by status.
type StatusConfig struct {
	EmbeddingProvider   string   `json:"embedding_provider"`
	EmbeddingDimensions int      `json:"embedding_dimensions"`
	ChunkSize           int      `json:"chunk_size"`
	ChunkOverlap        int      `json:"chunk_overlap"`
	TopK                int      `json:"top_k"`
	ChannelPolicy       string   `json:"channel_policy"`
	LLMProvider         string   `json:"llm_provider"`
	LLMModel            string   `json:"llm_model"`
	Faithfulness        string   `json:"faithfulness_strategy"`
	CorpusDirectories   []string `json:"corpus_directories"`
	AuditLogPath        string   `json:"audit_log_path"`
}

type vectorSizer interface{ Size() int }

type keywordCounter interface{ DocCount() (uint64, error) }

// CollectStatus builds a Status from the store, both indices and the configuration.
func CollectStatus(ctx context.Context, store storage.Storage, vectors vectorSizer, keywords keywordCounter, cfg *config.Config) (*Status, error) {
	docs, err := store.CountDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	clauses, err := store.CountChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("count clauses: %w", err)
	}
	kw, err := keywords.DocCount()
	if err != nil {
		return nil, fmt.Errorf("count keyword index: %w", err)
	}
	disk, err := storage.DiskUsageBytes(
		cfg.Storage.DatabasePath,
		cfg.Storage.BleveIndexPath,
		cfg.Storage.VectorIndexPath,
		cfg.Storage.AuditLogPath,
	)
	if err != nil {
		return nil, fmt.Errorf("disk usage: %w", err)
	}
	return &Status{
		Documents:        docs,
		Clauses:          clauses,
		VectorIndexSize:  vectors.Size(),
		KeywordIndexSize: kw,
		DiskUsageBytes:   disk,
		Config: StatusConfig{
			EmbeddingProvider:   cfg.Embedding.Provider,
			EmbeddingDimensions: cfg.Embedding.Dimensions,
			ChunkSize:           cfg.Corpus.ChunkSize,
			ChunkOverlap:        cfg.Corpus.ChunkOverlap,
			TopK:                cfg.Retrieval.TopK,
			ChannelPolicy:       cfg.Retrieval.ChannelPolicy,
			LLMProvider:         cfg.LLM.Provider,
			LLMModel:            cfg.LLM.Model,
			Faithfulness:        cfg.Faithfulness.Strategy,
			CorpusDirectories:   cfg.Corpus.Directories,
			AuditLogPath:        cfg.Storage.AuditLogPath,
		},
	}, nil
}
