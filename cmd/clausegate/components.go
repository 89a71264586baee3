package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/clausegate/internal/audit"
	"github.com/hyperjump/clausegate/internal/confidence"
	"github.com/hyperjump/clausegate/internal/config"
	"github.com/hyperjump/clausegate/internal/embedding"
	"github.com/hyperjump/clausegate/internal/faithfulness"
	"github.com/hyperjump/clausegate/internal/generation"
	"github.com/hyperjump/clausegate/internal/indexer"
	"github.com/hyperjump/clausegate/internal/keyword"
	"github.com/hyperjump/clausegate/internal/llm"
	"github.com/hyperjump/clausegate/internal/pipeline"
	"github.com/hyperjump/clausegate/internal/retrieval"
	"github.com/hyperjump/clausegate/internal/server"
	"github.com/hyperjump/clausegate/internal/storage"
	"github.com/hyperjump/clausegate/internal/vector"
)

// errNoCompleter is returned by every completion when no API key is configured.
var errNoCompleter = errors.New("completion service not configured")

// Components holds initialized services.
type Components struct {
	Config       *config.Config
	Storage      *storage.SQLiteStorage
	Embedder     embedding.Embedder
	VectorIndex  *vector.MemoryIndex
	KeywordIndex *keyword.BleveIndex
	Indexer      *indexer.Indexer
	Recorder     *audit.JSONLRecorder
	Pipeline     *pipeline.Pipeline
}

// Close releases every opened resource. The vector index is not saved here; callers that
// changed it call SaveVectors first.
func (c *Components) Close() {
	if c.Recorder != nil {
		_ = c.Recorder.Close()
	}
	if c.KeywordIndex != nil {
		_ = c.KeywordIndex.Close()
	}
	if c.VectorIndex != nil {
		_ = c.VectorIndex.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

// SaveVectors persists the vector index to the configured path.
func (c *Components) SaveVectors(logger *zap.Logger) {
	path := c.Config.Storage.VectorIndexPath
	if path == "" || c.VectorIndex == nil {
		return
	}
	if err := c.VectorIndex.Save(path); err != nil {
		logger.Warn("vector index save failed", zap.String("path", path), zap.Error(err))
	}
}

// Status collects the corpus and index counters served by /api/v1/status.
func (c *Components) Status(ctx context.Context) (*server.Status, error) {
	return server.CollectStatus(ctx, c.Storage, c.VectorIndex, c.KeywordIndex, c.Config)
}

// initializeComponents opens the clause store and both indices and builds the indexer.
// When withPipeline is set it also builds the completion client, the verifier and the
// decision pipeline. Without an API key the pipeline still serves retrieval; generation
// then fails with errNoCompleter.
func initializeComponents(cfg *config.Config, logger *zap.Logger, withPipeline bool) (*Components, error) {
	c := &Components{Config: cfg}
	ok := false
	defer func() {
		if !ok {
			c.Close()
		}
	}()

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.Storage = store

	embedder, err := embedding.New(cfg.Embedding, cfg.LLM, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	c.Embedder = embedder

	vectorIndex, err := vector.NewMemoryIndex(embedder.Dimensions())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector index: %w", err)
	}
	if loadErr := vectorIndex.Load(cfg.Storage.VectorIndexPath); loadErr != nil {
		logger.Warn("vector index load skipped (rebuilding from clause store)",
			zap.String("path", cfg.Storage.VectorIndexPath), zap.Error(loadErr))
	}
	c.VectorIndex = vectorIndex

	keywordIndex, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
	}
	c.KeywordIndex = keywordIndex

	c.Indexer = indexer.NewIndexer(store, embedder, vectorIndex, keywordIndex, cfg.Corpus, indexer.WithLogger(logger))

	if err := rebuildIfEmpty(context.Background(), c, logger); err != nil {
		return nil, err
	}

	if withPipeline {
		p, recorder, err := buildPipeline(cfg, c, logger)
		if err != nil {
			return nil, err
		}
		c.Pipeline = p
		c.Recorder = recorder
	}

	ok = true
	return c, nil
}

// rebuildIfEmpty repopulates the vector index when the clause store holds chunks the
// loaded index does not.
func rebuildIfEmpty(ctx context.Context, c *Components, logger *zap.Logger) error {
	if c.VectorIndex.Size() > 0 {
		return nil
	}
	chunks, err := c.Storage.CountChunks(ctx)
	if err != nil {
		return fmt.Errorf("count clauses: %w", err)
	}
	if chunks == 0 {
		return nil
	}
	n, err := c.Indexer.Rebuild(ctx)
	if err != nil {
		return fmt.Errorf("rebuild indices: %w", err)
	}
	logger.Info("indices rebuilt from clause store", zap.Int("clauses", n))
	return nil
}

func buildPipeline(cfg *config.Config, c *Components, logger *zap.Logger) (*pipeline.Pipeline, *audit.JSONLRecorder, error) {
	var completer llm.Completer
	client, err := llm.NewOpenAIClient(cfg.LLM, logger)
	if err != nil {
		logger.Warn("completion client unavailable; questions will end in ERROR", zap.Error(err))
		cause := err
		completer = llm.CompleterFunc(func(context.Context, string) (string, error) {
			return "", fmt.Errorf("%w: %v", errNoCompleter, cause)
		})
	} else {
		completer = client
	}

	verifier, err := faithfulness.New(cfg.Faithfulness.Strategy, completer, logger)
	if err != nil {
		return nil, nil, err
	}

	recorder, err := audit.NewJSONLRecorder(cfg.Storage.AuditLogPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open audit log: %w", err)
	}

	service := retrieval.NewService(
		retrieval.NewSemanticChannel(c.Embedder, c.VectorIndex, c.Storage),
		retrieval.NewLexicalChannel(c.KeywordIndex, c.Storage),
		retrieval.WithLogger(logger),
		retrieval.WithTopK(cfg.Retrieval.TopK),
		retrieval.WithChannelPolicy(cfg.Retrieval.ChannelPolicy),
	)

	opts := []pipeline.Option{pipeline.WithLogger(logger)}
	if cfg.Cache.Enabled {
		ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second
		opts = append(opts, pipeline.WithCache(pipeline.NewResponseCache(ttl)))
	}
	p := pipeline.New(
		service,
		confidence.NewScorer(logger),
		generation.NewGenerator(completer),
		verifier,
		recorder,
		opts...,
	)
	return p, recorder, nil
}
