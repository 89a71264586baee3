package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/clausegate/internal/config"
	"github.com/hyperjump/clausegate/internal/embedding"
	"github.com/hyperjump/clausegate/internal/extract"
	"github.com/hyperjump/clausegate/internal/keyword"
	"github.com/hyperjump/clausegate/internal/models"
	"github.com/hyperjump/clausegate/internal/storage"
	"github.com/hyperjump/clausegate/internal/vector"
)

// ErrExtract marks a file whose text could not be read. IndexDirectory logs and counts
// such files instead of stopping.
var ErrExtract = errors.New("extract content")

// Indexer writes clause chunks to the chunk store, the vector index and the keyword index.
// A chunk has the same ID in all three so both retrieval channels agree on passage identity.
type Indexer struct {
	storage      storage.Storage
	embedder     embedding.Embedder
	vectorIndex  vector.VectorIndex
	keywordIndex keyword.KeywordIndex
	chunker      *Chunker
	extractor    *extract.Extractor
	logger       *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) {
		if l != nil {
			idx.logger = l
		}
	}
}

// WithExtractor overrides the file reader. The default handles every built-in format.
func WithExtractor(e *extract.Extractor) IndexerOption {
	return func(idx *Indexer) { idx.extractor = e }
}

// NewIndexer creates an indexer with the given dependencies.
func NewIndexer(
	storage storage.Storage,
	embedder embedding.Embedder,
	vectorIndex vector.VectorIndex,
	keywordIndex keyword.KeywordIndex,
	cfg config.CorpusConfig,
	opts ...IndexerOption,
) *Indexer {
	idx := &Indexer{
		storage:      storage,
		embedder:     embedder,
		vectorIndex:  vectorIndex,
		keywordIndex: keywordIndex,
		chunker:      NewChunker(cfg.ChunkSize, cfg.ChunkOverlap),
		extractor:    extract.NewExtractor(),
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// IndexDocument stores a document, chunks it into clauses, embeds the clauses and
// indexes them in both channels. input.ID is required. The clause slug comes from
// input.Title.
func (idx *Indexer) IndexDocument(ctx context.Context, input *models.DocumentInput) (int, error) {
	if input.ID == "" {
		return 0, fmt.Errorf("document ID is required")
	}
	doc := &models.Document{
		ID:       input.ID,
		Title:    input.Title,
		Content:  Preprocess(input.Content),
		Metadata: input.Metadata,
	}
	if doc.Content == "" {
		return 0, fmt.Errorf("document %s has no text", doc.ID)
	}
	if err := idx.storage.CreateDocument(ctx, doc); err != nil {
		return 0, fmt.Errorf("failed to store document: %w", err)
	}
	chunks := idx.chunker.Chunk(doc.ID, Slug(doc.Title), doc.Title, doc.Content)

	texts := make([]string, len(chunks))
	ids := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Content
		ids[i] = ch.ID
	}
	embeddings, err := idx.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
	}
	if err := idx.storage.BatchCreateChunks(ctx, chunks); err != nil {
		return 0, fmt.Errorf("failed to store chunks: %w", err)
	}
	if err := idx.vectorIndex.Add(ctx, ids, embeddings); err != nil {
		return 0, fmt.Errorf("failed to index vectors: %w", err)
	}
	if err := idx.keywordIndex.IndexBatch(ctx, chunks); err != nil {
		return 0, fmt.Errorf("failed to index keywords: %w", err)
	}
	return len(chunks), nil
}

const (
	metaKeySourcePath  = "source_path"
	metaKeySourceMtime = "source_mtime"
	metaKeySourceSize  = "source_size"
)

// IndexFile reads a regulation file and indexes it. The document ID is derived from the
// absolute path so re-indexing replaces the same document. The file's extension must be
// in allowedExts when that list is non-empty. A file already indexed with the same mtime
// and size is skipped and reported as not indexed.
func (idx *Indexer) IndexFile(ctx context.Context, path string, allowedExts []string) (bool, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("absolute path: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(absPath))
	if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
		return false, fmt.Errorf("extension %q not in allowed list", ext)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return false, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return false, fmt.Errorf("not a regular file: %s", absPath)
	}
	docID := FileDocID(absPath)
	if idx.unchanged(ctx, absPath, docID, info) {
		idx.logger.Debug("indexer skipping unchanged file", zap.String("path", absPath))
		return false, nil
	}
	text, err := idx.extractor.Extract(absPath)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrExtract, err)
	}
	if Preprocess(text) == "" {
		return false, fmt.Errorf("%w: %s has no text", ErrExtract, absPath)
	}
	if err := idx.DeleteDocument(ctx, docID); err != nil {
		return false, err
	}
	n, err := idx.IndexDocument(ctx, &models.DocumentInput{
		ID:      docID,
		Title:   filepath.Base(absPath),
		Content: text,
		Metadata: map[string]interface{}{
			metaKeySourcePath: absPath,
			// strings: UnixNano exceeds float64 precision after a JSON round trip
			metaKeySourceMtime: strconv.FormatInt(info.ModTime().UnixNano(), 10),
			metaKeySourceSize:  strconv.FormatInt(info.Size(), 10),
		},
	})
	if err != nil {
		return false, err
	}
	idx.logger.Debug("indexer file indexed",
		zap.String("path", absPath),
		zap.String("doc_id", docID),
		zap.Int("clauses", n))
	return true, nil
}

// unchanged reports whether docID is stored for absPath with the file's current mtime and size.
func (idx *Indexer) unchanged(ctx context.Context, absPath, docID string, info os.FileInfo) bool {
	doc, err := idx.storage.GetDocument(ctx, docID)
	if err != nil || doc.Metadata == nil {
		return false
	}
	if doc.Metadata[metaKeySourcePath] != absPath {
		return false
	}
	return metadataInt64(doc.Metadata, metaKeySourceMtime) == info.ModTime().UnixNano() &&
		metadataInt64(doc.Metadata, metaKeySourceSize) == info.Size()
}

func metadataInt64(m map[string]interface{}, key string) int64 {
	switch n := m[key].(type) {
	case string:
		x, _ := strconv.ParseInt(n, 10, 64)
		return x
	case float64:
		return int64(n)
	default:
		return 0
	}
}

// Stats summarizes one IndexDirectory run.
type Stats struct {
	Indexed int `json:"indexed"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// IndexDirectory walks dir recursively and indexes each regular file whose extension is
// in allowedExts, or that the extractor supports when allowedExts is empty. A file that
// fails to extract is logged and counted; walk and storage errors stop the run.
func (idx *Indexer) IndexDirectory(ctx context.Context, dir string, allowedExts []string) (Stats, error) {
	var stats Stats
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return stats, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return stats, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return stats, fmt.Errorf("not a directory: %s", absDir)
	}
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != absDir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if len(allowedExts) > 0 {
			if !extensionAllowed(ext, allowedExts) {
				return nil
			}
		} else if !idx.extractor.Supported(ext) {
			return nil
		}
		// resolve symlinks so only regular files are indexed
		if finfo, statErr := os.Stat(path); statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}
		indexed, err := idx.IndexFile(ctx, path, allowedExts)
		switch {
		case errors.Is(err, ErrExtract):
			idx.logger.Warn("indexer could not read file", zap.String("path", path), zap.Error(err))
			stats.Failed++
		case err != nil:
			return err
		case indexed:
			stats.Indexed++
		default:
			stats.Skipped++
		}
		return nil
	})
	return stats, err
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}

// DeleteDocument removes a document's clauses from both indices and the store.
// Deleting an unknown document is not an error.
func (idx *Indexer) DeleteDocument(ctx context.Context, id string) error {
	chunks, err := idx.storage.GetChunksByDocumentID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get chunks: %w", err)
	}
	chunkIDs := make([]string, len(chunks))
	for i, ch := range chunks {
		chunkIDs[i] = ch.ID
	}
	if len(chunkIDs) > 0 {
		if err := idx.keywordIndex.Delete(ctx, chunkIDs); err != nil {
			return fmt.Errorf("failed to delete from keyword index: %w", err)
		}
		if err := idx.vectorIndex.Remove(ctx, chunkIDs); err != nil {
			return fmt.Errorf("failed to delete from vector index: %w", err)
		}
	}
	if err := idx.storage.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	idx.logger.Debug("indexer document deleted", zap.String("id", id), zap.Int("clauses", len(chunkIDs)))
	return nil
}

// DeleteFile removes the document indexed from path, if any.
func (idx *Indexer) DeleteFile(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	return idx.DeleteDocument(ctx, FileDocID(absPath))
}

// Rebuild repopulates the vector and keyword indices from the chunk store. The server
// uses it when an index file is missing but SQLite still holds the corpus.
func (idx *Indexer) Rebuild(ctx context.Context) (int, error) {
	const page = 100
	total := 0
	for offset := 0; ; offset += page {
		docs, err := idx.storage.ListDocuments(ctx, offset, page)
		if err != nil {
			return total, fmt.Errorf("list documents: %w", err)
		}
		for _, doc := range docs {
			chunks, err := idx.storage.GetChunksByDocumentID(ctx, doc.ID)
			if err != nil {
				return total, fmt.Errorf("get chunks for %s: %w", doc.ID, err)
			}
			if len(chunks) == 0 {
				continue
			}
			ids := make([]string, len(chunks))
			texts := make([]string, len(chunks))
			for i, ch := range chunks {
				ids[i] = ch.ID
				texts[i] = ch.Content
			}
			vecs, err := idx.embedder.EmbedBatch(ctx, texts)
			if err != nil {
				return total, fmt.Errorf("embed %s: %w", doc.ID, err)
			}
			if err := idx.vectorIndex.Add(ctx, ids, vecs); err != nil {
				return total, fmt.Errorf("index vectors for %s: %w", doc.ID, err)
			}
			if err := idx.keywordIndex.IndexBatch(ctx, chunks); err != nil {
				return total, fmt.Errorf("index keywords for %s: %w", doc.ID, err)
			}
			total += len(chunks)
		}
		if len(docs) < page {
			return total, nil
		}
	}
}
