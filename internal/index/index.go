// Package index embeds chunks, stores them keyed by document identity,
// and serves similarity search. Re-uploading byte-identical content is
// recognized and never re-embedded.
package index

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"rag-engine/internal/chunker"
	"rag-engine/internal/embedding"
	"rag-engine/internal/middleware"
	"rag-engine/internal/models"

	"github.com/pgvector/pgvector-go"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// ErrEmptyIndex indicates a search against an index with no documents.
// Callers treat this as "no context", not a hard failure.
var ErrEmptyIndex = errors.New("no documents indexed")

// AddResult reports the outcome of an ingestion. WasProcessed is true
// when the content hash was already indexed and no work was done.
type AddResult struct {
	DocumentID   string `json:"document_id"`
	ChunkCount   int    `json:"chunk_count"`
	WasProcessed bool   `json:"was_processed"`
}

// Index is the pgvector-backed vector store.
type Index struct {
	db           *gorm.DB
	embedder     embedding.Embedder
	chunkSize    int
	chunkOverlap int
	locks        keyedMutex
}

// New creates an Index over the given database handle and embedder.
// Non-positive chunk parameters fall back to the chunker defaults.
func New(db *gorm.DB, embedder embedding.Embedder, chunkSize, chunkOverlap int) *Index {
	if chunkSize <= 0 {
		chunkSize = chunker.DefaultSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = chunker.DefaultOverlap
	}
	return &Index{
		db:           db,
		embedder:     embedder,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// ContentHash computes the document identity for extracted text.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// AddDocument chunks, embeds, and persists text as a new Document, or
// returns the existing chunk count when the content hash is already
// known. Writes for the same hash are serialized: two concurrent uploads
// of identical content embed once. Document and chunks are written in
// one transaction.
func (ix *Index) AddDocument(ctx context.Context, text, sourceName string) (AddResult, error) {
	ctx, span := middleware.StartSpan(ctx, "Index.AddDocument",
		attribute.String("document.source", sourceName),
		attribute.Int("document.length", len(text)),
	)
	defer span.End()

	hash := ContentHash(text)
	unlock := ix.locks.lock(hash)
	defer unlock()

	var existing models.Document
	err := ix.db.WithContext(ctx).First(&existing, "content_hash = ?", hash).Error
	if err == nil {
		middleware.AddSpanEvent(ctx, "document_deduplicated",
			attribute.String("document.id", existing.ID))
		return AddResult{DocumentID: existing.ID, ChunkCount: existing.ChunkCount, WasProcessed: true}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		middleware.AddSpanError(ctx, err)
		return AddResult{}, fmt.Errorf("failed to look up document: %w", err)
	}

	texts := chunker.Split(text, ix.chunkSize, ix.chunkOverlap)
	if len(texts) == 0 {
		return AddResult{}, fmt.Errorf("document has no content to index")
	}

	// Embedding happens outside the transaction; the per-hash lock keeps
	// a concurrent identical upload from duplicating this work.
	vectors, err := ix.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return AddResult{}, fmt.Errorf("failed to embed chunks: %w", err)
	}

	doc := &models.Document{
		ContentHash: hash,
		SourceName:  sourceName,
		ChunkCount:  len(texts),
	}
	err = ix.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(doc).Error; err != nil {
			return err
		}
		chunks := make([]models.Chunk, len(texts))
		for i, t := range texts {
			chunks[i] = models.Chunk{
				DocumentID: doc.ID,
				Ordinal:    i,
				Text:       t,
				Embedding:  pgvector.NewVector(vectors[i]),
			}
		}
		return tx.Create(&chunks).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Another process indexed the same content first; the unique
		// index on content_hash is the cross-process backstop.
		if lookupErr := ix.db.WithContext(ctx).First(&existing, "content_hash = ?", hash).Error; lookupErr == nil {
			return AddResult{DocumentID: existing.ID, ChunkCount: existing.ChunkCount, WasProcessed: true}, nil
		}
		return AddResult{}, fmt.Errorf("failed to store document: %w", err)
	}
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return AddResult{}, fmt.Errorf("failed to store document: %w", err)
	}

	middleware.AddSpanEvent(ctx, "document_indexed",
		attribute.String("document.id", doc.ID),
		attribute.Int("document.chunks", len(texts)),
	)
	return AddResult{DocumentID: doc.ID, ChunkCount: len(texts), WasProcessed: false}, nil
}

// Search embeds the query and returns the n most similar chunks, best
// first. Ties in similarity resolve to the earlier ordinal so result
// order is deterministic. Returns ErrEmptyIndex when nothing is stored.
func (ix *Index) Search(ctx context.Context, query string, n int) (*models.SearchResult, error) {
	ctx, span := middleware.StartSpan(ctx, "Index.Search",
		attribute.Int("search.n_results", n),
	)
	defer span.End()

	if n <= 0 {
		n = 3
	}

	count, err := ix.CollectionCount(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrEmptyIndex
	}

	vectors, err := ix.embedder.EmbedBatch(ctx, []string{query})
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	vec := pgvector.NewVector(vectors[0])

	// The <=> operator is pgvector cosine distance; score flips it back
	// to a similarity in [0, 1].
	var hits []models.ScoredChunk
	err = ix.db.WithContext(ctx).Raw(`
		SELECT text, ordinal, 1 - (embedding <=> ?) AS score
		FROM chunks
		ORDER BY embedding <=> ?, ordinal ASC
		LIMIT ?
	`, vec, vec, n).Scan(&hits).Error
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, fmt.Errorf("failed to perform semantic search: %w", err)
	}

	return &models.SearchResult{Chunks: hits}, nil
}

// CollectionCount returns the number of stored chunks.
func (ix *Index) CollectionCount(ctx context.Context) (int64, error) {
	var count int64
	if err := ix.db.WithContext(ctx).Model(&models.Chunk{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return count, nil
}

// DeleteCollection removes all documents and chunks atomically.
func (ix *Index) DeleteCollection(ctx context.Context) error {
	err := ix.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.Chunk{}).Error; err != nil {
			return err
		}
		return tx.Where("1 = 1").Delete(&models.Document{}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	return nil
}
