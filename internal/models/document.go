package models

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/segmentio/ksuid"
	"gorm.io/gorm"
)

// EmbeddingDim is the dimensionality of stored chunk vectors. Every
// Embedder implementation must produce vectors of this size so query
// vectors stay comparable with what is already indexed.
const EmbeddingDim = 1536

// Document is one ingested source file. Identity is the SHA-256 hash of
// the extracted text, not the filename: re-uploading byte-identical
// content resolves to the same row.
//
// KSUIDs are used for primary keys: time-ordered, 27 chars, sequential
// index inserts.
type Document struct {
	ID          string    `json:"id" gorm:"type:char(27);primaryKey"`
	ContentHash string    `json:"content_hash" gorm:"type:char(64);not null;uniqueIndex"`
	SourceName  string    `json:"source_name" gorm:"type:text;not null"`
	ChunkCount  int       `json:"chunk_count" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

// BeforeCreate hook generates a KSUID before inserting.
func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = ksuid.New().String()
	}
	return nil
}

// Chunk is one bounded-size passage of a Document together with its
// embedding vector. Chunks are immutable once written; Ordinal preserves
// original text order, retrieval order is by relevance.
type Chunk struct {
	ID         string          `json:"id" gorm:"type:char(27);primaryKey"`
	DocumentID string          `json:"document_id" gorm:"type:char(27);not null;index"`
	Ordinal    int             `json:"ordinal" gorm:"not null"`
	Text       string          `json:"text" gorm:"type:text;not null"`
	Embedding  pgvector.Vector `json:"embedding" gorm:"type:vector(1536);not null"`
	CreatedAt  time.Time       `json:"created_at" gorm:"column:created_at;autoCreateTime"`

	Document Document `json:"document,omitempty" gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate hook generates a KSUID before inserting.
func (c *Chunk) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = ksuid.New().String()
	}
	return nil
}

// ScoredChunk is one retrieval hit: chunk text plus its similarity score.
type ScoredChunk struct {
	Text    string  `json:"text"`
	Ordinal int     `json:"ordinal"`
	Score   float32 `json:"score"`
}

// SearchResult holds retrieval hits ordered by decreasing similarity.
// Ties are broken by ordinal, earlier chunk first, so result order is
// deterministic.
type SearchResult struct {
	Chunks []ScoredChunk `json:"chunks"`
}
