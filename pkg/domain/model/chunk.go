package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// ChunkID is a UUID-based identifier for Chunk
type ChunkID string

// NewChunkID generates a new UUID v4 ChunkID
func NewChunkID() ChunkID {
	return ChunkID(uuid.New().String())
}

// Chunk is a unit of page text plus its embedding, used for page
// content search independent of the memory system. One chunk maps to
// one top-level block of a page.
type Chunk struct {
	ID          ChunkID
	WorkspaceID string
	PageID      PageID
	BlockID     string
	Text        string
	ContentHash string    // sha256 of Text; gates re-embedding of unchanged content
	Embedding   []float32 // EmbeddingDimension floats; empty until backfilled
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasEmbedding reports whether the chunk has been embedded
func (c *Chunk) HasEmbedding() bool {
	return len(c.Embedding) > 0
}

// ContentHash computes the hash used to detect unchanged chunk text
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
