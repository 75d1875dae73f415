package model

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EmbeddingDimension is the dimension of the embedding vector.
// OpenAI text-embedding-3-small and Gemini embeddings are requested
// at 1536 dimensions.
const EmbeddingDimension = 1536

// MaxFactLength is the upper bound the extraction contract places on
// fact content. It is a quality contract, not a storage constraint.
const MaxFactLength = 180

// MemoryFactID is a UUID-based identifier for MemoryFact
type MemoryFactID string

// NewMemoryFactID generates a new UUID v4 MemoryFactID
func NewMemoryFactID() MemoryFactID {
	return MemoryFactID(uuid.New().String())
}

// MemoryFact is a short, durable, explicitly user-stated piece of
// information persisted per (workspace, user) for personalizing future
// assistant responses. Facts are only created through an approved
// save_memory_fact tool call or an explicit API call, never silently.
type MemoryFact struct {
	ID              MemoryFactID
	WorkspaceID     string
	UserID          string
	Content         string
	SourceMessageID string    // Optional reference to the chat message the fact came from
	EntryID         string    // Optional externally-assigned id from a secondary index
	Embedding       []float32 // EmbeddingDimension floats; empty until backfilled
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasEmbedding reports whether the fact has been embedded
func (f *MemoryFact) HasEmbedding() bool {
	return len(f.Embedding) > 0
}

// NormalizeFactContent folds case and collapses whitespace for
// exact-duplicate comparison.
func NormalizeFactContent(content string) string {
	return strings.ToLower(strings.Join(strings.Fields(content), " "))
}

// CosineSimilarity returns the cosine of the angle between two vectors,
// or 0 when dimensions mismatch or either vector is zero.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}

	return dot / denom
}
