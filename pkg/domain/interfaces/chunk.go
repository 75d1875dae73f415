package interfaces

import (
	"context"

	"github.com/docufy-dev/docufy/pkg/domain/model"
)

// ChunkRepository defines the interface for page chunk persistence
type ChunkRepository interface {
	// ListByPage retrieves all chunks of a page
	ListByPage(ctx context.Context, workspaceID string, pageID model.PageID) ([]*model.Chunk, error)

	// ReplacePage replaces the chunk set of a page atomically enough
	// for a single-writer model: delete existing, save the new set.
	ReplacePage(ctx context.Context, workspaceID string, pageID model.PageID, chunks []*model.Chunk) error

	// FindByEmbedding performs vector similarity search over a
	// workspace's chunks using cosine distance.
	FindByEmbedding(ctx context.Context, workspaceID string, embedding []float32, limit int) ([]*model.Chunk, error)

	// UpdateEmbedding sets the embedding of an existing chunk
	UpdateEmbedding(ctx context.Context, workspaceID string, chunkID model.ChunkID, embedding []float32) error

	// ListMissingEmbedding returns chunks persisted without an embedding
	ListMissingEmbedding(ctx context.Context, workspaceID string, limit int) ([]*model.Chunk, error)
}
