package interfaces

import (
	"context"

	"github.com/docufy-dev/docufy/pkg/domain/model"
)

// MemoryFactRepository defines the interface for MemoryFact persistence.
// All operations are scoped to a (workspace, user) pair; facts are never
// visible across users.
type MemoryFactRepository interface {
	// Create persists a new memory fact
	Create(ctx context.Context, workspaceID, userID string, fact *model.MemoryFact) (*model.MemoryFact, error)

	// Get retrieves a memory fact by ID
	Get(ctx context.Context, workspaceID, userID string, factID model.MemoryFactID) (*model.MemoryFact, error)

	// Delete deletes a memory fact by ID
	Delete(ctx context.Context, workspaceID, userID string, factID model.MemoryFactID) error

	// List retrieves memory facts ordered by creation time descending.
	// limit <= 0 means no limit.
	List(ctx context.Context, workspaceID, userID string, limit int) ([]*model.MemoryFact, error)

	// FindByEmbedding performs vector similarity search using cosine
	// distance, returning up to limit facts most similar to the given
	// embedding. Facts without an embedding are not returned.
	FindByEmbedding(ctx context.Context, workspaceID, userID string, embedding []float32, limit int) ([]*model.MemoryFact, error)

	// UpdateEmbedding sets the embedding of an existing fact. Used by
	// the lazy backfill worker for facts persisted during an embedding
	// provider outage.
	UpdateEmbedding(ctx context.Context, workspaceID, userID string, factID model.MemoryFactID, embedding []float32) error

	// ListMissingEmbedding returns facts persisted without an embedding
	// across all users of the workspace, oldest first. Used by the lazy
	// backfill worker; returned facts carry their owning UserID.
	ListMissingEmbedding(ctx context.Context, workspaceID string, limit int) ([]*model.MemoryFact, error)
}
