package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/docufy-dev/docufy/pkg/domain/model"
)

type chunkRepository struct {
	mu     sync.RWMutex
	chunks map[string]map[model.ChunkID]*model.Chunk // workspaceID -> chunkID -> chunk
}

func newChunkRepository() *chunkRepository {
	return &chunkRepository{
		chunks: make(map[string]map[model.ChunkID]*model.Chunk),
	}
}

func copyChunk(c *model.Chunk) *model.Chunk {
	copied := &model.Chunk{
		ID:          c.ID,
		WorkspaceID: c.WorkspaceID,
		PageID:      c.PageID,
		BlockID:     c.BlockID,
		Text:        c.Text,
		ContentHash: c.ContentHash,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	if c.Embedding != nil {
		copied.Embedding = make([]float32, len(c.Embedding))
		copy(copied.Embedding, c.Embedding)
	}
	return copied
}

func (r *chunkRepository) ensureWorkspace(workspaceID string) {
	if _, exists := r.chunks[workspaceID]; !exists {
		r.chunks[workspaceID] = make(map[model.ChunkID]*model.Chunk)
	}
}

func (r *chunkRepository) ListByPage(ctx context.Context, workspaceID string, pageID model.PageID) ([]*model.Chunk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Chunk, 0)
	for _, c := range r.chunks[workspaceID] {
		if c.PageID == pageID {
			result = append(result, copyChunk(c))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result, nil
}

func (r *chunkRepository) ReplacePage(ctx context.Context, workspaceID string, pageID model.PageID, chunks []*model.Chunk) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ensureWorkspace(workspaceID)

	for id, c := range r.chunks[workspaceID] {
		if c.PageID == pageID {
			delete(r.chunks[workspaceID], id)
		}
	}

	now := time.Now().UTC()
	for _, c := range chunks {
		stored := copyChunk(c)
		if stored.ID == "" {
			stored.ID = model.NewChunkID()
		}
		stored.WorkspaceID = workspaceID
		stored.PageID = pageID
		if stored.CreatedAt.IsZero() {
			stored.CreatedAt = now
		}
		stored.UpdatedAt = now
		r.chunks[workspaceID][stored.ID] = stored
	}

	return nil
}

func (r *chunkRepository) FindByEmbedding(ctx context.Context, workspaceID string, embedding []float32, limit int) ([]*model.Chunk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type scored struct {
		chunk *model.Chunk
		score float64
	}

	var candidates []scored
	for _, c := range r.chunks[workspaceID] {
		if len(c.Embedding) == 0 {
			continue
		}
		s := model.CosineSimilarity(embedding, c.Embedding)
		candidates = append(candidates, scored{chunk: copyChunk(c), score: s})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if limit > len(candidates) {
		limit = len(candidates)
	}

	result := make([]*model.Chunk, limit)
	for i := 0; i < limit; i++ {
		result[i] = candidates[i].chunk
	}

	return result, nil
}

func (r *chunkRepository) UpdateEmbedding(ctx context.Context, workspaceID string, chunkID model.ChunkID, embedding []float32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	bucket, exists := r.chunks[workspaceID]
	if !exists {
		return goerr.Wrap(ErrNotFound, "chunk not found", goerr.V("chunkID", chunkID))
	}

	chunk, exists := bucket[chunkID]
	if !exists {
		return goerr.Wrap(ErrNotFound, "chunk not found", goerr.V("chunkID", chunkID))
	}

	chunk.Embedding = make([]float32, len(embedding))
	copy(chunk.Embedding, embedding)
	chunk.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *chunkRepository) ListMissingEmbedding(ctx context.Context, workspaceID string, limit int) ([]*model.Chunk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Chunk, 0)
	for _, c := range r.chunks[workspaceID] {
		if len(c.Embedding) == 0 {
			result = append(result, copyChunk(c))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}

	return result, nil
}
