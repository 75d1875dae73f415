package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/docufy-dev/docufy/pkg/domain/model"
)

// factKey is a composite key for memory facts (workspaceID + userID)
type factKey struct {
	workspaceID string
	userID      string
}

type memoryFactRepository struct {
	mu      sync.RWMutex
	entries map[factKey]map[model.MemoryFactID]*model.MemoryFact
}

func newMemoryFactRepository() *memoryFactRepository {
	return &memoryFactRepository{
		entries: make(map[factKey]map[model.MemoryFactID]*model.MemoryFact),
	}
}

func (r *memoryFactRepository) ensureKey(key factKey) {
	if _, exists := r.entries[key]; !exists {
		r.entries[key] = make(map[model.MemoryFactID]*model.MemoryFact)
	}
}

func copyFact(f *model.MemoryFact) *model.MemoryFact {
	copied := &model.MemoryFact{
		ID:              f.ID,
		WorkspaceID:     f.WorkspaceID,
		UserID:          f.UserID,
		Content:         f.Content,
		SourceMessageID: f.SourceMessageID,
		EntryID:         f.EntryID,
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.UpdatedAt,
	}
	if f.Embedding != nil {
		copied.Embedding = make([]float32, len(f.Embedding))
		copy(copied.Embedding, f.Embedding)
	}
	return copied
}

func (r *memoryFactRepository) Create(ctx context.Context, workspaceID, userID string, fact *model.MemoryFact) (*model.MemoryFact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := factKey{workspaceID: workspaceID, userID: userID}
	r.ensureKey(key)

	created := copyFact(fact)
	if created.ID == "" {
		created.ID = model.NewMemoryFactID()
	}
	created.WorkspaceID = workspaceID
	created.UserID = userID
	now := time.Now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now

	r.entries[key][created.ID] = created
	return copyFact(created), nil
}

func (r *memoryFactRepository) Get(ctx context.Context, workspaceID, userID string, factID model.MemoryFactID) (*model.MemoryFact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := factKey{workspaceID: workspaceID, userID: userID}
	bucket, exists := r.entries[key]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "memory fact not found", goerr.V("factID", factID))
	}

	fact, exists := bucket[factID]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "memory fact not found", goerr.V("factID", factID))
	}

	return copyFact(fact), nil
}

func (r *memoryFactRepository) Delete(ctx context.Context, workspaceID, userID string, factID model.MemoryFactID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := factKey{workspaceID: workspaceID, userID: userID}
	bucket, exists := r.entries[key]
	if !exists {
		return goerr.Wrap(ErrNotFound, "memory fact not found", goerr.V("factID", factID))
	}

	if _, exists := bucket[factID]; !exists {
		return goerr.Wrap(ErrNotFound, "memory fact not found", goerr.V("factID", factID))
	}

	delete(bucket, factID)
	return nil
}

func (r *memoryFactRepository) List(ctx context.Context, workspaceID, userID string, limit int) ([]*model.MemoryFact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := factKey{workspaceID: workspaceID, userID: userID}
	bucket, exists := r.entries[key]
	if !exists {
		return []*model.MemoryFact{}, nil
	}

	result := make([]*model.MemoryFact, 0, len(bucket))
	for _, f := range bucket {
		result = append(result, copyFact(f))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}

	return result, nil
}

func (r *memoryFactRepository) FindByEmbedding(ctx context.Context, workspaceID, userID string, embedding []float32, limit int) ([]*model.MemoryFact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := factKey{workspaceID: workspaceID, userID: userID}
	bucket, exists := r.entries[key]
	if !exists {
		return []*model.MemoryFact{}, nil
	}

	type scored struct {
		fact  *model.MemoryFact
		score float64
	}

	var candidates []scored
	for _, f := range bucket {
		if len(f.Embedding) == 0 {
			continue
		}
		s := model.CosineSimilarity(embedding, f.Embedding)
		candidates = append(candidates, scored{fact: copyFact(f), score: s})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if limit > len(candidates) {
		limit = len(candidates)
	}

	result := make([]*model.MemoryFact, limit)
	for i := 0; i < limit; i++ {
		result[i] = candidates[i].fact
	}

	return result, nil
}

func (r *memoryFactRepository) UpdateEmbedding(ctx context.Context, workspaceID, userID string, factID model.MemoryFactID, embedding []float32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := factKey{workspaceID: workspaceID, userID: userID}
	bucket, exists := r.entries[key]
	if !exists {
		return goerr.Wrap(ErrNotFound, "memory fact not found", goerr.V("factID", factID))
	}

	fact, exists := bucket[factID]
	if !exists {
		return goerr.Wrap(ErrNotFound, "memory fact not found", goerr.V("factID", factID))
	}

	fact.Embedding = make([]float32, len(embedding))
	copy(fact.Embedding, embedding)
	fact.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *memoryFactRepository) ListMissingEmbedding(ctx context.Context, workspaceID string, limit int) ([]*model.MemoryFact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.MemoryFact, 0)
	for key, bucket := range r.entries {
		if key.workspaceID != workspaceID {
			continue
		}
		for _, f := range bucket {
			if len(f.Embedding) == 0 {
				result = append(result, copyFact(f))
			}
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
