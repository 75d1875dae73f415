package usecase

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/docufy-dev/docufy/pkg/domain/interfaces"
	"github.com/docufy-dev/docufy/pkg/domain/model"
	"github.com/docufy-dev/docufy/pkg/service/embedding"
	"github.com/docufy-dev/docufy/pkg/utils/logging"
)

// DedupSimilarityThreshold is the cosine similarity above which a new
// fact is treated as a near-duplicate of an existing one and not
// persisted again.
const DedupSimilarityThreshold = 0.95

// MemoryUseCase manages per-(workspace, user) memory facts
type MemoryUseCase struct {
	repo     interfaces.Repository
	embedder *embedding.Service
}

// NewMemoryUseCase creates a new MemoryUseCase instance
func NewMemoryUseCase(repo interfaces.Repository, embedder *embedding.Service) *MemoryUseCase {
	return &MemoryUseCase{
		repo:     repo,
		embedder: embedder,
	}
}

// SaveFact persists a memory fact after dedup. It returns the stored
// fact and whether a new record was created; a near-duplicate returns
// the existing fact with created=false.
//
// An embedding provider failure does not block persistence: the fact is
// stored without a vector and picked up later by the backfill worker.
func (uc *MemoryUseCase) SaveFact(ctx context.Context, workspaceID, userID, content, sourceMessageID string) (*model.MemoryFact, bool, error) {
	logger := logging.From(ctx)

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, false, goerr.New("fact content is empty")
	}
	if len(content) > model.MaxFactLength {
		return nil, false, goerr.New("fact content too long",
			goerr.V("length", len(content)),
			goerr.V("max", model.MaxFactLength))
	}

	existing, err := uc.repo.MemoryFact().List(ctx, workspaceID, userID, 0)
	if err != nil {
		return nil, false, goerr.Wrap(err, "failed to list existing facts",
			goerr.V("workspaceID", workspaceID),
			goerr.V("userID", userID))
	}

	normalized := model.NormalizeFactContent(content)
	for _, f := range existing {
		if model.NormalizeFactContent(f.Content) == normalized {
			return f, false, nil
		}
	}

	vector, err := uc.embedder.Embed(ctx, content)
	if err != nil {
		logger.Warn("embedding failed, persisting fact without vector",
			"workspaceID", workspaceID,
			"userID", userID,
			"error", err.Error())
		vector = nil
	}

	if vector != nil {
		for _, f := range existing {
			if !f.HasEmbedding() {
				continue
			}
			if model.CosineSimilarity(vector, f.Embedding) >= DedupSimilarityThreshold {
				return f, false, nil
			}
		}
	}

	created, err := uc.repo.MemoryFact().Create(ctx, workspaceID, userID, &model.MemoryFact{
		Content:         content,
		SourceMessageID: sourceMessageID,
		Embedding:       vector,
	})
	if err != nil {
		return nil, false, goerr.Wrap(err, "failed to create memory fact",
			goerr.V("workspaceID", workspaceID),
			goerr.V("userID", userID))
	}

	return created, true, nil
}

// ListRecentFacts returns the user's facts ordered by creation time
// descending
func (uc *MemoryUseCase) ListRecentFacts(ctx context.Context, workspaceID, userID string, limit int) ([]*model.MemoryFact, error) {
	facts, err := uc.repo.MemoryFact().List(ctx, workspaceID, userID, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list memory facts",
			goerr.V("workspaceID", workspaceID),
			goerr.V("userID", userID))
	}
	return facts, nil
}

// SearchFacts retrieves the user's facts most similar to the query
func (uc *MemoryUseCase) SearchFacts(ctx context.Context, workspaceID, userID, query string, limit int) ([]*model.MemoryFact, error) {
	vector, err := uc.embedder.Embed(ctx, query)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed search query",
			goerr.V("workspaceID", workspaceID),
			goerr.V("userID", userID))
	}

	facts, err := uc.repo.MemoryFact().FindByEmbedding(ctx, workspaceID, userID, vector, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search memory facts",
			goerr.V("workspaceID", workspaceID),
			goerr.V("userID", userID))
	}
	return facts, nil
}

// DeleteFact removes a memory fact
func (uc *MemoryUseCase) DeleteFact(ctx context.Context, workspaceID, userID string, factID model.MemoryFactID) error {
	if err := uc.repo.MemoryFact().Delete(ctx, workspaceID, userID, factID); err != nil {
		return goerr.Wrap(err, "failed to delete memory fact",
			goerr.V("workspaceID", workspaceID),
			goerr.V("userID", userID),
			goerr.V("factID", factID))
	}
	return nil
}
