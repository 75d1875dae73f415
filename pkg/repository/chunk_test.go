package repository_test

import (
	"context"
	"testing"

	"github.com/docufy-dev/docufy/pkg/domain/interfaces"
	"github.com/docufy-dev/docufy/pkg/domain/model"
	"github.com/docufy-dev/docufy/pkg/repository/memory"
)

func newTestChunk(pageID model.PageID, blockID, text string, embedding []float32) *model.Chunk {
	return &model.Chunk{
		ID:          model.NewChunkID(),
		PageID:      pageID,
		BlockID:     blockID,
		Text:        text,
		ContentHash: model.ContentHash(text),
		Embedding:   embedding,
	}
}

func runChunkRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("ReplacePage stores the chunk set", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		workspaceID := testWorkspaceID()
		pageID := model.NewPageID()

		err := repo.Chunk().ReplacePage(ctx, workspaceID, pageID, []*model.Chunk{
			newTestChunk(pageID, "block-1", "first block", testVector(0)),
			newTestChunk(pageID, "block-2", "second block", testVector(1)),
		})
		if err != nil {
			t.Fatalf("failed to replace page chunks: %v", err)
		}

		chunks, err := repo.Chunk().ListByPage(ctx, workspaceID, pageID)
		if err != nil {
			t.Fatalf("failed to list chunks: %v", err)
		}
		if len(chunks) != 2 {
			t.Fatalf("expected 2 chunks, got %d", len(chunks))
		}

		byBlock := make(map[string]*model.Chunk)
		for _, c := range chunks {
			byBlock[c.BlockID] = c
		}
		first := byBlock["block-1"]
		if first == nil {
			t.Fatal("expected chunk for block-1")
		}
		if first.Text != "first block" {
			t.Errorf("unexpected chunk text: %s", first.Text)
		}
		if first.ContentHash != model.ContentHash("first block") {
			t.Errorf("unexpected content hash: %s", first.ContentHash)
		}
		if !first.HasEmbedding() {
			t.Error("expected chunk embedding to persist")
		}
	})

	t.Run("ReplacePage drops the previous set", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		workspaceID := testWorkspaceID()
		pageID := model.NewPageID()
		otherPageID := model.NewPageID()

		if err := repo.Chunk().ReplacePage(ctx, workspaceID, pageID, []*model.Chunk{
			newTestChunk(pageID, "block-1", "old content", nil),
		}); err != nil {
			t.Fatalf("failed to replace page chunks: %v", err)
		}
		if err := repo.Chunk().ReplacePage(ctx, workspaceID, otherPageID, []*model.Chunk{
			newTestChunk(otherPageID, "block-9", "unrelated page", nil),
		}); err != nil {
			t.Fatalf("failed to replace page chunks: %v", err)
		}

		if err := repo.Chunk().ReplacePage(ctx, workspaceID, pageID, []*model.Chunk{
			newTestChunk(pageID, "block-2", "new content", nil),
		}); err != nil {
			t.Fatalf("failed to replace page chunks: %v", err)
		}

		chunks, err := repo.Chunk().ListByPage(ctx, workspaceID, pageID)
		if err != nil {
			t.Fatalf("failed to list chunks: %v", err)
		}
		if len(chunks) != 1 {
			t.Fatalf("expected 1 chunk, got %d", len(chunks))
		}
		if chunks[0].BlockID != "block-2" {
			t.Errorf("expected replacement chunk, got %s", chunks[0].BlockID)
		}

		others, err := repo.Chunk().ListByPage(ctx, workspaceID, otherPageID)
		if err != nil {
			t.Fatalf("failed to list chunks: %v", err)
		}
		if len(others) != 1 {
			t.Errorf("expected other page untouched, got %d chunks", len(others))
		}

		if err := repo.Chunk().ReplacePage(ctx, workspaceID, pageID, nil); err != nil {
			t.Fatalf("failed to clear page chunks: %v", err)
		}
		chunks, err = repo.Chunk().ListByPage(ctx, workspaceID, pageID)
		if err != nil {
			t.Fatalf("failed to list chunks: %v", err)
		}
		if len(chunks) != 0 {
			t.Errorf("expected no chunks after clear, got %d", len(chunks))
		}
	})

	t.Run("FindByEmbedding ranks by similarity", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		workspaceID := testWorkspaceID()
		pageID := model.NewPageID()

		near := newTestChunk(pageID, "block-1", "near", testVector(0))
		if err := repo.Chunk().ReplacePage(ctx, workspaceID, pageID, []*model.Chunk{
			near,
			newTestChunk(pageID, "block-2", "far", testVector(1)),
			newTestChunk(pageID, "block-3", "not embedded", nil),
		}); err != nil {
			t.Fatalf("failed to replace page chunks: %v", err)
		}

		found, err := repo.Chunk().FindByEmbedding(ctx, workspaceID, testVector(0), 1)
		if err != nil {
			t.Fatalf("failed to find by embedding: %v", err)
		}
		if len(found) != 1 {
			t.Fatalf("expected 1 chunk, got %d", len(found))
		}
		if found[0].ID != near.ID {
			t.Errorf("expected nearest chunk %s, got %s", near.ID, found[0].ID)
		}
	})

	t.Run("UpdateEmbedding backfills a chunk", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		workspaceID := testWorkspaceID()
		pageID := model.NewPageID()

		pending := newTestChunk(pageID, "block-1", "awaiting embedding", nil)
		if err := repo.Chunk().ReplacePage(ctx, workspaceID, pageID, []*model.Chunk{pending}); err != nil {
			t.Fatalf("failed to replace page chunks: %v", err)
		}

		missing, err := repo.Chunk().ListMissingEmbedding(ctx, workspaceID, 0)
		if err != nil {
			t.Fatalf("failed to list missing embeddings: %v", err)
		}
		if len(missing) != 1 {
			t.Fatalf("expected 1 missing chunk, got %d", len(missing))
		}

		if err := repo.Chunk().UpdateEmbedding(ctx, workspaceID, pending.ID, testVector(3)); err != nil {
			t.Fatalf("failed to update embedding: %v", err)
		}

		missing, err = repo.Chunk().ListMissingEmbedding(ctx, workspaceID, 0)
		if err != nil {
			t.Fatalf("failed to list missing embeddings: %v", err)
		}
		if len(missing) != 0 {
			t.Errorf("expected no missing chunks after backfill, got %d", len(missing))
		}

		chunks, err := repo.Chunk().ListByPage(ctx, workspaceID, pageID)
		if err != nil {
			t.Fatalf("failed to list chunks: %v", err)
		}
		if len(chunks) != 1 || !chunks[0].HasEmbedding() {
			t.Error("expected chunk to carry embedding after backfill")
		}
	})
}

func TestMemoryChunkRepository(t *testing.T) {
	runChunkRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		return memory.New()
	})
}

func TestFirestoreChunkRepository(t *testing.T) {
	runChunkRepositoryTest(t, newFirestoreRepository)
}
