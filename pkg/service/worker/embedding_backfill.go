package worker

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"

	"github.com/docufy-dev/docufy/pkg/domain/interfaces"
	"github.com/docufy-dev/docufy/pkg/service/embedding"
	"github.com/docufy-dev/docufy/pkg/utils/logging"
)

// DefaultBackfillBatchSize bounds how many missing vectors one cycle
// picks up per workspace and record kind.
const DefaultBackfillBatchSize = 64

// EmbeddingBackfillWorker re-embeds memory facts and page chunks that
// were persisted without a vector, typically during an embedding
// provider outage. Records stay retrievable by recency in the meantime
// and join similarity search once backfilled.
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - For future horizontal scaling, implement distributed locking or leader election
type EmbeddingBackfillWorker struct {
	repo       interfaces.Repository
	embedder   *embedding.Service
	workspaces []string
	interval   time.Duration
	batchSize  int
	stopCh     chan struct{}
	doneCh     chan struct{}
}

// NewEmbeddingBackfillWorker creates a new backfill worker covering the
// given workspaces
func NewEmbeddingBackfillWorker(repo interfaces.Repository, embedder *embedding.Service, workspaces []string, interval time.Duration) *EmbeddingBackfillWorker {
	return &EmbeddingBackfillWorker{
		repo:       repo,
		embedder:   embedder,
		workspaces: workspaces,
		interval:   interval,
		batchSize:  DefaultBackfillBatchSize,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Start begins the background backfill loop
// - Initial pass and periodic passes both run in a background goroutine
// - Does not block server startup
func (w *EmbeddingBackfillWorker) Start(ctx context.Context) error {
	logging.Default().Info("Embedding backfill worker starting",
		"interval", w.interval.String(),
		"workspaces", len(w.workspaces))

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for completion
func (w *EmbeddingBackfillWorker) Stop() {
	logging.Default().Info("Embedding backfill worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("Embedding backfill worker stopped")
}

// run is the main worker loop (runs in goroutine)
func (w *EmbeddingBackfillWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	if err := w.Backfill(ctx); err != nil {
		logging.Default().Error("Initial embedding backfill failed (will retry next interval)",
			"error", err.Error())
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.Backfill(ctx); err != nil {
				// Log error but continue worker
				logging.Default().Error("Embedding backfill failed (will retry next interval)",
					"error", err.Error())
			}

		case <-w.stopCh:
			logging.Default().Info("Embedding backfill worker received stop signal")
			return

		case <-ctx.Done():
			logging.Default().Info("Embedding backfill worker context cancelled")
			return
		}
	}
}

// Backfill performs a single pass over all workspaces. Workspaces run
// concurrently with bounded parallelism; a failure in one workspace
// does not stop the others.
func (w *EmbeddingBackfillWorker) Backfill(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(4)

	for _, workspaceID := range w.workspaces {
		eg.Go(func() error {
			if err := w.backfillWorkspace(ctx, workspaceID); err != nil {
				return goerr.Wrap(err, "workspace backfill failed", goerr.V("workspaceID", workspaceID))
			}
			return nil
		})
	}

	return eg.Wait()
}

func (w *EmbeddingBackfillWorker) backfillWorkspace(ctx context.Context, workspaceID string) error {
	facts, err := w.backfillFacts(ctx, workspaceID)
	if err != nil {
		return err
	}

	chunks, err := w.backfillChunks(ctx, workspaceID)
	if err != nil {
		return err
	}

	if facts > 0 || chunks > 0 {
		logging.Default().Info("Embedding backfill completed",
			"workspaceID", workspaceID,
			"facts", facts,
			"chunks", chunks)
	}

	return nil
}

func (w *EmbeddingBackfillWorker) backfillFacts(ctx context.Context, workspaceID string) (int, error) {
	facts, err := w.repo.MemoryFact().ListMissingEmbedding(ctx, workspaceID, w.batchSize)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to list facts missing embedding")
	}
	if len(facts) == 0 {
		return 0, nil
	}

	texts := make([]string, len(facts))
	for i, fact := range facts {
		texts[i] = fact.Content
	}

	vectors, err := w.embedder.EmbedAll(ctx, texts)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to embed facts")
	}

	for i, fact := range facts {
		if err := w.repo.MemoryFact().UpdateEmbedding(ctx, workspaceID, fact.UserID, fact.ID, vectors[i]); err != nil {
			return i, goerr.Wrap(err, "failed to update fact embedding", goerr.V("factID", fact.ID))
		}
	}

	return len(facts), nil
}

func (w *EmbeddingBackfillWorker) backfillChunks(ctx context.Context, workspaceID string) (int, error) {
	chunks, err := w.repo.Chunk().ListMissingEmbedding(ctx, workspaceID, w.batchSize)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to list chunks missing embedding")
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := w.embedder.EmbedAll(ctx, texts)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to embed chunks")
	}

	for i, chunk := range chunks {
		if err := w.repo.Chunk().UpdateEmbedding(ctx, workspaceID, chunk.ID, vectors[i]); err != nil {
			return i, goerr.Wrap(err, "failed to update chunk embedding", goerr.V("chunkID", chunk.ID))
		}
	}

	return len(chunks), nil
}
