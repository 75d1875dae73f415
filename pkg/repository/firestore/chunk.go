package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/docufy-dev/docufy/pkg/domain/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// chunkDoc is the Firestore document representation of model.Chunk
type chunkDoc struct {
	ID           model.ChunkID      `firestore:"ID"`
	WorkspaceID  string             `firestore:"WorkspaceID"`
	PageID       model.PageID       `firestore:"PageID"`
	BlockID      string             `firestore:"BlockID"`
	Text         string             `firestore:"Text"`
	ContentHash  string             `firestore:"ContentHash"`
	Embedding    firestore.Vector32 `firestore:"Embedding,omitempty"`
	HasEmbedding bool               `firestore:"HasEmbedding"`
	CreatedAt    time.Time          `firestore:"CreatedAt"`
	UpdatedAt    time.Time          `firestore:"UpdatedAt"`
}

func toChunkDoc(c *model.Chunk) *chunkDoc {
	doc := &chunkDoc{
		ID:          c.ID,
		WorkspaceID: c.WorkspaceID,
		PageID:      c.PageID,
		BlockID:     c.BlockID,
		Text:        c.Text,
		ContentHash: c.ContentHash,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	if len(c.Embedding) > 0 {
		doc.Embedding = firestore.Vector32(c.Embedding)
		doc.HasEmbedding = true
	}
	return doc
}

func fromChunkDoc(d *chunkDoc) *model.Chunk {
	c := &model.Chunk{
		ID:          d.ID,
		WorkspaceID: d.WorkspaceID,
		PageID:      d.PageID,
		BlockID:     d.BlockID,
		Text:        d.Text,
		ContentHash: d.ContentHash,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if len(d.Embedding) > 0 {
		c.Embedding = []float32(d.Embedding)
	}
	return c
}

type chunkRepository struct {
	client *firestore.Client
}

func newChunkRepository(client *firestore.Client) *chunkRepository {
	return &chunkRepository{client: client}
}

// chunksCollection returns the subcollection path:
// workspaces/{workspaceID}/chunks
// Chunks live at workspace level so vector search spans all pages.
func (r *chunkRepository) chunksCollection(workspaceID string) *firestore.CollectionRef {
	return r.client.Collection("workspaces").Doc(workspaceID).Collection("chunks")
}

func (r *chunkRepository) ListByPage(ctx context.Context, workspaceID string, pageID model.PageID) ([]*model.Chunk, error) {
	iter := r.chunksCollection(workspaceID).
		Where("PageID", "==", string(pageID)).
		Documents(ctx)
	defer iter.Stop()

	return collectChunks(iter)
}

func (r *chunkRepository) ReplacePage(ctx context.Context, workspaceID string, pageID model.PageID, chunks []*model.Chunk) error {
	// Delete existing chunks of the page, then write the new set.
	existing, err := r.ListByPage(ctx, workspaceID, pageID)
	if err != nil {
		return err
	}

	bw := r.client.BulkWriter(ctx)
	for _, c := range existing {
		if _, err := bw.Delete(r.chunksCollection(workspaceID).Doc(string(c.ID))); err != nil {
			return goerr.Wrap(err, "failed to queue chunk delete", goerr.V("chunkID", c.ID))
		}
	}

	now := time.Now().UTC()
	for _, c := range chunks {
		if c.ID == "" {
			c.ID = model.NewChunkID()
		}
		c.WorkspaceID = workspaceID
		c.PageID = pageID
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		c.UpdatedAt = now

		if _, err := bw.Set(r.chunksCollection(workspaceID).Doc(string(c.ID)), toChunkDoc(c)); err != nil {
			return goerr.Wrap(err, "failed to queue chunk write", goerr.V("chunkID", c.ID))
		}
	}

	bw.End()
	return nil
}

func (r *chunkRepository) FindByEmbedding(ctx context.Context, workspaceID string, embedding []float32, limit int) ([]*model.Chunk, error) {
	vq := r.chunksCollection(workspaceID).
		FindNearest("Embedding", firestore.Vector32(embedding), limit, firestore.DistanceMeasureCosine, nil)

	iter := vq.Documents(ctx)
	defer iter.Stop()

	return collectChunks(iter)
}

func (r *chunkRepository) UpdateEmbedding(ctx context.Context, workspaceID string, chunkID model.ChunkID, embedding []float32) error {
	docRef := r.chunksCollection(workspaceID).Doc(string(chunkID))

	_, err := docRef.Update(ctx, []firestore.Update{
		{Path: "Embedding", Value: firestore.Vector32(embedding)},
		{Path: "HasEmbedding", Value: true},
		{Path: "UpdatedAt", Value: time.Now().UTC()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "chunk not found", goerr.V("chunkID", chunkID))
		}
		return goerr.Wrap(err, "failed to update chunk embedding", goerr.V("chunkID", chunkID))
	}

	return nil
}

func (r *chunkRepository) ListMissingEmbedding(ctx context.Context, workspaceID string, limit int) ([]*model.Chunk, error) {
	q := r.chunksCollection(workspaceID).
		Where("HasEmbedding", "==", false)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	return collectChunks(iter)
}

func collectChunks(iter *firestore.DocumentIterator) ([]*model.Chunk, error) {
	chunks := make([]*model.Chunk, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate chunks")
		}

		var d chunkDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal chunk")
		}

		chunks = append(chunks, fromChunkDoc(&d))
	}

	return chunks, nil
}
