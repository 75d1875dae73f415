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

// memoryFactDoc is the Firestore document representation of
// model.MemoryFact. Embedding is stored as firestore.Vector32 for
// FindNearest vector search; HasEmbedding exists because Firestore
// cannot query for a missing field.
type memoryFactDoc struct {
	ID              model.MemoryFactID `firestore:"ID"`
	WorkspaceID     string             `firestore:"WorkspaceID"`
	UserID          string             `firestore:"UserID"`
	Content         string             `firestore:"Content"`
	SourceMessageID string             `firestore:"SourceMessageID,omitempty"`
	EntryID         string             `firestore:"EntryID,omitempty"`
	Embedding       firestore.Vector32 `firestore:"Embedding,omitempty"`
	HasEmbedding    bool               `firestore:"HasEmbedding"`
	CreatedAt       time.Time          `firestore:"CreatedAt"`
	UpdatedAt       time.Time          `firestore:"UpdatedAt"`
}

func toMemoryFactDoc(f *model.MemoryFact) *memoryFactDoc {
	doc := &memoryFactDoc{
		ID:              f.ID,
		WorkspaceID:     f.WorkspaceID,
		UserID:          f.UserID,
		Content:         f.Content,
		SourceMessageID: f.SourceMessageID,
		EntryID:         f.EntryID,
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.UpdatedAt,
	}
	if len(f.Embedding) > 0 {
		doc.Embedding = firestore.Vector32(f.Embedding)
		doc.HasEmbedding = true
	}
	return doc
}

func fromMemoryFactDoc(d *memoryFactDoc) *model.MemoryFact {
	f := &model.MemoryFact{
		ID:              d.ID,
		WorkspaceID:     d.WorkspaceID,
		UserID:          d.UserID,
		Content:         d.Content,
		SourceMessageID: d.SourceMessageID,
		EntryID:         d.EntryID,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
	if len(d.Embedding) > 0 {
		f.Embedding = []float32(d.Embedding)
	}
	return f
}

type memoryFactRepository struct {
	client *firestore.Client
}

func newMemoryFactRepository(client *firestore.Client) *memoryFactRepository {
	return &memoryFactRepository{client: client}
}

// factsCollection returns the subcollection path:
// workspaces/{workspaceID}/users/{userID}/memory_facts
func (r *memoryFactRepository) factsCollection(workspaceID, userID string) *firestore.CollectionRef {
	return r.client.Collection("workspaces").Doc(workspaceID).
		Collection("users").Doc(userID).
		Collection("memory_facts")
}

func (r *memoryFactRepository) Create(ctx context.Context, workspaceID, userID string, fact *model.MemoryFact) (*model.MemoryFact, error) {
	if fact.ID == "" {
		fact.ID = model.NewMemoryFactID()
	}
	fact.WorkspaceID = workspaceID
	fact.UserID = userID
	now := time.Now().UTC()
	fact.CreatedAt = now
	fact.UpdatedAt = now

	docRef := r.factsCollection(workspaceID, userID).Doc(string(fact.ID))
	if _, err := docRef.Set(ctx, toMemoryFactDoc(fact)); err != nil {
		return nil, goerr.Wrap(err, "failed to create memory fact")
	}

	return fact, nil
}

func (r *memoryFactRepository) Get(ctx context.Context, workspaceID, userID string, factID model.MemoryFactID) (*model.MemoryFact, error) {
	docRef := r.factsCollection(workspaceID, userID).Doc(string(factID))
	doc, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "memory fact not found", goerr.V("factID", factID))
		}
		return nil, goerr.Wrap(err, "failed to get memory fact", goerr.V("factID", factID))
	}

	var d memoryFactDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal memory fact", goerr.V("factID", factID))
	}

	return fromMemoryFactDoc(&d), nil
}

func (r *memoryFactRepository) Delete(ctx context.Context, workspaceID, userID string, factID model.MemoryFactID) error {
	docRef := r.factsCollection(workspaceID, userID).Doc(string(factID))

	_, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "memory fact not found", goerr.V("factID", factID))
		}
		return goerr.Wrap(err, "failed to get memory fact", goerr.V("factID", factID))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete memory fact", goerr.V("factID", factID))
	}

	return nil
}

func (r *memoryFactRepository) List(ctx context.Context, workspaceID, userID string, limit int) ([]*model.MemoryFact, error) {
	q := r.factsCollection(workspaceID, userID).
		OrderBy("CreatedAt", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	facts := make([]*model.MemoryFact, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate memory facts")
		}

		var d memoryFactDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal memory fact")
		}

		facts = append(facts, fromMemoryFactDoc(&d))
	}

	return facts, nil
}

func (r *memoryFactRepository) FindByEmbedding(ctx context.Context, workspaceID, userID string, embedding []float32, limit int) ([]*model.MemoryFact, error) {
	vq := r.factsCollection(workspaceID, userID).
		FindNearest("Embedding", firestore.Vector32(embedding), limit, firestore.DistanceMeasureCosine, nil)

	iter := vq.Documents(ctx)
	defer iter.Stop()

	facts := make([]*model.MemoryFact, 0, limit)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate memory fact vector search results")
		}

		var d memoryFactDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal memory fact from vector search")
		}

		facts = append(facts, fromMemoryFactDoc(&d))
	}

	return facts, nil
}

func (r *memoryFactRepository) UpdateEmbedding(ctx context.Context, workspaceID, userID string, factID model.MemoryFactID, embedding []float32) error {
	docRef := r.factsCollection(workspaceID, userID).Doc(string(factID))

	_, err := docRef.Update(ctx, []firestore.Update{
		{Path: "Embedding", Value: firestore.Vector32(embedding)},
		{Path: "HasEmbedding", Value: true},
		{Path: "UpdatedAt", Value: time.Now().UTC()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "memory fact not found", goerr.V("factID", factID))
		}
		return goerr.Wrap(err, "failed to update memory fact embedding", goerr.V("factID", factID))
	}

	return nil
}

// ListMissingEmbedding spans all users of the workspace via a
// collection group query; the WorkspaceID field is stored on each
// document for exactly this purpose.
func (r *memoryFactRepository) ListMissingEmbedding(ctx context.Context, workspaceID string, limit int) ([]*model.MemoryFact, error) {
	q := r.client.CollectionGroup("memory_facts").
		Where("WorkspaceID", "==", workspaceID).
		Where("HasEmbedding", "==", false).
		OrderBy("CreatedAt", firestore.Asc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	facts := make([]*model.MemoryFact, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate unembedded memory facts")
		}

		var d memoryFactDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal memory fact")
		}

		facts = append(facts, fromMemoryFactDoc(&d))
	}

	return facts, nil
}
