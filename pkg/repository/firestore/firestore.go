package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/docufy-dev/docufy/pkg/domain/interfaces"
)

// ErrNotFound is returned when a requested document does not exist
var ErrNotFound = goerr.New("not found")

type Firestore struct {
	client     *firestore.Client
	pageRepo   *pageRepository
	chunkRepo  *chunkRepository
	memoryRepo *memoryFactRepository
}

var _ interfaces.Repository = &Firestore{}

func New(ctx context.Context, projectID, databaseID string) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID == "" {
		client, err = firestore.NewClient(ctx, projectID)
	} else {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID),
		)
	}

	return &Firestore{
		client:     client,
		pageRepo:   newPageRepository(client),
		chunkRepo:  newChunkRepository(client),
		memoryRepo: newMemoryFactRepository(client),
	}, nil
}

func (f *Firestore) Page() interfaces.PageRepository {
	return f.pageRepo
}

func (f *Firestore) Chunk() interfaces.ChunkRepository {
	return f.chunkRepo
}

func (f *Firestore) MemoryFact() interfaces.MemoryFactRepository {
	return f.memoryRepo
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
