package memory

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/docufy-dev/docufy/pkg/domain/interfaces"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = goerr.New("not found")

// Repository is an alias for Memory to match the pattern
type Repository = Memory

// Memory is an in-memory implementation of interfaces.Repository for
// development and tests.
type Memory struct {
	pages  *pageRepository
	chunks *chunkRepository
	facts  *memoryFactRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		pages:  newPageRepository(),
		chunks: newChunkRepository(),
		facts:  newMemoryFactRepository(),
	}
}

func (m *Memory) Page() interfaces.PageRepository {
	return m.pages
}

func (m *Memory) Chunk() interfaces.ChunkRepository {
	return m.chunks
}

func (m *Memory) MemoryFact() interfaces.MemoryFactRepository {
	return m.facts
}

func (m *Memory) Close() error {
	return nil
}
