package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	Page() PageRepository
	Chunk() ChunkRepository
	MemoryFact() MemoryFactRepository

	Close() error
}
