package world

import (
	"sort"
	"sync"
)

// ChunkStore indexes every chunk the streamer has created. Chunks are never
// removed.
type ChunkStore struct {
	chunks map[ChunkCoord]*Chunk
	mu     sync.RWMutex
}

// NewChunkStore creates an empty store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{
		chunks: make(map[ChunkCoord]*Chunk),
	}
}

// Get returns the chunk at coord, or nil.
func (cs *ChunkStore) Get(coord ChunkCoord) *Chunk {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.chunks[coord]
}

// Add stores chunk under its coordinate unless one is already present and
// returns the stored chunk.
func (cs *ChunkStore) Add(chunk *Chunk) *Chunk {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if existing, ok := cs.chunks[chunk.coord]; ok {
		return existing
	}
	cs.chunks[chunk.coord] = chunk
	return chunk
}

// Len returns the number of stored chunks.
func (cs *ChunkStore) Len() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.chunks)
}

// Each calls fn for every chunk in row-major coordinate order.
func (cs *ChunkStore) Each(fn func(*Chunk)) {
	cs.mu.RLock()
	chunks := make([]*Chunk, 0, len(cs.chunks))
	for _, c := range cs.chunks {
		chunks = append(chunks, c)
	}
	cs.mu.RUnlock()

	sort.Slice(chunks, func(i, j int) bool {
		return coordLess(chunks[i].coord, chunks[j].coord)
	})
	for _, c := range chunks {
		fn(c)
	}
}

func coordLess(a, b ChunkCoord) bool {
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.X < b.X
}
