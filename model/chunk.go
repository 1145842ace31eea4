package model

import (
	"fmt"
)

// Chunk represents one contract paragraph with its embedding.
// IDs are dense 0..N-1 in ingestion order and chunks are immutable once embedded.
type Chunk struct {
	ID        int       `json:"id"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// ErrUnknownChunk is returned by accessors when a chunk id is not present
var ErrUnknownChunk = fmt.Errorf("unknown chunk id")

// CheckChunks validates that the chunk slice has dense ids in order and
// embeddings of equal dimensionality.
func CheckChunks(chunks []*Chunk) error {
	if len(chunks) == 0 {
		return fmt.Errorf("no chunks given")
	}

	dim := len(chunks[0].Embedding)
	if dim == 0 {
		return fmt.Errorf("chunk 0 has no embedding")
	}

	for i, chunk := range chunks {
		if chunk.ID != i {
			return fmt.Errorf("chunk at position %d has id %d, expected dense ids in order", i, chunk.ID)
		}
		if len(chunk.Embedding) != dim {
			return fmt.Errorf("chunk %d has embedding dimension %d, expected %d", chunk.ID, len(chunk.Embedding), dim)
		}
	}

	return nil
}
