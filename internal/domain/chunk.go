package domain

import (
	"fmt"
	"time"
)

// ChunkStatus represents the embedding state of a document chunk
type ChunkStatus string

const (
	// ChunkStatusReady marks a chunk with a stored vector, eligible for search.
	ChunkStatusReady ChunkStatus = "ready"
	// ChunkStatusPending marks a chunk whose embedding failed or was deferred.
	// Pending chunks are never returned by similarity search.
	ChunkStatusPending ChunkStatus = "pending"
)

// DocumentChunk is a stored embedding record: a contiguous segment of an
// uploaded document scoped to one session. Chunks are written in batches
// during ingestion and deleted only through session deletion.
type DocumentChunk struct {
	ID        int64
	SessionID string
	Content   string
	Embedding []float32
	Status    ChunkStatus
	Metadata  map[string]any
	CreatedAt time.Time
}

// ValidateDocumentChunk validates a DocumentChunk instance, including the
// status/vector pairing: pending chunks carry no vector, ready chunks carry
// a vector of the expected dimensionality.
func ValidateDocumentChunk(c *DocumentChunk, dimensions int) error {
	if c == nil {
		return fmt.Errorf("document chunk cannot be nil")
	}

	if c.SessionID == "" {
		return fmt.Errorf("document chunk session ID is required")
	}

	if c.Content == "" {
		return fmt.Errorf("document chunk content is required")
	}

	switch c.Status {
	case ChunkStatusPending:
		if c.Embedding != nil {
			return fmt.Errorf("pending chunk must not carry an embedding")
		}
	case ChunkStatusReady:
		if len(c.Embedding) == 0 {
			return fmt.Errorf("ready chunk must carry an embedding")
		}
		if dimensions > 0 && len(c.Embedding) != dimensions {
			return fmt.Errorf("ready chunk embedding has %d dimensions, expected %d", len(c.Embedding), dimensions)
		}
	default:
		return ErrInvalidChunkStatus
	}

	return nil
}
