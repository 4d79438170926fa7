package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/atlantislabs/atlantis/internal/domain"
	"github.com/atlantislabs/atlantis/internal/provider"
)

const (
	// DefaultBatchSize caps how many pending chunks one poll embeds.
	DefaultBatchSize = 50
)

// PendingChunkRepository defines the chunk operations the backfill needs
type PendingChunkRepository interface {
	ListPending(ctx context.Context, limit int) ([]*domain.DocumentChunk, error)
	MarkReady(ctx context.Context, id int64, vector []float32) error
}

// BackfillWorker embeds chunks that were stored pending because the
// embedding provider was unavailable at ingestion time. Chunk text is
// never touched, only the vector and status change.
type BackfillWorker struct {
	chunks    PendingChunkRepository
	embedder  provider.EmbeddingProvider
	batchSize int
}

// NewBackfillWorker creates a new BackfillWorker instance
func NewBackfillWorker(chunks PendingChunkRepository, embedder provider.EmbeddingProvider, batchSize int) *BackfillWorker {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &BackfillWorker{
		chunks:    chunks,
		embedder:  embedder,
		batchSize: batchSize,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *BackfillWorker) ProcessJobs(ctx context.Context) error {
	pending, err := w.chunks.ListPending(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("failed to list pending chunks: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	log.Printf("backfill: embedding %d pending chunks", len(pending))

	texts := make([]string, len(pending))
	for i, c := range pending {
		texts[i] = c.Content
	}

	vectors, err := w.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		if isUnavailable(err) {
			// Provider is still down. Leave the chunks pending and try
			// again on the next poll.
			log.Printf("backfill: provider still unavailable, deferring %d chunks", len(pending))
			return nil
		}
		return fmt.Errorf("failed to embed pending chunks: %w", err)
	}

	if len(vectors) != len(pending) {
		return fmt.Errorf("embedding count mismatch: got %d vectors for %d chunks", len(vectors), len(pending))
	}

	completed := 0
	for i, c := range pending {
		if err := w.chunks.MarkReady(ctx, c.ID, vectors[i]); err != nil {
			log.Printf("backfill: failed to mark chunk %d ready: %v", c.ID, err)
			continue
		}
		completed++
	}

	log.Printf("backfill: completed %d/%d chunks", completed, len(pending))
	return nil
}

func isUnavailable(err error) bool {
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == domain.ErrCodeProviderUnavailable
	}
	return false
}
