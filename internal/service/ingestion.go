package service

import (
	"context"
	"fmt"
	"log"

	"github.com/atlantislabs/atlantis/internal/domain"
	"github.com/atlantislabs/atlantis/internal/extract"
	"github.com/atlantislabs/atlantis/internal/provider"
	"github.com/atlantislabs/atlantis/internal/telemetry"
)

// NoteEmbeddingsDeferred is attached to an ingestion summary when the
// embedding provider was unavailable and chunks were stored pending.
const NoteEmbeddingsDeferred = "LLM temporarily unavailable. Document uploaded successfully."

// Ingestion status values reported in the summary.
const (
	IngestStatusOK       = "ok"
	IngestStatusDegraded = "degraded"
)

// ChunkRepositoryInterface defines the repository interface for document chunk persistence
type ChunkRepositoryInterface interface {
	InsertBatch(ctx context.Context, chunks []*domain.DocumentChunk) error
	HasReadyEmbeddings(ctx context.Context, sessionID string) (bool, error)
	SearchReady(ctx context.Context, sessionID string, vector []float32, k int) ([]string, error)
	CountByStatus(ctx context.Context, sessionID string) (ready int, pending int, err error)
	ListPending(ctx context.Context, limit int) ([]*domain.DocumentChunk, error)
	MarkReady(ctx context.Context, id int64, vector []float32) error
}

// DocumentArchive stores raw uploaded documents for later inspection.
// Archival is best effort and never fails an ingestion.
type DocumentArchive interface {
	Store(ctx context.Context, sessionID, filename string, data []byte) (string, error)
}

// IngestionService turns an uploaded document into stored, searchable chunks
type IngestionService struct {
	sessions SessionRepositoryInterface
	chunks   ChunkRepositoryInterface
	embedder provider.EmbeddingProvider
	archive  DocumentArchive
	chunkCfg ChunkConfig
	dims     int
}

// NewIngestionService creates a new IngestionService instance. The archive
// may be nil, in which case raw documents are not retained.
func NewIngestionService(
	sessions SessionRepositoryInterface,
	chunks ChunkRepositoryInterface,
	embedder provider.EmbeddingProvider,
	archive DocumentArchive,
	chunkCfg ChunkConfig,
	dimensions int,
) *IngestionService {
	if chunkCfg.Size <= 0 {
		chunkCfg = DefaultChunkConfig()
	}
	return &IngestionService{
		sessions: sessions,
		chunks:   chunks,
		embedder: embedder,
		archive:  archive,
		chunkCfg: chunkCfg,
		dims:     dimensions,
	}
}

// IngestInput represents the input for ingesting a document
type IngestInput struct {
	SessionID string
	Filename  string
	Content   []byte
	Kind      extract.ContentKind
}

// IngestResult summarizes one ingestion: how many segments the document
// yielded and how many chunks were stored ready versus pending.
type IngestResult struct {
	Status   string
	Segments int
	Ready    int
	Pending  int
	Note     string
}

// Ingest extracts text from the document, splits it into chunks, embeds
// them, and stores the batch atomically under the session. The session must
// already exist. A transient embedding outage stores every chunk with a
// pending status and reports a degraded summary instead of failing; any
// other provider failure rejects the whole ingestion with nothing written.
func (s *IngestionService) Ingest(ctx context.Context, input IngestInput) (*IngestResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "IngestionService.Ingest", telemetry.SpanAttributes{
		SessionID: input.SessionID,
		Operation: "ingest",
	})
	defer span.End()

	if input.SessionID == "" {
		return nil, domain.ErrInvalidSessionID
	}
	if _, err := s.sessions.GetByID(ctx, input.SessionID); err != nil {
		return nil, err
	}

	extracted, err := extract.Text(input.Content, input.Kind)
	if err != nil {
		return nil, err
	}

	texts, err := SplitText(extracted.Text, s.chunkCfg)
	if err != nil {
		return nil, err
	}

	vectors, embedErr := s.embedder.EmbedDocuments(ctx, texts)
	degraded := false
	if embedErr != nil {
		if !isProviderUnavailable(embedErr) {
			span.SetError(embedErr)
			return nil, embedErr
		}
		degraded = true
	} else if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d vectors for %d chunks", len(vectors), len(texts))
	}

	chunks := make([]*domain.DocumentChunk, len(texts))
	for i, text := range texts {
		c := &domain.DocumentChunk{
			SessionID: input.SessionID,
			Content:   text,
			Status:    domain.ChunkStatusReady,
			Metadata: map[string]any{
				"chunk_index": i,
			},
		}
		if input.Filename != "" {
			c.Metadata["source"] = input.Filename
		}
		if degraded {
			c.Status = domain.ChunkStatusPending
		} else {
			c.Embedding = vectors[i]
		}
		if err := domain.ValidateDocumentChunk(c, s.dims); err != nil {
			return nil, err
		}
		chunks[i] = c
	}

	if err := s.chunks.InsertBatch(ctx, chunks); err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("failed to store chunks: %w", err)
	}

	s.archiveDocument(ctx, input)

	result := &IngestResult{
		Status:   IngestStatusOK,
		Segments: extracted.Segments,
		Ready:    len(chunks),
	}
	if degraded {
		result.Status = IngestStatusDegraded
		result.Ready = 0
		result.Pending = len(chunks)
		result.Note = NoteEmbeddingsDeferred
	}
	return result, nil
}

func (s *IngestionService) archiveDocument(ctx context.Context, input IngestInput) {
	if s.archive == nil || input.Filename == "" {
		return
	}
	if _, err := s.archive.Store(ctx, input.SessionID, input.Filename, input.Content); err != nil {
		log.Printf("ingestion: archive of %q failed: %v", input.Filename, err)
		telemetry.CaptureError(ctx, err)
	}
}
