package repository

import (
	"context"
	"time"

	"github.com/atlantislabs/atlantis/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// ChunkRepository handles persistence and similarity search of document
// chunks and their embeddings.
type ChunkRepository struct {
	db dbtx
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{db: pool}
}

func NewChunkRepositoryWithTx(tx pgx.Tx) *ChunkRepository {
	return &ChunkRepository{db: tx}
}

// InsertBatch writes one row per chunk. When constructed on a pool the
// batch runs in its own transaction so an ingestion is all-or-nothing.
func (r *ChunkRepository) InsertBatch(ctx context.Context, chunks []*domain.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	if pool, ok := r.db.(*pgxpool.Pool); ok {
		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}
		if err := insertChunks(ctx, tx, chunks); err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
		return tx.Commit(ctx)
	}

	return insertChunks(ctx, r.db, chunks)
}

func insertChunks(ctx context.Context, db dbtx, chunks []*domain.DocumentChunk) error {
	for _, c := range chunks {
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}

		var vec *pgvector.Vector
		if c.Embedding != nil {
			v := pgvector.NewVector(c.Embedding)
			vec = &v
		}

		err := db.QueryRow(ctx,
			`INSERT INTO document_chunks (session_id, content, embedding, status, metadata, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING id`,
			c.SessionID, c.Content, vec, c.Status, c.Metadata, createdAt,
		).Scan(&c.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

// HasReadyEmbeddings reports whether at least one searchable chunk exists
// in the session.
func (r *ChunkRepository) HasReadyEmbeddings(ctx context.Context, sessionID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM document_chunks WHERE session_id = $1 AND status = 'ready'
		 )`,
		sessionID,
	).Scan(&exists)
	return exists, err
}

// SearchReady returns up to k chunk texts from the session's ready chunks,
// ordered by ascending cosine distance, ties broken by insertion order.
func (r *ChunkRepository) SearchReady(ctx context.Context, sessionID string, vector []float32, k int) ([]string, error) {
	if k <= 0 {
		k = 4
	}

	rows, err := r.db.Query(ctx,
		`SELECT content
		 FROM document_chunks
		 WHERE session_id = $1 AND status = 'ready'
		 ORDER BY embedding <=> $2, id ASC
		 LIMIT $3`,
		sessionID, pgvector.NewVector(vector), k,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	texts := make([]string, 0, k)
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, err
		}
		texts = append(texts, content)
	}
	return texts, rows.Err()
}

// CountByStatus returns how many chunks of the session are ready and how
// many are pending.
func (r *ChunkRepository) CountByStatus(ctx context.Context, sessionID string) (int, int, error) {
	var ready, pending int
	err := r.db.QueryRow(ctx,
		`SELECT
			COUNT(*) FILTER (WHERE status = 'ready'),
			COUNT(*) FILTER (WHERE status = 'pending')
		 FROM document_chunks
		 WHERE session_id = $1`,
		sessionID,
	).Scan(&ready, &pending)
	return ready, pending, err
}

// ListPending returns up to limit chunks still waiting for an embedding,
// oldest first.
func (r *ChunkRepository) ListPending(ctx context.Context, limit int) ([]*domain.DocumentChunk, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, session_id, content, status, metadata, created_at
		 FROM document_chunks
		 WHERE status = 'pending'
		 ORDER BY created_at ASC, id ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chunks := make([]*domain.DocumentChunk, 0)
	for rows.Next() {
		var c domain.DocumentChunk
		if err := rows.Scan(&c.ID, &c.SessionID, &c.Content, &c.Status, &c.Metadata, &c.CreatedAt); err != nil {
			return nil, err
		}
		chunks = append(chunks, &c)
	}
	return chunks, rows.Err()
}

// MarkReady attaches an embedding to a pending chunk and flips its status.
// A chunk another worker already completed is left untouched.
func (r *ChunkRepository) MarkReady(ctx context.Context, id int64, vector []float32) error {
	_, err := r.db.Exec(ctx,
		`UPDATE document_chunks
		 SET embedding = $2, status = 'ready'
		 WHERE id = $1 AND status = 'pending'`,
		id, pgvector.NewVector(vector),
	)
	return err
}
