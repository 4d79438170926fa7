package repository

import (
	"context"

	"github.com/atlantislabs/atlantis/internal/domain"
	"github.com/atlantislabs/atlantis/internal/pagination"
	"github.com/atlantislabs/atlantis/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MessageRepository handles persistence of chat messages.
type MessageRepository struct {
	db dbtx
}

func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: pool}
}

func NewMessageRepositoryWithTx(tx pgx.Tx) *MessageRepository {
	return &MessageRepository{db: tx}
}

func (r *MessageRepository) Insert(ctx context.Context, m *domain.ChatMessage) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO chat_messages (session_id, role, content, created_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		m.SessionID, m.Role, m.Content, m.CreatedAt,
	).Scan(&m.ID)
}

// ListBySession returns all messages of a session in chronological order,
// ties broken by insertion order.
func (r *MessageRepository) ListBySession(ctx context.Context, sessionID string) ([]*domain.ChatMessage, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, session_id, role, content, created_at
		 FROM chat_messages
		 WHERE session_id = $1
		 ORDER BY created_at ASC, id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessageRows(rows)
}

// ListRecent returns the most recent messages of a session, re-sorted into
// chronological order for prompt assembly.
func (r *MessageRepository) ListRecent(ctx context.Context, sessionID string, limit int) ([]*domain.ChatMessage, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, session_id, role, content, created_at FROM (
			SELECT id, session_id, role, content, created_at
			FROM chat_messages
			WHERE session_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		 ) recent
		 ORDER BY created_at ASC, id ASC`,
		sessionID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessageRows(rows)
}

// ListBySessionWithCursor returns one chronological page of a session's
// messages, keyed by (created_at, id).
func (r *MessageRepository) ListBySessionWithCursor(ctx context.Context, sessionID string, cursor *pagination.Cursor, limit int) (*service.MessagePageResult, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows pgx.Rows
	var err error

	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT id, session_id, role, content, created_at
			 FROM chat_messages
			 WHERE session_id = $1 AND (created_at, id) > ($2, $3)
			 ORDER BY created_at ASC, id ASC
			 LIMIT $4`,
			sessionID, cursor.Timestamp, cursor.LastID, limit+1,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT id, session_id, role, content, created_at
			 FROM chat_messages
			 WHERE session_id = $1
			 ORDER BY created_at ASC, id ASC
			 LIMIT $2`,
			sessionID, limit+1,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := scanMessageRows(rows)
	if err != nil {
		return nil, err
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	nextCursor := ""
	if hasMore && len(items) > 0 {
		last := items[len(items)-1]
		nextCursor = pagination.EncodeCursor(last.ID, last.CreatedAt)
	}

	return &service.MessagePageResult{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

func scanMessageRows(rows pgx.Rows) ([]*domain.ChatMessage, error) {
	messages := make([]*domain.ChatMessage, 0)
	for rows.Next() {
		var m domain.ChatMessage
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}
