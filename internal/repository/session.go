package repository

import (
	"context"
	"errors"

	"github.com/atlantislabs/atlantis/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionRepository handles persistence of conversation sessions.
type SessionRepository struct {
	db dbtx
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: pool}
}

func NewSessionRepositoryWithTx(tx pgx.Tx) *SessionRepository {
	return &SessionRepository{db: tx}
}

func (r *SessionRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO sessions (id, created_at) VALUES ($1, $2)`,
		s.ID, s.CreatedAt,
	)
	return err
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	var s domain.Session
	err := r.db.QueryRow(ctx,
		`SELECT id, created_at FROM sessions WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepository) List(ctx context.Context) ([]*domain.Session, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, created_at FROM sessions ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]*domain.Session, 0)
	for rows.Next() {
		var s domain.Session
		if err := rows.Scan(&s.ID, &s.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, &s)
	}
	return sessions, rows.Err()
}

// Delete removes the session. Messages and chunks go with it via
// ON DELETE CASCADE.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}
