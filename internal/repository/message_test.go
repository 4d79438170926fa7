//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/atlantislabs/atlantis/internal/domain"
	"github.com/atlantislabs/atlantis/internal/pagination"
	"github.com/atlantislabs/atlantis/internal/service"
	"github.com/atlantislabs/atlantis/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestSession(ctx context.Context, t *testing.T, repo *SessionRepository) *domain.Session {
	t.Helper()
	s := &domain.Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, repo.Create(ctx, s))
	return s
}

func TestMessageRepository(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	sessionRepo := NewSessionRepository(pool)
	messageRepo := NewMessageRepository(pool)

	t.Run("insert assigns id and list preserves chronological order", func(t *testing.T) {
		sess := createTestSession(ctx, t, sessionRepo)
		base := time.Now().UTC().Add(-time.Minute)

		m1 := &domain.ChatMessage{SessionID: sess.ID, Role: domain.MessageRoleUser, Content: "first", CreatedAt: base}
		m2 := &domain.ChatMessage{SessionID: sess.ID, Role: domain.MessageRoleAssistant, Content: "second", CreatedAt: base.Add(time.Second)}
		m3 := &domain.ChatMessage{SessionID: sess.ID, Role: domain.MessageRoleUser, Content: "third", CreatedAt: base.Add(2 * time.Second)}

		// Insert out of order to prove ordering comes from timestamps
		for _, m := range []*domain.ChatMessage{m2, m3, m1} {
			require.NoError(t, messageRepo.Insert(ctx, m))
			assert.NotZero(t, m.ID)
		}

		messages, err := messageRepo.ListBySession(ctx, sess.ID)
		require.NoError(t, err)
		require.Len(t, messages, 3)
		assert.Equal(t, "first", messages[0].Content)
		assert.Equal(t, "second", messages[1].Content)
		assert.Equal(t, "third", messages[2].Content)
	})

	t.Run("identical timestamps break ties by insertion order", func(t *testing.T) {
		sess := createTestSession(ctx, t, sessionRepo)
		ts := time.Now().UTC().Truncate(time.Microsecond)

		for _, content := range []string{"a", "b", "c"} {
			m := &domain.ChatMessage{SessionID: sess.ID, Role: domain.MessageRoleUser, Content: content, CreatedAt: ts}
			require.NoError(t, messageRepo.Insert(ctx, m))
		}

		messages, err := messageRepo.ListBySession(ctx, sess.ID)
		require.NoError(t, err)
		require.Len(t, messages, 3)
		assert.Equal(t, "a", messages[0].Content)
		assert.Equal(t, "b", messages[1].Content)
		assert.Equal(t, "c", messages[2].Content)
	})

	t.Run("list recent returns the newest messages in chronological order", func(t *testing.T) {
		sess := createTestSession(ctx, t, sessionRepo)
		base := time.Now().UTC().Add(-time.Hour)

		for i := 0; i < 5; i++ {
			m := &domain.ChatMessage{
				SessionID: sess.ID,
				Role:      domain.MessageRoleUser,
				Content:   string(rune('a' + i)),
				CreatedAt: base.Add(time.Duration(i) * time.Second),
			}
			require.NoError(t, messageRepo.Insert(ctx, m))
		}

		messages, err := messageRepo.ListRecent(ctx, sess.ID, 3)
		require.NoError(t, err)
		require.Len(t, messages, 3)
		assert.Equal(t, "c", messages[0].Content)
		assert.Equal(t, "d", messages[1].Content)
		assert.Equal(t, "e", messages[2].Content)
	})

	t.Run("messages are isolated per session", func(t *testing.T) {
		sess1 := createTestSession(ctx, t, sessionRepo)
		sess2 := createTestSession(ctx, t, sessionRepo)

		require.NoError(t, messageRepo.Insert(ctx, domain.NewChatMessage(sess1.ID, domain.MessageRoleUser, "one")))
		require.NoError(t, messageRepo.Insert(ctx, domain.NewChatMessage(sess2.ID, domain.MessageRoleUser, "two")))

		messages, err := messageRepo.ListBySession(ctx, sess1.ID)
		require.NoError(t, err)
		require.Len(t, messages, 1)
		assert.Equal(t, "one", messages[0].Content)
	})

	t.Run("cursor pagination walks the whole history", func(t *testing.T) {
		sess := createTestSession(ctx, t, sessionRepo)
		base := time.Now().UTC().Add(-time.Hour)

		for i := 0; i < 5; i++ {
			m := &domain.ChatMessage{
				SessionID: sess.ID,
				Role:      domain.MessageRoleUser,
				Content:   string(rune('a' + i)),
				CreatedAt: base.Add(time.Duration(i) * time.Second),
			}
			require.NoError(t, messageRepo.Insert(ctx, m))
		}

		page1, err := messageRepo.ListBySessionWithCursor(ctx, sess.ID, nil, 2)
		require.NoError(t, err)
		require.Len(t, page1.Items, 2)
		assert.True(t, page1.HasMore)
		assert.Equal(t, "a", page1.Items[0].Content)
		assert.Equal(t, "b", page1.Items[1].Content)

		cursor, err := pagination.DecodeCursor(page1.NextCursor)
		require.NoError(t, err)

		page2, err := messageRepo.ListBySessionWithCursor(ctx, sess.ID, cursor, 2)
		require.NoError(t, err)
		require.Len(t, page2.Items, 2)
		assert.True(t, page2.HasMore)
		assert.Equal(t, "c", page2.Items[0].Content)
		assert.Equal(t, "d", page2.Items[1].Content)

		cursor2, err := pagination.DecodeCursor(page2.NextCursor)
		require.NoError(t, err)

		page3, err := messageRepo.ListBySessionWithCursor(ctx, sess.ID, cursor2, 2)
		require.NoError(t, err)
		require.Len(t, page3.Items, 1)
		assert.False(t, page3.HasMore)
		assert.Empty(t, page3.NextCursor)
		assert.Equal(t, "e", page3.Items[0].Content)
	})

	t.Run("transactional pair insert is atomic", func(t *testing.T) {
		sess := createTestSession(ctx, t, sessionRepo)
		runner := NewTxRunner(pool)

		userMsg := domain.NewChatMessage(sess.ID, domain.MessageRoleUser, "question")
		assistantMsg := domain.NewChatMessage(sess.ID, domain.MessageRoleAssistant, "answer")

		require.NoError(t, runner.WithTx(ctx, func(repos service.TxRepositories) error {
			if err := repos.Messages().Insert(ctx, userMsg); err != nil {
				return err
			}
			return repos.Messages().Insert(ctx, assistantMsg)
		}))

		messages, err := messageRepo.ListBySession(ctx, sess.ID)
		require.NoError(t, err)
		require.Len(t, messages, 2)
		assert.Equal(t, domain.MessageRoleUser, messages[0].Role)
		assert.Equal(t, domain.MessageRoleAssistant, messages[1].Role)
	})

	t.Run("transaction rollback leaves no partial pair", func(t *testing.T) {
		sess := createTestSession(ctx, t, sessionRepo)
		runner := NewTxRunner(pool)

		err := runner.WithTx(ctx, func(repos service.TxRepositories) error {
			if err := repos.Messages().Insert(ctx, domain.NewChatMessage(sess.ID, domain.MessageRoleUser, "question")); err != nil {
				return err
			}
			// Violates the role check constraint, forcing a rollback
			return repos.Messages().Insert(ctx, &domain.ChatMessage{
				SessionID: sess.ID,
				Role:      "system",
				Content:   "bad",
				CreatedAt: time.Now().UTC(),
			})
		})
		require.Error(t, err)

		messages, err := messageRepo.ListBySession(ctx, sess.ID)
		require.NoError(t, err)
		assert.Empty(t, messages)
	})
}
