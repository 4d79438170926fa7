package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/atlantislabs/atlantis/internal/domain"
	"github.com/atlantislabs/atlantis/internal/telemetry"
)

// SessionProvider resolves or creates the session a chat turn belongs to.
type SessionProvider interface {
	GetOrCreate(ctx context.Context, id string) (*domain.Session, error)
}

// ReplyGenerator produces the assistant reply for one chat turn.
type ReplyGenerator interface {
	GenerateReply(ctx context.Context, input GenerateReplyInput) (*GenerateReplyResult, error)
}

// ChatService handles one full chat turn: session resolution, reply
// generation, and atomic persistence of the message pair.
type ChatService struct {
	sessions     SessionProvider
	messages     MessageRepositoryInterface
	rag          ReplyGenerator
	txRunner     TxRunner
	historyLimit int
}

// NewChatService creates a new ChatService instance
func NewChatService(
	sessions SessionProvider,
	messages MessageRepositoryInterface,
	rag ReplyGenerator,
	txRunner TxRunner,
	historyLimit int,
) *ChatService {
	if historyLimit <= 0 {
		historyLimit = DefaultRAGConfig().HistoryLimit
	}
	return &ChatService{
		sessions:     sessions,
		messages:     messages,
		rag:          rag,
		txRunner:     txRunner,
		historyLimit: historyLimit,
	}
}

// ChatInput represents one incoming chat turn
type ChatInput struct {
	SessionID string
	Message   string
}

// ChatOutput is the completed turn. SessionID is always set, including for
// sessions created on demand.
type ChatOutput struct {
	SessionID string
	Reply     string
	Degraded  bool
}

// HandleTurn validates the message, resolves the session (creating one when
// no id is supplied), generates a reply, and writes the user and assistant
// messages as one transaction. The reply text is persisted whether it came
// from the model or from a degraded fallback.
func (s *ChatService) HandleTurn(ctx context.Context, input ChatInput) (*ChatOutput, error) {
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, domain.ErrEmptyMessage
	}

	ctx, span := telemetry.StartSpan(ctx, "ChatService.HandleTurn", telemetry.SpanAttributes{
		SessionID: input.SessionID,
		Operation: "chat_turn",
	})
	defer span.End()

	sess, err := s.sessions.GetOrCreate(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}

	history, err := s.messages.ListRecent(ctx, sess.ID, s.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	if history == nil {
		history = []*domain.ChatMessage{}
	}

	result, err := s.rag.GenerateReply(ctx, GenerateReplyInput{
		SessionID: sess.ID,
		Message:   message,
		History:   history,
	})
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	userMsg := domain.NewChatMessage(sess.ID, domain.MessageRoleUser, message)
	assistantMsg := domain.NewChatMessage(sess.ID, domain.MessageRoleAssistant, result.Reply)

	err = s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		if err := repos.Messages().Insert(ctx, userMsg); err != nil {
			return err
		}
		return repos.Messages().Insert(ctx, assistantMsg)
	})
	if err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("failed to persist messages: %w", err)
	}

	return &ChatOutput{
		SessionID: sess.ID,
		Reply:     result.Reply,
		Degraded:  result.Degraded,
	}, nil
}
