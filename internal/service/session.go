package service

import (
	"context"
	"errors"
	"time"

	"github.com/atlantislabs/atlantis/internal/domain"
	"github.com/atlantislabs/atlantis/internal/pagination"
	"github.com/atlantislabs/atlantis/internal/telemetry"
	"github.com/google/uuid"
)

// SessionRepositoryInterface defines the repository interface for session persistence
type SessionRepositoryInterface interface {
	Create(ctx context.Context, s *domain.Session) error
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	List(ctx context.Context) ([]*domain.Session, error)
	Delete(ctx context.Context, id string) error
}

// MessageRepositoryInterface defines the repository interface for chat message persistence
type MessageRepositoryInterface interface {
	Insert(ctx context.Context, m *domain.ChatMessage) error
	ListBySession(ctx context.Context, sessionID string) ([]*domain.ChatMessage, error)
	ListRecent(ctx context.Context, sessionID string, limit int) ([]*domain.ChatMessage, error)
	ListBySessionWithCursor(ctx context.Context, sessionID string, cursor *pagination.Cursor, limit int) (*MessagePageResult, error)
}

type MessagePageResult struct {
	Items      []*domain.ChatMessage
	NextCursor string
	HasMore    bool
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// SessionService handles business logic for conversation sessions
type SessionService struct {
	sessions SessionRepositoryInterface
	messages MessageRepositoryInterface
	uuidGen  UUIDGenerator
}

// NewSessionService creates a new SessionService instance
func NewSessionService(
	sessions SessionRepositoryInterface,
	messages MessageRepositoryInterface,
) *SessionService {
	return &SessionService{
		sessions: sessions,
		messages: messages,
		uuidGen:  &DefaultUUIDGenerator{},
	}
}

// NewSessionServiceWithUUIDGen creates a new SessionService with custom UUID generator (for testing)
func NewSessionServiceWithUUIDGen(
	sessions SessionRepositoryInterface,
	messages MessageRepositoryInterface,
	uuidGen UUIDGenerator,
) *SessionService {
	return &SessionService{
		sessions: sessions,
		messages: messages,
		uuidGen:  uuidGen,
	}
}

// Create creates a new session with a generated identifier
func (s *SessionService) Create(ctx context.Context) (*domain.Session, error) {
	sess := &domain.Session{
		ID:        s.uuidGen.NewString(),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// GetOrCreate returns the session with the given id, creating it on demand.
// An empty id creates a fresh session with a generated identifier. A
// supplied id must be a valid UUID; if no such session exists one is
// created under that id so a client can resume a conversation it named.
func (s *SessionService) GetOrCreate(ctx context.Context, id string) (*domain.Session, error) {
	if id == "" {
		return s.Create(ctx)
	}

	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrInvalidSessionID
	}

	sess, err := s.sessions.GetByID(ctx, id)
	if err == nil {
		return sess, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	sess = &domain.Session{
		ID:        id,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Get retrieves a session by ID
func (s *SessionService) Get(ctx context.Context, id string) (*domain.Session, error) {
	return s.sessions.GetByID(ctx, id)
}

// List retrieves all sessions, newest first
func (s *SessionService) List(ctx context.Context) ([]*domain.Session, error) {
	return s.sessions.List(ctx)
}

// Delete removes a session together with its messages and chunks
func (s *SessionService) Delete(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "SessionService.Delete", telemetry.SpanAttributes{
		SessionID: id,
		Operation: "delete",
	})
	defer span.End()

	return s.sessions.Delete(ctx, id)
}

// ListMessagesInput represents the input for listing messages of a session
type ListMessagesInput struct {
	SessionID string
	Cursor    string
	Limit     int
}

// ListMessagesOutput is one page of a session's messages in chronological order
type ListMessagesOutput struct {
	Items   []*domain.ChatMessage
	Cursor  string
	HasMore bool
}

// ListMessages returns one page of the session's messages, oldest first
func (s *SessionService) ListMessages(ctx context.Context, input ListMessagesInput) (*ListMessagesOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "SessionService.ListMessages", telemetry.SpanAttributes{
		SessionID: input.SessionID,
		Operation: "list_messages",
	})
	defer span.End()

	if _, err := s.sessions.GetByID(ctx, input.SessionID); err != nil {
		return nil, err
	}

	cursor, err := pagination.DecodeCursor(input.Cursor)
	if err != nil {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "invalid cursor")
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	result, err := s.messages.ListBySessionWithCursor(ctx, input.SessionID, cursor, limit)
	if err != nil {
		return nil, err
	}

	return &ListMessagesOutput{
		Items:   result.Items,
		Cursor:  result.NextCursor,
		HasMore: result.HasMore,
	}, nil
}

func isNotFound(err error) bool {
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == domain.ErrCodeNotFound
	}
	return false
}
