package service

import (
	"context"

	"github.com/atlantislabs/atlantis/internal/domain"
	"github.com/atlantislabs/atlantis/internal/pagination"
	"github.com/stretchr/testify/mock"
)

// MockSessionRepository is a mock implementation of SessionRepositoryInterface
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context, s *domain.Session) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSessionRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockSessionRepository) List(ctx context.Context) ([]*domain.Session, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Session), args.Error(1)
}

func (m *MockSessionRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockMessageRepository is a mock implementation of MessageRepositoryInterface
type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Insert(ctx context.Context, msg *domain.ChatMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockMessageRepository) ListBySession(ctx context.Context, sessionID string) ([]*domain.ChatMessage, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ChatMessage), args.Error(1)
}

func (m *MockMessageRepository) ListRecent(ctx context.Context, sessionID string, limit int) ([]*domain.ChatMessage, error) {
	args := m.Called(ctx, sessionID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ChatMessage), args.Error(1)
}

func (m *MockMessageRepository) ListBySessionWithCursor(ctx context.Context, sessionID string, cursor *pagination.Cursor, limit int) (*MessagePageResult, error) {
	args := m.Called(ctx, sessionID, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*MessagePageResult), args.Error(1)
}

// MockChunkRepository is a mock implementation of ChunkRepositoryInterface
type MockChunkRepository struct {
	mock.Mock
}

func (m *MockChunkRepository) InsertBatch(ctx context.Context, chunks []*domain.DocumentChunk) error {
	args := m.Called(ctx, chunks)
	return args.Error(0)
}

func (m *MockChunkRepository) HasReadyEmbeddings(ctx context.Context, sessionID string) (bool, error) {
	args := m.Called(ctx, sessionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockChunkRepository) SearchReady(ctx context.Context, sessionID string, vector []float32, k int) ([]string, error) {
	args := m.Called(ctx, sessionID, vector, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockChunkRepository) CountByStatus(ctx context.Context, sessionID string) (int, int, error) {
	args := m.Called(ctx, sessionID)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *MockChunkRepository) ListPending(ctx context.Context, limit int) ([]*domain.DocumentChunk, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.DocumentChunk), args.Error(1)
}

func (m *MockChunkRepository) MarkReady(ctx context.Context, id int64, vector []float32) error {
	args := m.Called(ctx, id, vector)
	return args.Error(0)
}

// MockEmbeddingProvider is a mock implementation of provider.EmbeddingProvider
type MockEmbeddingProvider struct {
	mock.Mock
}

func (m *MockEmbeddingProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

func (m *MockEmbeddingProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

// MockCompletionProvider is a mock implementation of provider.CompletionProvider
type MockCompletionProvider struct {
	mock.Mock
}

func (m *MockCompletionProvider) Complete(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// MockSessionProvider is a mock implementation of SessionProvider
type MockSessionProvider struct {
	mock.Mock
}

func (m *MockSessionProvider) GetOrCreate(ctx context.Context, id string) (*domain.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

// MockReplyGenerator is a mock implementation of ReplyGenerator
type MockReplyGenerator struct {
	mock.Mock
}

func (m *MockReplyGenerator) GenerateReply(ctx context.Context, input GenerateReplyInput) (*GenerateReplyResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*GenerateReplyResult), args.Error(1)
}

// MockDocumentArchive is a mock implementation of DocumentArchive
type MockDocumentArchive struct {
	mock.Mock
}

func (m *MockDocumentArchive) Store(ctx context.Context, sessionID, filename string, data []byte) (string, error) {
	args := m.Called(ctx, sessionID, filename, data)
	return args.String(0), args.Error(1)
}

// MockUUIDGenerator returns a fixed sequence of identifiers
type MockUUIDGenerator struct {
	callCount int
	uuids     []string
}

func NewMockUUIDGenerator(uuids ...string) *MockUUIDGenerator {
	return &MockUUIDGenerator{uuids: uuids}
}

func (m *MockUUIDGenerator) NewString() string {
	if m.callCount < len(m.uuids) {
		id := m.uuids[m.callCount]
		m.callCount++
		return id
	}
	return "default-uuid"
}

// stubTxRunner runs the callback against repositories without a real
// transaction, recording that a commit was attempted.
type stubTxRunner struct {
	messages MessageRepositoryInterface
	chunks   ChunkRepositoryInterface
	calls    int
	err      error
}

func (r *stubTxRunner) WithTx(ctx context.Context, fn func(repos TxRepositories) error) error {
	r.calls++
	if r.err != nil {
		return r.err
	}
	return fn(&stubTxRepos{messages: r.messages, chunks: r.chunks})
}

type stubTxRepos struct {
	messages MessageRepositoryInterface
	chunks   ChunkRepositoryInterface
}

func (r *stubTxRepos) Messages() MessageRepositoryInterface { return r.messages }
func (r *stubTxRepos) Chunks() ChunkRepositoryInterface     { return r.chunks }
