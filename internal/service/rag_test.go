package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/atlantislabs/atlantis/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestRAGService(
	chunks *MockChunkRepository,
	messages *MockMessageRepository,
	embedder *MockEmbeddingProvider,
	completer *MockCompletionProvider,
) *RAGService {
	return NewRAGService(chunks, messages, embedder, completer, DefaultRAGConfig())
}

func TestRAGService_GenerateReply(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects empty message before any lookup", func(t *testing.T) {
		chunks := new(MockChunkRepository)
		messages := new(MockMessageRepository)
		embedder := new(MockEmbeddingProvider)
		completer := new(MockCompletionProvider)

		service := newTestRAGService(chunks, messages, embedder, completer)

		_, err := service.GenerateReply(ctx, GenerateReplyInput{SessionID: "session-1", Message: "   \n\t "})

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrEmptyMessage)
		chunks.AssertNotCalled(t, "HasReadyEmbeddings", mock.Anything, mock.Anything)
	})

	t.Run("returns fixed degraded reply without provider calls when no ready embeddings", func(t *testing.T) {
		chunks := new(MockChunkRepository)
		messages := new(MockMessageRepository)
		embedder := new(MockEmbeddingProvider)
		completer := new(MockCompletionProvider)

		chunks.On("HasReadyEmbeddings", mock.Anything, "session-1").Return(false, nil)

		service := newTestRAGService(chunks, messages, embedder, completer)

		result, err := service.GenerateReply(ctx, GenerateReplyInput{SessionID: "session-1", Message: "what is this about?"})

		require.NoError(t, err)
		assert.Equal(t, ReplyNoEmbeddings, result.Reply)
		assert.True(t, result.Degraded)
		embedder.AssertNotCalled(t, "EmbedQuery", mock.Anything, mock.Anything)
		completer.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
		chunks.AssertExpectations(t)
	})

	t.Run("generates reply from retrieved context and history", func(t *testing.T) {
		chunks := new(MockChunkRepository)
		messages := new(MockMessageRepository)
		embedder := new(MockEmbeddingProvider)
		completer := new(MockCompletionProvider)

		queryVector := []float32{0.1, 0.2, 0.3}
		history := []*domain.ChatMessage{
			{SessionID: "session-1", Role: domain.MessageRoleUser, Content: "hello"},
			{SessionID: "session-1", Role: domain.MessageRoleAssistant, Content: "hi there"},
		}

		chunks.On("HasReadyEmbeddings", mock.Anything, "session-1").Return(true, nil)
		embedder.On("EmbedQuery", mock.Anything, "what is the refund policy?").Return(queryVector, nil)
		chunks.On("SearchReady", mock.Anything, "session-1", queryVector, 4).
			Return([]string{"Refunds are granted within 30 days.", "Contact support to start a refund."}, nil)
		messages.On("ListRecent", mock.Anything, "session-1", 20).Return(history, nil)
		completer.On("Complete", mock.Anything, mock.MatchedBy(func(prompt string) bool {
			return strings.Contains(prompt, "Refunds are granted within 30 days.") &&
				strings.Contains(prompt, "user: hello") &&
				strings.Contains(prompt, "assistant: hi there") &&
				strings.Contains(prompt, "User question:\nwhat is the refund policy?")
		})).Return("Refunds are granted within 30 days of purchase.", nil)

		service := newTestRAGService(chunks, messages, embedder, completer)

		result, err := service.GenerateReply(ctx, GenerateReplyInput{SessionID: "session-1", Message: "what is the refund policy?"})

		require.NoError(t, err)
		assert.Equal(t, "Refunds are granted within 30 days of purchase.", result.Reply)
		assert.False(t, result.Degraded)
		chunks.AssertExpectations(t)
		embedder.AssertExpectations(t)
		messages.AssertExpectations(t)
		completer.AssertExpectations(t)
	})

	t.Run("uses supplied history verbatim instead of querying", func(t *testing.T) {
		chunks := new(MockChunkRepository)
		messages := new(MockMessageRepository)
		embedder := new(MockEmbeddingProvider)
		completer := new(MockCompletionProvider)

		chunks.On("HasReadyEmbeddings", mock.Anything, "session-1").Return(true, nil)
		embedder.On("EmbedQuery", mock.Anything, "next question").Return([]float32{0.5}, nil)
		chunks.On("SearchReady", mock.Anything, "session-1", []float32{0.5}, 4).Return([]string{"chunk"}, nil)
		completer.On("Complete", mock.Anything, mock.MatchedBy(func(prompt string) bool {
			return strings.Contains(prompt, "No prior messages.")
		})).Return("answer", nil)

		service := newTestRAGService(chunks, messages, embedder, completer)

		result, err := service.GenerateReply(ctx, GenerateReplyInput{
			SessionID: "session-1",
			Message:   "next question",
			History:   []*domain.ChatMessage{},
		})

		require.NoError(t, err)
		assert.Equal(t, "answer", result.Reply)
		messages.AssertNotCalled(t, "ListRecent", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("degrades to fixed reply when query embedding is transiently unavailable", func(t *testing.T) {
		chunks := new(MockChunkRepository)
		messages := new(MockMessageRepository)
		embedder := new(MockEmbeddingProvider)
		completer := new(MockCompletionProvider)

		chunks.On("HasReadyEmbeddings", mock.Anything, "session-1").Return(true, nil)
		embedder.On("EmbedQuery", mock.Anything, "question").Return(nil, domain.ErrProviderUnavailable)

		service := newTestRAGService(chunks, messages, embedder, completer)

		result, err := service.GenerateReply(ctx, GenerateReplyInput{SessionID: "session-1", Message: "question"})

		require.NoError(t, err)
		assert.Equal(t, ReplyLLMUnavailable, result.Reply)
		assert.True(t, result.Degraded)
		completer.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
	})

	t.Run("degrades to fixed reply when completion is transiently unavailable", func(t *testing.T) {
		chunks := new(MockChunkRepository)
		messages := new(MockMessageRepository)
		embedder := new(MockEmbeddingProvider)
		completer := new(MockCompletionProvider)

		chunks.On("HasReadyEmbeddings", mock.Anything, "session-1").Return(true, nil)
		embedder.On("EmbedQuery", mock.Anything, "question").Return([]float32{0.5}, nil)
		chunks.On("SearchReady", mock.Anything, "session-1", []float32{0.5}, 4).Return([]string{"chunk"}, nil)
		messages.On("ListRecent", mock.Anything, "session-1", 20).Return([]*domain.ChatMessage{}, nil)
		completer.On("Complete", mock.Anything, mock.Anything).Return("", domain.ErrProviderUnavailable)

		service := newTestRAGService(chunks, messages, embedder, completer)

		result, err := service.GenerateReply(ctx, GenerateReplyInput{SessionID: "session-1", Message: "question"})

		require.NoError(t, err)
		assert.Equal(t, ReplyLLMUnavailable, result.Reply)
		assert.True(t, result.Degraded)
	})

	t.Run("propagates fatal provider configuration errors", func(t *testing.T) {
		chunks := new(MockChunkRepository)
		messages := new(MockMessageRepository)
		embedder := new(MockEmbeddingProvider)
		completer := new(MockCompletionProvider)

		chunks.On("HasReadyEmbeddings", mock.Anything, "session-1").Return(true, nil)
		embedder.On("EmbedQuery", mock.Anything, "question").Return(nil, domain.ErrProviderConfig)

		service := newTestRAGService(chunks, messages, embedder, completer)

		_, err := service.GenerateReply(ctx, GenerateReplyInput{SessionID: "session-1", Message: "question"})

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrProviderConfig)
	})

	t.Run("propagates store failures", func(t *testing.T) {
		chunks := new(MockChunkRepository)
		messages := new(MockMessageRepository)
		embedder := new(MockEmbeddingProvider)
		completer := new(MockCompletionProvider)

		storeErr := errors.New("connection lost")
		chunks.On("HasReadyEmbeddings", mock.Anything, "session-1").Return(false, storeErr)

		service := newTestRAGService(chunks, messages, embedder, completer)

		_, err := service.GenerateReply(ctx, GenerateReplyInput{SessionID: "session-1", Message: "question"})

		require.Error(t, err)
		assert.ErrorIs(t, err, storeErr)
	})
}

func TestBuildPrompt(t *testing.T) {
	t.Run("orders sections as instructions, context, history, question", func(t *testing.T) {
		prompt := buildPrompt(
			[]string{"first chunk", "second chunk"},
			[]*domain.ChatMessage{{Role: domain.MessageRoleUser, Content: "earlier question"}},
			"current question",
		)

		ctxIdx := strings.Index(prompt, "Context:")
		histIdx := strings.Index(prompt, "Chat history:")
		questionIdx := strings.Index(prompt, "User question:")

		assert.True(t, strings.HasPrefix(prompt, promptPreamble))
		assert.Greater(t, histIdx, ctxIdx)
		assert.Greater(t, questionIdx, histIdx)
		assert.Contains(t, prompt, "first chunk\n\nsecond chunk")
		assert.Contains(t, prompt, "user: earlier question")
		assert.True(t, strings.HasSuffix(prompt, "current question\n"))
	})

	t.Run("uses placeholders for missing context and history", func(t *testing.T) {
		prompt := buildPrompt(nil, nil, "q")

		assert.Contains(t, prompt, "Context:\nNo relevant context.")
		assert.Contains(t, prompt, "Chat history:\nNo prior messages.")
	})
}
