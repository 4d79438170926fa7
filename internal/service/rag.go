package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atlantislabs/atlantis/internal/domain"
	"github.com/atlantislabs/atlantis/internal/provider"
	"github.com/atlantislabs/atlantis/internal/telemetry"
)

// Canned replies returned instead of calling a provider whose output is
// known unavailable.
const (
	ReplyNoEmbeddings   = "Documents uploaded successfully, but semantic search is disabled due to missing embeddings."
	ReplyLLMUnavailable = "LLM temporarily unavailable. Please try again later."
)

const promptPreamble = "You are a helpful assistant. Use the provided context and chat history to " +
	"answer the user's question. If the answer is not in the context, say you " +
	"don't know."

// RAGVectorStore defines the vector store operations the orchestrator needs.
type RAGVectorStore interface {
	HasReadyEmbeddings(ctx context.Context, sessionID string) (bool, error)
	SearchReady(ctx context.Context, sessionID string, vector []float32, k int) ([]string, error)
}

// RAGMessageRepository defines the history lookup the orchestrator needs.
type RAGMessageRepository interface {
	ListRecent(ctx context.Context, sessionID string, limit int) ([]*domain.ChatMessage, error)
}

// RAGConfig controls retrieval and history sizing.
type RAGConfig struct {
	ContextLimit int
	HistoryLimit int
}

// DefaultRAGConfig returns the default orchestrator configuration.
func DefaultRAGConfig() RAGConfig {
	return RAGConfig{
		ContextLimit: 4,
		HistoryLimit: 20,
	}
}

// RAGService composes retrieval, history, prompt construction, and the
// completion call into one answer-generation operation.
type RAGService struct {
	store     RAGVectorStore
	messages  RAGMessageRepository
	embedder  provider.EmbeddingProvider
	completer provider.CompletionProvider
	cfg       RAGConfig
}

// NewRAGService creates a new RAGService instance
func NewRAGService(
	store RAGVectorStore,
	messages RAGMessageRepository,
	embedder provider.EmbeddingProvider,
	completer provider.CompletionProvider,
	cfg RAGConfig,
) *RAGService {
	if cfg.ContextLimit <= 0 {
		cfg.ContextLimit = DefaultRAGConfig().ContextLimit
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = DefaultRAGConfig().HistoryLimit
	}
	return &RAGService{
		store:     store,
		messages:  messages,
		embedder:  embedder,
		completer: completer,
		cfg:       cfg,
	}
}

// GenerateReplyInput represents input for GenerateReply.
type GenerateReplyInput struct {
	SessionID string
	Message   string
	// History, when non-nil, is used verbatim instead of querying the
	// message repository. An empty non-nil slice means "no history".
	History []*domain.ChatMessage
}

// GenerateReplyResult is the produced reply. Degraded is true when a canned
// reply was returned instead of a model completion.
type GenerateReplyResult struct {
	Reply    string
	Degraded bool
}

// GenerateReply runs the answer-generation stages in order: context
// retrieval, history retrieval, prompt assembly, completion. When the
// session has no ready embeddings, generation is skipped entirely and a
// fixed degraded reply is returned without any provider call. Transient
// provider outages also degrade to a fixed reply; all other failures
// propagate to the caller.
func (s *RAGService) GenerateReply(ctx context.Context, input GenerateReplyInput) (*GenerateReplyResult, error) {
	query := strings.TrimSpace(input.Message)
	if query == "" {
		return nil, domain.ErrEmptyMessage
	}

	ctx, span := telemetry.StartSpan(ctx, "RAGService.GenerateReply", telemetry.SpanAttributes{
		SessionID: input.SessionID,
		Operation: "generate_reply",
	})
	defer span.End()

	hasReady, err := s.store.HasReadyEmbeddings(ctx, input.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to check embeddings: %w", err)
	}
	if !hasReady {
		return &GenerateReplyResult{Reply: ReplyNoEmbeddings, Degraded: true}, nil
	}

	contextChunks, err := s.retrieveContext(ctx, input.SessionID, query)
	if err != nil {
		if isProviderUnavailable(err) {
			return &GenerateReplyResult{Reply: ReplyLLMUnavailable, Degraded: true}, nil
		}
		return nil, err
	}

	history := input.History
	if history == nil {
		history, err = s.messages.ListRecent(ctx, input.SessionID, s.cfg.HistoryLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to load history: %w", err)
		}
	}

	prompt := buildPrompt(contextChunks, history, query)

	reply, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		if isProviderUnavailable(err) {
			return &GenerateReplyResult{Reply: ReplyLLMUnavailable, Degraded: true}, nil
		}
		span.SetError(err)
		return nil, err
	}

	return &GenerateReplyResult{Reply: reply}, nil
}

func (s *RAGService) retrieveContext(ctx context.Context, sessionID, query string) ([]string, error) {
	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	chunks, err := s.store.SearchReady(ctx, sessionID, vector, s.cfg.ContextLimit)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}
	return chunks, nil
}

// buildPrompt assembles the fixed-order prompt: instructions, retrieved
// context, chat history, then the raw user question.
func buildPrompt(contextChunks []string, history []*domain.ChatMessage, query string) string {
	contextText := "No relevant context."
	if len(contextChunks) > 0 {
		contextText = strings.Join(contextChunks, "\n\n")
	}

	historyText := "No prior messages."
	if len(history) > 0 {
		lines := make([]string, len(history))
		for i, m := range history {
			lines[i] = fmt.Sprintf("%s: %s", m.Role, m.Content)
		}
		historyText = strings.Join(lines, "\n")
	}

	var b strings.Builder
	b.WriteString(promptPreamble)
	b.WriteString("\n\n")
	b.WriteString("Context:\n")
	b.WriteString(contextText)
	b.WriteString("\n\n")
	b.WriteString("Chat history:\n")
	b.WriteString(historyText)
	b.WriteString("\n\n")
	b.WriteString("User question:\n")
	b.WriteString(query)
	b.WriteString("\n")
	return b.String()
}

func isProviderUnavailable(err error) bool {
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == domain.ErrCodeProviderUnavailable
	}
	return false
}
