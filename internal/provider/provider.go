// Package provider implements the embedding and completion capabilities on
// top of the configured vendor backend. The backend is chosen once at
// startup; callers only see the two interfaces.
package provider

import (
	"context"
	"fmt"

	"github.com/atlantislabs/atlantis/internal/config"
	"github.com/atlantislabs/atlantis/internal/domain"
)

// EmbeddingProvider maps text to fixed-length vectors.
type EmbeddingProvider interface {
	// EmbedDocuments embeds a batch of texts, order-preserving, one vector
	// per input.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	// EmbedQuery embeds a single query string.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// CompletionProvider maps a prompt to generated text. No retries are
// attempted here; retry policy belongs to the caller.
type CompletionProvider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// NewEmbeddingProvider builds the embedding backend selected by cfg.
func NewEmbeddingProvider(ctx context.Context, cfg *config.Config) (EmbeddingProvider, error) {
	switch cfg.EmbeddingProvider {
	case config.ProviderOpenAI:
		return newOpenAIProvider(cfg)
	case config.ProviderGemini:
		return newGeminiProvider(ctx, cfg)
	}
	return nil, domain.NewDomainErrorWithCause(domain.ErrCodeProviderConfig,
		"unsupported embedding provider", fmt.Errorf("provider %q", cfg.EmbeddingProvider))
}

// NewCompletionProvider builds the completion backend selected by cfg.
func NewCompletionProvider(ctx context.Context, cfg *config.Config) (CompletionProvider, error) {
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		return newOpenAIProvider(cfg)
	case config.ProviderGemini:
		return newGeminiProvider(ctx, cfg)
	}
	return nil, domain.NewDomainErrorWithCause(domain.ErrCodeProviderConfig,
		"unsupported completion provider", fmt.Errorf("provider %q", cfg.LLMProvider))
}

// validateDimensions rejects vectors whose size does not match the
// deployment's fixed dimensionality. Mismatches are never truncated or
// padded.
func validateDimensions(vec []float32, want int) error {
	if want > 0 && len(vec) != want {
		return domain.NewDomainErrorWithCause(domain.ErrCodeProviderError,
			"embedding has unexpected dimensionality",
			fmt.Errorf("got %d, expected %d", len(vec), want))
	}
	return nil
}
