package provider

import (
	"context"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/atlantislabs/atlantis/internal/config"
	"github.com/atlantislabs/atlantis/internal/domain"
)

// openAIProvider implements EmbeddingProvider and CompletionProvider on the
// OpenAI API.
type openAIProvider struct {
	client          *openai.Client
	embeddingModel  openai.EmbeddingModel
	completionModel string
	dimensions      int
	timeout         time.Duration
}

func newOpenAIProvider(cfg *config.Config) (*openAIProvider, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, domain.NewDomainError(domain.ErrCodeProviderConfig, "OPENAI_API_KEY is not set")
	}
	return &openAIProvider{
		client:          openai.NewClient(cfg.OpenAIAPIKey),
		embeddingModel:  openai.EmbeddingModel(cfg.OpenAIEmbeddingModel),
		completionModel: cfg.OpenAICompletionModel,
		dimensions:      cfg.EmbeddingDimensions,
		timeout:         cfg.ProviderTimeout,
	}, nil
}

func (p *openAIProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := withCallTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      texts,
		Model:      p.embeddingModel,
		Dimensions: p.dimensions,
	})
	if err != nil {
		return nil, Classify(err)
	}
	if len(resp.Data) != len(texts) {
		return nil, domain.NewDomainError(domain.ErrCodeProviderError, "embedding count does not match input count")
	}

	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		if err := validateDimensions(d.Embedding, p.dimensions); err != nil {
			return nil, err
		}
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

func (p *openAIProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (p *openAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := withCallTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.completionModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", Classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", domain.NewDomainError(domain.ErrCodeProviderError, "no completion choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// withCallTimeout bounds a single provider call so a slow upstream cannot
// hold a request indefinitely.
func withCallTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
