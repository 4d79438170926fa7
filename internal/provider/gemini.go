package provider

import (
	"context"
	"time"

	"google.golang.org/genai"

	"github.com/atlantislabs/atlantis/internal/config"
	"github.com/atlantislabs/atlantis/internal/domain"
)

// geminiProvider implements EmbeddingProvider and CompletionProvider on the
// Gemini API. The output dimensionality is pinned to the deployment's fixed
// vector size so both vendors store compatible vectors.
type geminiProvider struct {
	client          *genai.Client
	embeddingModel  string
	completionModel string
	dimensions      int
	timeout         time.Duration
}

func newGeminiProvider(ctx context.Context, cfg *config.Config) (*geminiProvider, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, domain.NewDomainError(domain.ErrCodeProviderConfig, "GEMINI_API_KEY is not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeProviderConfig, "failed to create Gemini client", err)
	}

	return &geminiProvider{
		client:          client,
		embeddingModel:  cfg.GeminiEmbeddingModel,
		completionModel: cfg.GeminiCompletionModel,
		dimensions:      cfg.EmbeddingDimensions,
		timeout:         cfg.ProviderTimeout,
	}, nil
}

func (p *geminiProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := withCallTimeout(ctx, p.timeout)
	defer cancel()

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	dim := int32(p.dimensions)
	resp, err := p.client.Models.EmbedContent(ctx, p.embeddingModel, contents, &genai.EmbedContentConfig{
		OutputDimensionality: &dim,
	})
	if err != nil {
		return nil, Classify(err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, domain.NewDomainError(domain.ErrCodeProviderError, "embedding count does not match input count")
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		if err := validateDimensions(e.Values, p.dimensions); err != nil {
			return nil, err
		}
		vectors[i] = e.Values
	}
	return vectors, nil
}

func (p *geminiProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (p *geminiProvider) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := withCallTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.Models.GenerateContent(ctx, p.completionModel, genai.Text(prompt), nil)
	if err != nil {
		return "", Classify(err)
	}

	text := resp.Text()
	if text == "" {
		return "", domain.NewDomainError(domain.ErrCodeProviderError, "empty completion response")
	}
	return text, nil
}
