package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Provider names recognized for embedding and completion backends.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Provider selection, resolved once at startup. EMBEDDING_PROVIDER falls
	// back to LLM_PROVIDER when unset.
	LLMProvider       string `envconfig:"LLM_PROVIDER" default:"openai"`
	EmbeddingProvider string `envconfig:"EMBEDDING_PROVIDER"`

	OpenAIAPIKey          string `envconfig:"OPENAI_API_KEY"`
	OpenAIEmbeddingModel  string `envconfig:"OPENAI_EMBEDDING_MODEL" default:"text-embedding-3-small"`
	OpenAICompletionModel string `envconfig:"OPENAI_COMPLETION_MODEL" default:"gpt-4o-mini"`

	GeminiAPIKey          string `envconfig:"GEMINI_API_KEY"`
	GeminiEmbeddingModel  string `envconfig:"GEMINI_EMBEDDING_MODEL" default:"gemini-embedding-001"`
	GeminiCompletionModel string `envconfig:"GEMINI_COMPLETION_MODEL" default:"gemini-2.0-flash"`

	// EmbeddingDimensions fixes the vector size for the deployment. Vectors
	// of any other size are rejected, never truncated or padded.
	EmbeddingDimensions int `envconfig:"EMBEDDING_DIMENSIONS" default:"1536"`

	ProviderTimeout time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"45s"`

	ChunkSize    int `envconfig:"CHUNK_SIZE" default:"1000"`
	ChunkOverlap int `envconfig:"CHUNK_OVERLAP" default:"200"`

	ContextLimit int `envconfig:"CONTEXT_LIMIT" default:"4"`
	HistoryLimit int `envconfig:"HISTORY_LIMIT" default:"20"`

	// Poll interval for the pending-embedding backfill worker. Zero disables it.
	BackfillInterval time.Duration `envconfig:"BACKFILL_INTERVAL" default:"30s"`

	// Optional S3-compatible archive for raw uploads.
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"atlantis-documents"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("ATLANTIS", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if cfg.EmbeddingProvider == "" {
		cfg.EmbeddingProvider = cfg.LLMProvider
	}
	cfg.LLMProvider = strings.ToLower(cfg.LLMProvider)
	cfg.EmbeddingProvider = strings.ToLower(cfg.EmbeddingProvider)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// Validate checks cross-field constraints that envconfig tags cannot express.
func (c *Config) Validate() error {
	if !isKnownProvider(c.LLMProvider) {
		return fmt.Errorf("unsupported LLM_PROVIDER: %s", c.LLMProvider)
	}
	if !isKnownProvider(c.EmbeddingProvider) {
		return fmt.Errorf("unsupported EMBEDDING_PROVIDER: %s", c.EmbeddingProvider)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP (%d) must be smaller than CHUNK_SIZE (%d)", c.ChunkOverlap, c.ChunkSize)
	}
	if c.EmbeddingDimensions <= 0 {
		return fmt.Errorf("EMBEDDING_DIMENSIONS must be positive")
	}
	return nil
}

func isKnownProvider(name string) bool {
	return name == ProviderOpenAI || name == ProviderGemini
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

// ProviderAPIKey returns the credential for the named provider.
func (c *Config) ProviderAPIKey(name string) string {
	switch name {
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	case ProviderGemini:
		return c.GeminiAPIKey
	}
	return ""
}

// HasProviders reports whether both selected providers have credentials.
func (c *Config) HasProviders() bool {
	return c.ProviderAPIKey(c.EmbeddingProvider) != "" && c.ProviderAPIKey(c.LLMProvider) != ""
}
