package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms/ollama"
	"golang.org/x/time/rate"

	"github.com/clowder-framework/extractors-s2orc-pdf2text/internal/models"
	"github.com/clowder-framework/extractors-s2orc-pdf2text/internal/types"
)

// EmbedderConfig represents the configuration for sentence embeddings.
type EmbedderConfig struct {
	Model     string
	BaseURL   string // Ollama server URL
	BatchSize int
	// RateLimit is the number of embedding requests allowed per second.
	RateLimit float64
	// Client replaces the Ollama client, mostly for tests.
	Client types.Embedder
}

// Embedder fills the embedding column of sentence rows.
type Embedder struct {
	config  EmbedderConfig
	client  types.Embedder
	limiter *rate.Limiter
}

func NewEmbedderWithConfig(config EmbedderConfig) (*Embedder, error) {
	if config.Model == "" {
		config.Model = "nomic-embed-text:latest" // Default Ollama model
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434" // Default Ollama URL
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 32
	}
	if config.RateLimit <= 0 {
		config.RateLimit = 5
	}

	client := config.Client
	if client == nil {
		emb, err := ollama.New(ollama.WithModel(config.Model), ollama.WithServerURL(config.BaseURL))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize LLM: %w", err)
		}
		client = emb
	}

	return &Embedder{
		config:  config,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}, nil
}

func NewEmbedder() (*Embedder, error) {
	return NewEmbedderWithConfig(EmbedderConfig{})
}

// CreateEmbedding embeds texts in one rate-limited request.
func (e *Embedder) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	embeddings, err := e.client.CreateEmbedding(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("got %d embeddings for %d sentences", len(embeddings), len(texts))
	}
	return embeddings, nil
}

// EmbedRows sets Embedding on every row with a non-empty sentence. Rows are
// sent in batches of BatchSize; empty sentences keep a nil embedding.
func (e *Embedder) EmbedRows(ctx context.Context, rows []models.SentenceRow) error {
	var pending []int
	for i := range rows {
		if rows[i].Sentence != "" {
			pending = append(pending, i)
		}
	}

	for start := 0; start < len(pending); start += e.config.BatchSize {
		end := min(start+e.config.BatchSize, len(pending))
		batch := pending[start:end]

		texts := make([]string, len(batch))
		for j, idx := range batch {
			texts[j] = rows[idx].Sentence
		}

		embeddings, err := e.CreateEmbedding(ctx, texts)
		if err != nil {
			return fmt.Errorf("embedding rows %d-%d: %w", batch[0], batch[len(batch)-1], err)
		}
		for j, idx := range batch {
			rows[idx].Embedding = embeddings[j]
		}
	}
	return nil
}
