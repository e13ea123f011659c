package llm_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clowder-framework/extractors-s2orc-pdf2text/internal/models"
	"github.com/clowder-framework/extractors-s2orc-pdf2text/pkg/llm"
)

type fakeEmbedder struct {
	calls [][]string
	err   error
	short bool
}

func (f *fakeEmbedder) CreateEmbedding(_ context.Context, texts []string) ([][]float32, error) {
	f.calls = append(f.calls, texts)
	if f.err != nil {
		return nil, f.err
	}
	n := len(texts)
	if f.short {
		n--
	}
	out := make([][]float32, n)
	for i := range out {
		out[i] = []float32{float32(len(texts[i])), 1}
	}
	return out, nil
}

func rows(sentences ...string) []models.SentenceRow {
	out := make([]models.SentenceRow, len(sentences))
	for i, s := range sentences {
		out[i] = models.SentenceRow{File: "doc", Sentence: s}
	}
	return out
}

func TestNewEmbedderWithConfig(t *testing.T) {
	emb, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:   "nomic-embed-text:latest",
		BaseURL: "http://localhost:11434",
	})
	require.NoError(t, err)
	assert.NotNil(t, emb)
}

func TestEmbedRows(t *testing.T) {
	fake := &fakeEmbedder{}
	emb, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{BatchSize: 2, RateLimit: 1000, Client: fake})
	require.NoError(t, err)

	table := rows("Title", "", "abc", "de", "", "f")
	require.NoError(t, emb.EmbedRows(context.Background(), table))

	assert.Equal(t, [][]string{{"Title", "abc"}, {"de", "f"}}, fake.calls)
	assert.Equal(t, []float32{5, 1}, table[0].Embedding)
	assert.Nil(t, table[1].Embedding)
	assert.Equal(t, []float32{3, 1}, table[2].Embedding)
	assert.Equal(t, []float32{2, 1}, table[3].Embedding)
	assert.Nil(t, table[4].Embedding)
	assert.Equal(t, []float32{1, 1}, table[5].Embedding)
}

func TestEmbedRowsNothingToSend(t *testing.T) {
	fake := &fakeEmbedder{}
	emb, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{Client: fake})
	require.NoError(t, err)

	require.NoError(t, emb.EmbedRows(context.Background(), rows("", "")))
	require.NoError(t, emb.EmbedRows(context.Background(), nil))
	assert.Empty(t, fake.calls)
}

func TestEmbedRowsErrors(t *testing.T) {
	boom := errors.New("ollama unavailable")

	tests := []struct {
		name  string
		fake  *fakeEmbedder
		ctx   func() context.Context
		check func(t *testing.T, err error)
	}{
		{
			name: "client error",
			fake: &fakeEmbedder{err: boom},
			ctx:  context.Background,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, boom)
			},
		},
		{
			name: "short response",
			fake: &fakeEmbedder{short: true},
			ctx:  context.Background,
			check: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "got 1 embeddings for 2 sentences")
			},
		},
		{
			name: "cancelled context",
			fake: &fakeEmbedder{},
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, context.Canceled)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emb, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{RateLimit: 1000, Client: tt.fake})
			require.NoError(t, err)

			table := rows("one", "two")
			err = emb.EmbedRows(tt.ctx(), table)
			require.Error(t, err)
			tt.check(t, err)
			assert.Nil(t, table[0].Embedding)
		})
	}
}

func TestCreateEmbeddingOllama(t *testing.T) {
	// Requires a running Ollama server with the embedding model pulled.
	baseURL := os.Getenv("OLLAMA_BASE_URL")
	if baseURL == "" {
		t.Skip("OLLAMA_BASE_URL not set")
	}

	emb, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{BaseURL: baseURL})
	require.NoError(t, err)

	table := rows("Span-aware extraction", "We conclude.")
	require.NoError(t, emb.EmbedRows(context.Background(), table))
	for _, row := range table {
		assert.Len(t, row.Embedding, 768)
	}
}
