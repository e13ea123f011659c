package types

import (
	"context"

	"github.com/clowder-framework/extractors-s2orc-pdf2text/internal/models"
)

// Core interfaces

// Encoder turns text into subword ids without special markers. Markers
// returns the ids placed before and after every encoded sentence.
type Encoder interface {
	Encode(text string) []int
	Markers() (begin, end int)
}

type Embedder interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

type RowStore interface {
	Store(ctx context.Context, rows []models.SentenceRow) error
	ByFile(ctx context.Context, file string) ([]models.SentenceRow, error)
	Query(ctx context.Context, embedding []float32, limit int) ([]models.SentenceRow, error)
	Close()
}

type Processor interface {
	Process(docs []models.Document) ([]models.ProcessedDocument, error)
	ProcessDocument(doc models.Document) (models.ProcessedDocument, error)
}
