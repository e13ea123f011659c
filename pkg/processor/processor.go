package processor

import (
	"fmt"

	"github.com/clowder-framework/extractors-s2orc-pdf2text/internal/models"
	"github.com/clowder-framework/extractors-s2orc-pdf2text/pkg/document"
	"github.com/clowder-framework/extractors-s2orc-pdf2text/pkg/excise"
	"github.com/clowder-framework/extractors-s2orc-pdf2text/pkg/extract"
	"github.com/clowder-framework/extractors-s2orc-pdf2text/pkg/tokenizer"
)

const (
	// TextSections linearizes title, section labels and excised paragraphs.
	TextSections = "sections"
	// TextLookup emits the title and every value under LookupKey.
	TextLookup = "lookup"
)

type ProcessorConfig struct {
	Excision  excise.ExcisorConfig
	TextMode  string
	LookupKey string
	Traversal extract.Mode
	// RawSentences keeps citation spans in the sentence column of the table.
	RawSentences bool
	// Tokenizer, when set, fills the tokenized_sentence column.
	Tokenizer *tokenizer.Tokenizer
}

type Processor struct {
	config  ProcessorConfig
	excisor excise.Excisor
}

func NewWithConfig(config ProcessorConfig) Processor {
	if config.TextMode == "" {
		config.TextMode = TextSections
	}
	if config.LookupKey == "" {
		config.LookupKey = "text"
	}
	if config.Traversal == "" {
		config.Traversal = extract.Deep
	}

	return Processor{
		config:  config,
		excisor: excise.NewWithConfig(config.Excision),
	}
}

func New() Processor {
	return NewWithConfig(ProcessorConfig{})
}

func (p *Processor) Process(docs []models.Document) ([]models.ProcessedDocument, error) {
	processed := make([]models.ProcessedDocument, 0, len(docs))

	for _, doc := range docs {
		processedDoc, err := p.ProcessDocument(doc)
		if err != nil {
			return nil, err
		}
		processed = append(processed, processedDoc)
	}

	return processed, nil
}

// ProcessDocument produces the text items and the sentence table of one
// document. Documents share no state, so callers may run this concurrently.
func (p *Processor) ProcessDocument(doc models.Document) (models.ProcessedDocument, error) {
	if doc.Parsed == nil {
		parsed, err := document.Parse(doc.Raw)
		if err != nil {
			return models.ProcessedDocument{}, fmt.Errorf("%s: %w", doc.File, err)
		}
		doc.Parsed = parsed
	}

	var text []string
	var err error
	if p.config.TextMode == TextLookup {
		text, err = p.ExtractText(doc.Raw)
	} else {
		text, err = p.Linearize(doc.Parsed)
	}
	if err != nil {
		return models.ProcessedDocument{}, fmt.Errorf("%s: %w", doc.File, err)
	}

	rows, err := p.BuildTable(doc.File, doc.Parsed)
	if err != nil {
		return models.ProcessedDocument{}, fmt.Errorf("%s: %w", doc.File, err)
	}
	if p.config.Tokenizer != nil {
		p.config.Tokenizer.Rows(rows)
	}

	return models.ProcessedDocument{
		Document: doc,
		Text:     text,
		Rows:     rows,
	}, nil
}
