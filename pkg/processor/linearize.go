package processor

import (
	"fmt"

	"github.com/clowder-framework/extractors-s2orc-pdf2text/internal/models"
)

type docPart struct {
	name       string
	paragraphs []models.Paragraph
}

func parts(doc *models.ParsedDocument) []docPart {
	return []docPart{
		{name: "abstract", paragraphs: doc.Abstract},
		{name: "body_text", paragraphs: doc.Body},
	}
}

// Linearize flattens a document into plain-text items: the title, then for
// every abstract and body paragraph whose excised text is not empty, its
// section label (the first time that label appears) followed by the text.
func (p *Processor) Linearize(doc *models.ParsedDocument) ([]string, error) {
	output := []string{doc.Title}
	seen := map[string]bool{}

	for _, part := range parts(doc) {
		for i, para := range part.paragraphs {
			text, err := p.excisor.Paragraph(para)
			if err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", part.name, i, err)
			}
			if text == "" {
				continue
			}
			if !seen[para.Section] {
				seen[para.Section] = true
				output = append(output, para.Section)
			}
			output = append(output, text)
		}
	}

	return output, nil
}
