package processor

import (
	"fmt"

	"github.com/clowder-framework/extractors-s2orc-pdf2text/internal/models"
)

// BuildTable returns one row for the title and one per abstract and body
// paragraph, in document order, with the context columns filled.
//
// Paragraphs that arrive split into sentences give one row per sentence,
// carrying the sentence coordinates as is; their span offsets refer to the
// unsplit paragraph and are not applied.
func (p *Processor) BuildTable(file string, doc *models.ParsedDocument) ([]models.SentenceRow, error) {
	rows := []models.SentenceRow{{
		File:     file,
		Section:  models.TitleSection,
		Sentence: doc.Title,
	}}

	for _, part := range parts(doc) {
		for i, para := range part.paragraphs {
			if para.Segmented() {
				for _, s := range para.Sentences {
					rows = append(rows, models.SentenceRow{
						File:        file,
						Section:     para.Section,
						Sentence:    s.Text,
						Coordinates: s.Coords,
					})
				}
				continue
			}

			sentence := para.Text
			if !p.config.RawSentences {
				var err error
				sentence, err = p.excisor.Paragraph(para)
				if err != nil {
					return nil, fmt.Errorf("%s[%d]: %w", part.name, i, err)
				}
			}
			rows = append(rows, models.SentenceRow{
				File:        file,
				Section:     para.Section,
				Sentence:    sentence,
				Coordinates: para.Coords,
			})
		}
	}

	AttachContext(rows)
	return rows, nil
}

// AttachContext sets each row's previous and next sentence from its
// neighbours in table order, across section and part boundaries.
func AttachContext(rows []models.SentenceRow) {
	for i := range rows {
		rows[i].PrevSentence = ""
		rows[i].NextSentence = ""
		if i > 0 {
			rows[i].PrevSentence = rows[i-1].Sentence
		}
		if i < len(rows)-1 {
			rows[i].NextSentence = rows[i+1].Sentence
		}
	}
}
