package processor

import (
	"encoding/json"
	"fmt"

	"github.com/clowder-framework/extractors-s2orc-pdf2text/pkg/document"
	"github.com/clowder-framework/extractors-s2orc-pdf2text/pkg/extract"
)

// ExtractText returns the title followed by every value stored under the
// configured lookup key, first in the abstract and then in the body text.
// Spans are not removed on this path.
func (p *Processor) ExtractText(raw any) ([]string, error) {
	parsed, err := document.Parse(raw)
	if err != nil {
		return nil, err
	}

	pdfParse, _ := raw.(document.Object).Get("pdf_parse")
	output := []string{parsed.Title}
	for _, key := range []string{"abstract", "body_text"} {
		data, _ := pdfParse.(document.Object).Get(key)
		for v := range extract.Values(data, p.config.LookupKey, p.config.Traversal) {
			s, err := stringify(v)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			output = append(output, s)
		}
	}
	return output, nil
}

func stringify(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
