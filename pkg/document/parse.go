package document

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/clowder-framework/extractors-s2orc-pdf2text/internal/models"
)

// Read decodes one parse JSON from r and validates it into a Document
// identified by file.
func Read(r io.Reader, file string) (models.Document, error) {
	raw, err := Decode(r)
	if err != nil {
		return models.Document{}, err
	}
	parsed, err := Parse(raw)
	if err != nil {
		return models.Document{}, err
	}
	return models.Document{File: file, Raw: raw, Parsed: parsed}, nil
}

// Parse builds the typed view of a decoded document. It fails on the first
// missing required key (title, pdf_parse, abstract, body_text, text, section)
// and on values of the wrong JSON type. Spans are optional.
func Parse(raw any) (*models.ParsedDocument, error) {
	root, ok := raw.(Object)
	if !ok {
		return nil, &TypeError{Path: "", Want: "an object", Got: raw}
	}

	title, err := requireString(root, "", "title")
	if err != nil {
		return nil, err
	}

	pdfParse, err := require(root, "", "pdf_parse")
	if err != nil {
		return nil, err
	}
	pdfObj, ok := pdfParse.(Object)
	if !ok {
		return nil, &TypeError{Path: "pdf_parse", Want: "an object", Got: pdfParse}
	}

	abstract, err := parseParagraphs(pdfObj, "pdf_parse", "abstract")
	if err != nil {
		return nil, err
	}
	body, err := parseParagraphs(pdfObj, "pdf_parse", "body_text")
	if err != nil {
		return nil, err
	}

	return &models.ParsedDocument{
		Title:    title,
		Abstract: abstract,
		Body:     body,
	}, nil
}

func parseParagraphs(parent Object, parentPath, key string) ([]models.Paragraph, error) {
	path := join(parentPath, key)
	value, err := require(parent, parentPath, key)
	if err != nil {
		return nil, err
	}
	items, ok := value.([]any)
	if !ok {
		return nil, &TypeError{Path: path, Want: "an array", Got: value}
	}

	paragraphs := make([]models.Paragraph, 0, len(items))
	for i, item := range items {
		p, err := parseParagraph(item, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		paragraphs = append(paragraphs, p)
	}
	return paragraphs, nil
}

func parseParagraph(value any, path string) (models.Paragraph, error) {
	obj, ok := value.(Object)
	if !ok {
		return models.Paragraph{}, &TypeError{Path: path, Want: "an object", Got: value}
	}

	var p models.Paragraph

	text, err := require(obj, path, "text")
	if err != nil {
		return p, err
	}
	switch t := text.(type) {
	case string:
		p.Text = t
	case []any:
		// Grobid sentence-segmented output: [{"sentence": ..., "coords": ...}]
		p.Sentences, err = parseSentences(t, join(path, "text"))
		if err != nil {
			return p, err
		}
		parts := make([]string, len(p.Sentences))
		for i, s := range p.Sentences {
			parts[i] = s.Text
		}
		p.Text = strings.Join(parts, " ")
	default:
		return p, &TypeError{Path: join(path, "text"), Want: "a string or an array", Got: text}
	}

	section, err := require(obj, path, "section")
	if err != nil {
		return p, err
	}
	switch s := section.(type) {
	case string:
		p.Section = s
	case nil:
	default:
		return p, &TypeError{Path: join(path, "section"), Want: "a string", Got: section}
	}

	if p.CiteSpans, err = parseSpans(obj, path, "cite_spans"); err != nil {
		return p, err
	}
	if p.RefSpans, err = parseSpans(obj, path, "ref_spans"); err != nil {
		return p, err
	}
	if p.Coords, err = optionalString(obj, path, "coords"); err != nil {
		return p, err
	}
	return p, nil
}

func parseSentences(items []any, path string) ([]models.Sentence, error) {
	sentences := make([]models.Sentence, 0, len(items))
	for i, item := range items {
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		obj, ok := item.(Object)
		if !ok {
			return nil, &TypeError{Path: itemPath, Want: "an object", Got: item}
		}
		text, err := requireString(obj, itemPath, "sentence")
		if err != nil {
			return nil, err
		}
		coords, err := optionalString(obj, itemPath, "coords")
		if err != nil {
			return nil, err
		}
		sentences = append(sentences, models.Sentence{Text: text, Coords: coords})
	}
	return sentences, nil
}

func parseSpans(parent Object, parentPath, key string) ([]models.Span, error) {
	path := join(parentPath, key)
	value, ok := parent.Get(key)
	if !ok || value == nil {
		return nil, nil
	}
	items, ok := value.([]any)
	if !ok {
		return nil, &TypeError{Path: path, Want: "an array", Got: value}
	}

	spans := make([]models.Span, 0, len(items))
	for i, item := range items {
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		obj, ok := item.(Object)
		if !ok {
			return nil, &TypeError{Path: itemPath, Want: "an object", Got: item}
		}
		start, err := requireInt(obj, itemPath, "start")
		if err != nil {
			return nil, err
		}
		end, err := requireInt(obj, itemPath, "end")
		if err != nil {
			return nil, err
		}
		spans = append(spans, models.Span{Start: start, End: end})
	}
	return spans, nil
}

func require(obj Object, path, key string) (any, error) {
	value, ok := obj.Get(key)
	if !ok {
		return nil, &MissingKeyError{Path: join(path, key)}
	}
	return value, nil
}

func requireString(obj Object, path, key string) (string, error) {
	value, err := require(obj, path, key)
	if err != nil {
		return "", err
	}
	s, ok := value.(string)
	if !ok {
		return "", &TypeError{Path: join(path, key), Want: "a string", Got: value}
	}
	return s, nil
}

func optionalString(obj Object, path, key string) (string, error) {
	value, ok := obj.Get(key)
	if !ok || value == nil {
		return "", nil
	}
	s, ok := value.(string)
	if !ok {
		return "", &TypeError{Path: join(path, key), Want: "a string", Got: value}
	}
	return s, nil
}

func requireInt(obj Object, path, key string) (int, error) {
	value, err := require(obj, path, key)
	if err != nil {
		return 0, err
	}
	var n int64
	switch v := value.(type) {
	case json.Number:
		n, err = v.Int64()
	case int:
		n = int64(v)
	case int64:
		n = v
	case float64:
		n = int64(v)
		if float64(n) != v {
			err = fmt.Errorf("not an integer")
		}
	default:
		err = fmt.Errorf("not a number")
	}
	if err != nil {
		return 0, &TypeError{Path: join(path, key), Want: "an integer", Got: value}
	}
	return int(n), nil
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "a string"
	case bool:
		return "a boolean"
	case json.Number, int, int64, float64:
		return "a number"
	case Object, map[string]any:
		return "an object"
	case []any:
		return "an array"
	}
	return fmt.Sprintf("%T", v)
}
