package models

// Span is a half-open [Start, End) range of code points inside a paragraph's
// text, marking an inline citation or cross-reference.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Sentence is one entry of a sentence-segmented paragraph.
type Sentence struct {
	Text   string `json:"sentence"`
	Coords string `json:"coords"`
}

type Paragraph struct {
	Text      string     `json:"text"`
	Section   string     `json:"section"`
	CiteSpans []Span     `json:"cite_spans"`
	RefSpans  []Span     `json:"ref_spans"`
	Sentences []Sentence `json:"sentences,omitempty"`
	Coords    string     `json:"coords,omitempty"`
}

// Spans returns cite spans followed by ref spans in a new slice.
func (p Paragraph) Spans() []Span {
	spans := make([]Span, 0, len(p.CiteSpans)+len(p.RefSpans))
	spans = append(spans, p.CiteSpans...)
	return append(spans, p.RefSpans...)
}

// Segmented reports whether the paragraph arrived already split into sentences.
func (p Paragraph) Segmented() bool {
	return len(p.Sentences) > 0
}

type ParsedDocument struct {
	Title    string      `json:"title"`
	Abstract []Paragraph `json:"abstract"`
	Body     []Paragraph `json:"body_text"`
}

// Document is one unit of work: the file identifier, the order-preserving
// decoded JSON tree and its typed view.
type Document struct {
	File   string
	Raw    any
	Parsed *ParsedDocument
}

type ProcessedDocument struct {
	Document
	Text []string
	Rows []SentenceRow
}
