package tokenizer

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Vocab maps a subword to its id. Ids are line numbers of a BERT vocab.txt.
type Vocab map[string]int

// LoadVocab reads one token per line.
func LoadVocab(r io.Reader) (Vocab, error) {
	vocab := Vocab{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for id := 0; scanner.Scan(); id++ {
		token := strings.TrimRight(scanner.Text(), "\r")
		if _, ok := vocab[token]; !ok {
			vocab[token] = id
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading vocabulary: %w", err)
	}
	return vocab, nil
}

func LoadVocabFile(path string) (Vocab, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening vocabulary: %w", err)
	}
	defer f.Close()
	return LoadVocab(f)
}

type WordPieceConfig struct {
	LowerCase            bool
	Unknown              string
	Begin                string
	End                  string
	MaxInputCharsPerWord int
}

// WordPiece is the BERT uncased/cased subword encoder: basic cleanup and
// punctuation splitting followed by greedy longest-match-first lookup.
type WordPiece struct {
	config     WordPieceConfig
	vocab      Vocab
	unknownID  int
	beginID    int
	endID      int
	neverSplit map[string]bool
}

func NewWordPiece(vocab Vocab, config WordPieceConfig) (*WordPiece, error) {
	if config.Unknown == "" {
		config.Unknown = "[UNK]"
	}
	if config.Begin == "" {
		config.Begin = "[CLS]"
	}
	if config.End == "" {
		config.End = "[SEP]"
	}
	if config.MaxInputCharsPerWord == 0 {
		config.MaxInputCharsPerWord = 100
	}

	w := &WordPiece{
		config:     config,
		vocab:      vocab,
		neverSplit: map[string]bool{},
	}
	for _, special := range []struct {
		token string
		id    *int
	}{
		{config.Unknown, &w.unknownID},
		{config.Begin, &w.beginID},
		{config.End, &w.endID},
	} {
		id, ok := vocab[special.token]
		if !ok {
			return nil, fmt.Errorf("vocabulary has no %s token", special.token)
		}
		*special.id = id
		w.neverSplit[special.token] = true
	}
	for _, token := range []string{"[PAD]", "[MASK]"} {
		w.neverSplit[token] = true
	}
	return w, nil
}

func (w *WordPiece) Markers() (int, int) {
	return w.beginID, w.endID
}

func (w *WordPiece) Encode(text string) []int {
	var ids []int
	for _, token := range w.Tokenize(text) {
		ids = append(ids, w.vocab[token])
	}
	return ids
}

// Tokenize returns the subword strings for text.
func (w *WordPiece) Tokenize(text string) []string {
	var out []string
	for _, word := range w.basicTokenize(text) {
		if w.neverSplit[word] {
			if _, ok := w.vocab[word]; ok {
				out = append(out, word)
				continue
			}
		}
		out = append(out, w.wordPiece(word)...)
	}
	return out
}

func (w *WordPiece) basicTokenize(text string) []string {
	text = tokenizeCJK(cleanText(text))

	var out []string
	for _, token := range strings.Fields(text) {
		if w.neverSplit[token] {
			out = append(out, token)
			continue
		}
		if w.config.LowerCase {
			token = stripAccents(strings.ToLower(token))
		}
		out = append(out, splitPunctuation(token)...)
	}
	return out
}

func (w *WordPiece) wordPiece(word string) []string {
	runes := []rune(word)
	if len(runes) > w.config.MaxInputCharsPerWord {
		return []string{w.config.Unknown}
	}

	var pieces []string
	for start := 0; start < len(runes); {
		end := len(runes)
		found := ""
		for start < end {
			sub := string(runes[start:end])
			if start > 0 {
				sub = "##" + sub
			}
			if _, ok := w.vocab[sub]; ok {
				found = sub
				break
			}
			end--
		}
		if found == "" {
			return []string{w.config.Unknown}
		}
		pieces = append(pieces, found)
		start = end
	}
	return pieces
}

// cleanText drops NUL, U+FFFD and control characters and maps whitespace to
// a plain space.
func cleanText(text string) string {
	var b strings.Builder
	for _, r := range text {
		switch {
		case r == 0 || r == unicode.ReplacementChar:
		case isWhitespace(r):
			b.WriteByte(' ')
		case isControl(r):
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func tokenizeCJK(text string) string {
	var b strings.Builder
	for _, r := range text {
		if isCJK(r) {
			b.WriteByte(' ')
			b.WriteRune(r)
			b.WriteByte(' ')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func stripAccents(s string) string {
	var b strings.Builder
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func splitPunctuation(token string) []string {
	var out []string
	var current []rune
	for _, r := range token {
		if isPunctuation(r) {
			if len(current) > 0 {
				out = append(out, string(current))
				current = current[:0]
			}
			out = append(out, string(r))
			continue
		}
		current = append(current, r)
	}
	if len(current) > 0 {
		out = append(out, string(current))
	}
	return out
}

func isWhitespace(r rune) bool {
	if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

func isControl(r rune) bool {
	if r == '\t' || r == '\n' || r == '\r' {
		return false
	}
	return unicode.Is(unicode.C, r)
}

// isPunctuation treats every non-alphanumeric ASCII symbol as punctuation,
// not only Unicode category P.
func isPunctuation(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) || (r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}

func isCJK(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) ||
		(r >= 0x3400 && r <= 0x4DBF) ||
		(r >= 0x20000 && r <= 0x2A6DF) ||
		(r >= 0x2A700 && r <= 0x2B73F) ||
		(r >= 0x2B740 && r <= 0x2B81F) ||
		(r >= 0x2B820 && r <= 0x2CEAF) ||
		(r >= 0xF900 && r <= 0xFAFF) ||
		(r >= 0x2F800 && r <= 0x2FA1F)
}
