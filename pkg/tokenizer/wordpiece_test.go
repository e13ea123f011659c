package tokenizer_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clowder-framework/extractors-s2orc-pdf2text/pkg/tokenizer"
)

const testVocab = `[PAD]
[UNK]
[CLS]
[SEP]
[MASK]
hello
world
.
,
un
##aff
##able
naive
the
!
model
##s
`

func newWordPiece(t *testing.T, lower bool) *tokenizer.WordPiece {
	t.Helper()
	vocab, err := tokenizer.LoadVocab(strings.NewReader(testVocab))
	require.NoError(t, err)

	wp, err := tokenizer.NewWordPiece(vocab, tokenizer.WordPieceConfig{LowerCase: lower})
	require.NoError(t, err)
	return wp
}

func TestLoadVocab(t *testing.T) {
	vocab, err := tokenizer.LoadVocab(strings.NewReader("[PAD]\r\nhello\r\nhello\n"))
	require.NoError(t, err)

	assert.Equal(t, tokenizer.Vocab{"[PAD]": 0, "hello": 1}, vocab)
}

func TestWordPieceTokenize(t *testing.T) {
	wp := newWordPiece(t, true)

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"punctuation split", "Hello, World!", []string{"hello", ",", "world", "!"}},
		{"subwords", "unaffable", []string{"un", "##aff", "##able"}},
		{"suffix piece", "Models.", []string{"model", "##s", "."}},
		{"accents stripped", "Naïve", []string{"naive"}},
		{"unknown word", "xyz", []string{"[UNK]"}},
		{"partial match is unknown", "unxyz", []string{"[UNK]"}},
		{"whitespace cleanup", "hello\tworld\n", []string{"hello", "world"}},
		{"control characters dropped", "hel\u0000lo", []string{"hello"}},
		{"cjk characters split", "hello你好", []string{"hello", "[UNK]", "[UNK]"}},
		{"special token kept", "[CLS] hello [SEP]", []string{"[CLS]", "hello", "[SEP]"}},
		{"empty", "", nil},
		{"overlong word", strings.Repeat("a", 101), []string{"[UNK]"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, wp.Tokenize(tt.text))
		})
	}
}

func TestWordPieceCased(t *testing.T) {
	wp := newWordPiece(t, false)

	assert.Equal(t, []string{"[UNK]", "world"}, wp.Tokenize("Hello world"))
	assert.Equal(t, []string{"[UNK]"}, wp.Tokenize("naïve"))
}

func TestWordPieceEncode(t *testing.T) {
	wp := newWordPiece(t, true)

	assert.Equal(t, []int{5, 8, 6, 14}, wp.Encode("Hello, world!"))

	begin, end := wp.Markers()
	assert.Equal(t, 2, begin)
	assert.Equal(t, 3, end)
}

func TestWordPieceWithTokenizer(t *testing.T) {
	tok, err := tokenizer.NewWithConfig(newWordPiece(t, true), tokenizer.TokenizerConfig{MaxLength: 8})
	require.NoError(t, err)

	enc := tok.Tokenize("Hello world.")
	assert.Equal(t, []int{2, 5, 6, 7, 3, 0, 0, 0}, enc.TokenIDs)
	assert.Equal(t, []int{1, 1, 1, 1, 1, 0, 0, 0}, enc.AttentionMask)
}

func TestNewWordPieceMissingSpecials(t *testing.T) {
	vocab := tokenizer.Vocab{"hello": 0, "[UNK]": 1}

	_, err := tokenizer.NewWordPiece(vocab, tokenizer.WordPieceConfig{})
	assert.ErrorContains(t, err, "[CLS]")
}
