package tokenizer

import (
	"fmt"

	"github.com/clowder-framework/extractors-s2orc-pdf2text/internal/types"
)

const (
	VocabularyWordPiece = "wordpiece"
	VocabularyTiktoken  = "tiktoken"
)

type EncoderConfig struct {
	Vocabulary string // wordpiece or tiktoken
	VocabPath  string // vocab.txt for wordpiece
	Encoding   string // encoding name for tiktoken
	LowerCase  bool
}

// OpenEncoder builds the Encoder described by config.
func OpenEncoder(config EncoderConfig) (types.Encoder, error) {
	switch config.Vocabulary {
	case "", VocabularyWordPiece:
		if config.VocabPath == "" {
			return nil, fmt.Errorf("wordpiece vocabulary needs a vocab path")
		}
		vocab, err := LoadVocabFile(config.VocabPath)
		if err != nil {
			return nil, err
		}
		wp, err := NewWordPiece(vocab, WordPieceConfig{LowerCase: config.LowerCase})
		if err != nil {
			return nil, err
		}
		return wp, nil
	case VocabularyTiktoken:
		tk, err := NewTiktoken(config.Encoding)
		if err != nil {
			return nil, err
		}
		return tk, nil
	}
	return nil, fmt.Errorf("unknown vocabulary %q", config.Vocabulary)
}
