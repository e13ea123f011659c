// Package tokenizer produces fixed-length token id sequences and attention
// masks for model input.
package tokenizer

import (
	"errors"
	"fmt"

	"github.com/clowder-framework/extractors-s2orc-pdf2text/internal/models"
	"github.com/clowder-framework/extractors-s2orc-pdf2text/internal/types"
)

const DefaultMaxLength = 128

type TokenizerConfig struct {
	// MaxLength is the exact length of every encoding, markers included.
	MaxLength int
}

type Tokenizer struct {
	config  TokenizerConfig
	encoder types.Encoder
}

func NewWithConfig(encoder types.Encoder, config TokenizerConfig) (*Tokenizer, error) {
	if encoder == nil {
		return nil, errors.New("tokenizer needs an encoder")
	}
	if config.MaxLength == 0 {
		config.MaxLength = DefaultMaxLength
	}
	if config.MaxLength < 2 {
		return nil, fmt.Errorf("max length %d leaves no room for the begin and end markers", config.MaxLength)
	}
	return &Tokenizer{config: config, encoder: encoder}, nil
}

func (t *Tokenizer) MaxLength() int {
	return t.config.MaxLength
}

// Tokenize encodes sentence as begin marker, subword ids, end marker. Ids past
// MaxLength-2 are dropped from the end. Both sequences are right-padded with
// zeros to MaxLength; the mask is 1 for every non-padding position.
func (t *Tokenizer) Tokenize(sentence string) models.TokenEncoding {
	ids := t.encoder.Encode(sentence)
	if budget := t.config.MaxLength - 2; len(ids) > budget {
		ids = ids[:budget]
	}
	begin, end := t.encoder.Markers()

	enc := models.TokenEncoding{
		TokenIDs:      make([]int, t.config.MaxLength),
		AttentionMask: make([]int, t.config.MaxLength),
	}
	enc.TokenIDs[0] = begin
	copy(enc.TokenIDs[1:], ids)
	enc.TokenIDs[len(ids)+1] = end
	for i := 0; i < len(ids)+2; i++ {
		enc.AttentionMask[i] = 1
	}
	return enc
}

// Rows fills the tokenized column of every row.
func (t *Tokenizer) Rows(rows []models.SentenceRow) {
	for i := range rows {
		enc := t.Tokenize(rows[i].Sentence)
		rows[i].Tokenized = &enc
	}
}
