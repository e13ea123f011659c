package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

const (
	DefaultTiktokenEncoding = "cl100k_base"
	endOfText               = "<|endoftext|>"
)

// Tiktoken encodes with an OpenAI BPE encoding. Both markers are the
// encoding's end-of-text token.
type Tiktoken struct {
	enc    *tiktoken.Tiktoken
	marker int
}

// NewTiktoken loads the named encoding. tiktoken-go downloads the BPE ranks on
// first use and caches them under TIKTOKEN_CACHE_DIR.
func NewTiktoken(encoding string) (*Tiktoken, error) {
	if encoding == "" {
		encoding = DefaultTiktokenEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken encoding %s: %w", encoding, err)
	}
	marker := enc.Encode(endOfText, []string{endOfText}, nil)
	if len(marker) != 1 {
		return nil, fmt.Errorf("encoding %s has no %s token", encoding, endOfText)
	}
	return &Tiktoken{enc: enc, marker: marker[0]}, nil
}

func (t *Tiktoken) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

func (t *Tiktoken) Markers() (int, int) {
	return t.marker, t.marker
}
