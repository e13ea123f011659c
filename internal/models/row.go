package models

// TitleSection is the section label given to the title row.
const TitleSection = "title"

// TokenEncoding is a fixed-length token id sequence and its attention mask.
type TokenEncoding struct {
	TokenIDs      []int `json:"token_ids"`
	AttentionMask []int `json:"attention_mask"`
}

// Pair returns the encoding as [ids, mask], the shape written to the
// tokenized_sentence column.
func (t TokenEncoding) Pair() [2][]int {
	return [2][]int{t.TokenIDs, t.AttentionMask}
}

type SentenceRow struct {
	File         string         `json:"file"`
	Section      string         `json:"section"`
	Sentence     string         `json:"sentence"`
	PrevSentence string         `json:"prev_sentence"`
	NextSentence string         `json:"next_sentence"`
	Coordinates  string         `json:"coordinates"`
	Tokenized    *TokenEncoding `json:"tokenized_sentence,omitempty"`
	Embedding    []float32      `json:"embedding,omitempty"`
}
