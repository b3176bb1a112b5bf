package tokenizer

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the BPE encoding used by the embedding models this
// pipeline indexes with.
const DefaultEncoding = "cl100k_base"

// Tiktoken adapts a BPE encoding to the splitter's token-string
// contract. Each token string is the decoded text of a single BPE id,
// so concatenating a span's token strings reproduces the span exactly.
// Safe for concurrent use.
type Tiktoken struct {
	enc *tiktoken.Tiktoken
}

// NewTiktoken loads the named encoding, falling back to
// DefaultEncoding when empty.
func NewTiktoken(encoding string) (*Tiktoken, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: get encoding %q: %w", encoding, err)
	}
	return &Tiktoken{enc: enc}, nil
}

// Tokenize encodes text and returns the per-id token strings.
func (t *Tiktoken) Tokenize(text string) []string {
	ids := t.enc.Encode(text, nil, nil)
	tokens := make([]string, len(ids))
	for i, id := range ids {
		tokens[i] = t.enc.Decode([]int{id})
	}
	return tokens
}

// Detokenize concatenates token strings back into text.
func (t *Tiktoken) Detokenize(tokens []string) string {
	return strings.Join(tokens, "")
}
