// Package tokenizer provides the subword tokenizer collaborators the
// splitter is built against.
package tokenizer

import "strings"

// Words is a whitespace word tokenizer: every whitespace-delimited word
// is one token. It needs no vocabulary files, which makes it the right
// collaborator for tests and air-gapped deployments; token counts are
// coarser than a subword encoding's.
type Words struct{}

// Tokenize splits text into whitespace-delimited words.
func (Words) Tokenize(text string) []string {
	return strings.Fields(text)
}

// Detokenize joins tokens with single spaces.
func (Words) Detokenize(tokens []string) string {
	return strings.Join(tokens, " ")
}
