package splitter

import (
	"strings"
)

// MaxChunkSize caps the token budget per chunk. Embedding models with a
// 512-token context reserve two slots for the marker tokens they wrap
// around the input, so 510 is the hard ceiling.
const MaxChunkSize = 510

// separators tried in order, coarse to fine. The empty string splits at
// code-point boundaries and is the guaranteed fallback granularity.
var separators = []string{"\n\n", "\n", ". ", " ", ""}

// Tokenizer is the subword tokenizer collaborator. Implementations must
// be deterministic and side-effect free. Detokenize is the inverse used
// by callers for display and verification; the splitter never uses it
// to rebuild chunk text.
type Tokenizer interface {
	Tokenize(text string) []string
	Detokenize(tokens []string) string
}

// Segment pairs a text span with its tokenization. The text keeps its
// trailing separator so that concatenating segments in order reproduces
// the corresponding stretch of the original input.
type Segment struct {
	Text   string
	Tokens []string
}

// TokenCount returns the number of tokens in the segment.
func (s Segment) TokenCount() int { return len(s.Tokens) }

// Chunk is one bounded window of the input. Text is assembled by
// concatenating segment texts and trimming the edges, never by
// detokenizing, so it is always a substring of the original input.
// Tokens is the in-order concatenation of the segment token lists.
type Chunk struct {
	Index  int
	Text   string
	Tokens []string
}

// TokenCount returns the number of tokens in the chunk.
func (c Chunk) TokenCount() int { return len(c.Tokens) }

// Splitter packs text into chunks that never exceed a token budget.
// It holds only the tokenizer reference and is otherwise stateless;
// concurrent use is safe whenever the tokenizer tolerates it.
type Splitter struct {
	tok Tokenizer
}

// New builds a splitter around the given tokenizer.
func New(tok Tokenizer) *Splitter {
	return &Splitter{tok: tok}
}

// Split breaks text into chunks of at most min(chunkSize, MaxChunkSize)
// tokens, carrying up to overlapSize tokens of trailing context into
// each following chunk. Overlap is clamped below the budget so every
// chunk advances by at least one token of new content, and it is
// carried in whole segments, so the actual overlap may undershoot the
// request.
//
// A nil result means the input was empty, or no separator granularity
// (down to single code points) produced pieces that fit the budget.
// The latter is terminal; raising chunkSize is the only remedy.
func (s *Splitter) Split(text string, chunkSize, overlapSize int) []Chunk {
	if text == "" {
		return nil
	}

	budget := chunkSize
	if budget <= 0 || budget > MaxChunkSize {
		budget = MaxChunkSize
	}
	overlap := overlapSize
	if overlap < 0 {
		overlap = -overlap
	}
	if overlap > budget-1 {
		overlap = budget - 1
	}

	for _, sep := range separators {
		segments, ok := s.segment(text, sep, budget)
		if !ok {
			continue
		}
		return pack(segments, budget, overlap)
	}
	return nil
}

// segment splits text on sep, reattaches the separator to each part,
// and tokenizes every part exactly once. The final part only gets the
// separator back when the input actually ends with it; concatenating
// the segment texts in order must reproduce the input byte for byte.
// It reports false when any single part exceeds the budget: that
// separator can never produce valid windows and a finer one must be
// tried.
func (s *Splitter) segment(text, sep string, budget int) ([]Segment, bool) {
	parts := strings.Split(text, sep)
	kept := parts[:0]
	for _, part := range parts {
		if part != "" {
			kept = append(kept, part)
		}
	}

	segments := make([]Segment, 0, len(kept))
	for i, part := range kept {
		if i < len(kept)-1 || strings.HasSuffix(text, sep) {
			part += sep
		}
		seg := Segment{Text: part, Tokens: s.tok.Tokenize(part)}
		if seg.TokenCount() > budget {
			return nil, false
		}
		segments = append(segments, seg)
	}
	return segments, len(segments) > 0
}

// pack greedily accumulates segments into windows that respect the
// budget. When a segment would overflow the current window, the window
// is flushed as a chunk and the next window is seeded with the overlap
// carried over from it.
func pack(segments []Segment, budget, overlap int) []Chunk {
	var (
		chunks []Chunk
		window []Segment
		count  int
	)
	for _, seg := range segments {
		if count+seg.TokenCount() <= budget {
			window = append(window, seg)
			count += seg.TokenCount()
			continue
		}

		chunks = append(chunks, assemble(window, len(chunks)))

		carry, carried := carryOver(window, overlap)
		if carried+seg.TokenCount() <= budget {
			window = append(carry, seg)
			count = carried + seg.TokenCount()
		} else {
			// Even combined with the incoming segment the overlap
			// cannot fit, so drop it. Forward progress matters more
			// than context continuity here.
			window = []Segment{seg}
			count = seg.TokenCount()
		}
	}
	if len(window) > 0 {
		chunks = append(chunks, assemble(window, len(chunks)))
	}
	return chunks
}

// carryOver walks the flushed window backward, collecting whole
// segments until the requested overlap token count is covered. Segments
// are never split to hit an exact length: the carried overlap can
// undershoot the request when segments are coarse, and overshoots it by
// at most one segment's worth.
func carryOver(window []Segment, overlap int) ([]Segment, int) {
	var (
		carry   []Segment
		carried int
	)
	need := overlap
	for i := len(window) - 1; i >= 0 && need > 0; i-- {
		carry = append([]Segment{window[i]}, carry...)
		carried += window[i].TokenCount()
		need -= window[i].TokenCount()
	}
	return carry, carried
}

// assemble closes a window into a chunk: text is the segment
// concatenation with edge whitespace trimmed (interior separators are
// preserved), tokens are the segment token lists joined in order.
func assemble(window []Segment, index int) Chunk {
	var (
		b      strings.Builder
		tokens []string
	)
	for _, seg := range window {
		b.WriteString(seg.Text)
		tokens = append(tokens, seg.Tokens...)
	}
	return Chunk{
		Index:  index,
		Text:   strings.TrimSpace(b.String()),
		Tokens: tokens,
	}
}
