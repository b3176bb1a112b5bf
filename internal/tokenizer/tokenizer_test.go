package tokenizer

import (
	"testing"
)

func TestWordsTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"simple", "one two three", []string{"one", "two", "three"}},
		{"extra whitespace", "  one\n\ntwo\tthree ", []string{"one", "two", "three"}},
		{"empty", "", nil},
		{"only whitespace", " \n\t", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Words{}.Tokenize(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("token %d: got %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestWordsRoundTrip(t *testing.T) {
	tok := Words{}
	tokens := tok.Tokenize("the quick brown fox")
	back := tok.Tokenize(tok.Detokenize(tokens))
	if len(back) != len(tokens) {
		t.Fatalf("round trip changed token count %d -> %d", len(tokens), len(back))
	}
	for i := range tokens {
		if back[i] != tokens[i] {
			t.Errorf("token %d: %q -> %q", i, tokens[i], back[i])
		}
	}
}

func TestTiktokenRoundTrip(t *testing.T) {
	tok, err := NewTiktoken("")
	if err != nil {
		// The encoding is fetched on first use; skip when it is not
		// available in this environment.
		t.Skipf("tiktoken encoding unavailable: %v", err)
	}

	text := "The quick brown fox jumped over the lazy dog."
	tokens := tok.Tokenize(text)
	if len(tokens) == 0 {
		t.Fatal("expected tokens")
	}
	if got := tok.Detokenize(tokens); got != text {
		t.Fatalf("detokenize: got %q, want %q", got, text)
	}
	back := tok.Tokenize(tok.Detokenize(tokens))
	if len(back) != len(tokens) {
		t.Fatalf("round trip changed token count %d -> %d", len(tokens), len(back))
	}
	for i := range tokens {
		if back[i] != tokens[i] {
			t.Errorf("token %d: %q -> %q", i, tokens[i], back[i])
		}
	}
}
