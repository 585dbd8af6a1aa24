package tokenizer

import (
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the BPE encoding used by the default tokenizer
// (used by GPT-4 and a good approximation for other model families).
const DefaultEncoding = "cl100k_base"

// Tiktoken is a Tokenizer over a tiktoken BPE encoding.
type Tiktoken struct {
	encoding string
	enc      *tiktoken.Tiktoken
}

// NewTiktoken creates a tokenizer for the named tiktoken encoding. An
// unknown encoding or unavailable BPE data yields a *DependencyError.
func NewTiktoken(encoding string) (*Tiktoken, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, &DependencyError{Backend: "tiktoken/" + encoding, Err: err}
	}
	return &Tiktoken{encoding: encoding, enc: enc}, nil
}

// Tokenize encodes text into token ids.
func (t *Tiktoken) Tokenize(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

// Detokenize decodes token ids back into text.
func (t *Tiktoken) Detokenize(ids []int) string {
	return t.enc.Decode(ids)
}

// VocabName returns the encoding name.
func (t *Tiktoken) VocabName() string { return t.encoding }

// defaultTokenizer constructs the process-wide default at most once;
// concurrent first callers all observe the same instance (or the same
// construction error).
var defaultTokenizer = sync.OnceValues(func() (*Tiktoken, error) {
	return NewTiktoken(DefaultEncoding)
})

// Default returns the process-wide default tokenizer, constructing it
// lazily on first use.
func Default() (Tokenizer, error) {
	tok, err := defaultTokenizer()
	if err != nil {
		return nil, err
	}
	return tok, nil
}
