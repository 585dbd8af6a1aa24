// Package tokenizer defines the tokenizer capability used to count and
// encode prompt text, along with a tiktoken-backed default implementation.
package tokenizer

import "fmt"

// Tokenizer is the minimal capability a tokenizer backend must provide.
type Tokenizer interface {
	// Tokenize converts text into an ordered sequence of token ids.
	Tokenize(text string) []int
}

// Detokenizer is implemented by backends that can reverse Tokenize.
type Detokenizer interface {
	Detokenize(ids []int) string
}

// Vocab is implemented by backends that expose vocabulary metadata.
type Vocab interface {
	// VocabName identifies the vocabulary, e.g. the BPE encoding name.
	VocabName() string
}

// DependencyError reports that a tokenizer backend is missing or
// incompatible. It is returned from backend construction, including the
// process-wide default, instead of silently degrading.
type DependencyError struct {
	Backend string
	Err     error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("tokenizer: backend %s unavailable: %v", e.Backend, e.Err)
}

func (e *DependencyError) Unwrap() error { return e.Err }
