package prompt

import (
	"errors"
	"fmt"
)

// ErrNotTokenized reports a token-dependent operation invoked before
// every part of the prompt was tokenized.
var ErrNotTokenized = errors.New("prompt: not tokenized")

// ReservedKeyError reports a caller-supplied template data key that the
// prompt injects itself.
type ReservedKeyError struct {
	Key string
}

func (e *ReservedKeyError) Error() string {
	return fmt.Sprintf("prompt: %q is a reserved template data key", e.Key)
}

// RenderError wraps a failure from the templating collaborator.
type RenderError struct {
	Template string
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("prompt: render template %s: %v", e.Template, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// MalformedPartError reports a rendered record missing a required field.
type MalformedPartError struct {
	Index int
	Field string
}

func (e *MalformedPartError) Error() string {
	return fmt.Sprintf("prompt: part %d: missing required field %q", e.Index, e.Field)
}

// ValidationError reports an invalid argument.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("prompt: invalid %s: %s", e.Field, e.Reason)
}

// TruncationError reports that removing every eligible part still left
// the prompt above the token limit. The prompt has been restored to its
// pretruncation state before this error is returned.
type TruncationError struct {
	TokenLimit  int
	TotalTokens int
}

func (e *TruncationError) Error() string {
	return fmt.Sprintf("prompt: cannot truncate below token limit %d (%d tokens after removing all eligible parts); state restored", e.TokenLimit, e.TotalTokens)
}

// IndexError reports an out-of-bounds part index.
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("prompt: part index %d out of bounds (%d parts)", e.Index, e.Len)
}
