package tokenizer

import (
	"errors"
	"testing"
)

func TestTiktoken_Tokenize(t *testing.T) {
	tok, err := NewTiktoken(DefaultEncoding)
	if err != nil {
		t.Fatalf("NewTiktoken: %v", err)
	}

	ids := tok.Tokenize("Hello, world!")
	if len(ids) == 0 {
		t.Error("expected a non-empty token sequence")
	}

	if got := tok.Tokenize(""); len(got) != 0 {
		t.Errorf("empty string: got %d tokens, want 0", len(got))
	}
}

func TestTiktoken_DetokenizeRoundTrip(t *testing.T) {
	tok, err := NewTiktoken(DefaultEncoding)
	if err != nil {
		t.Fatalf("NewTiktoken: %v", err)
	}

	const text = "a short round trip"
	if got := tok.Detokenize(tok.Tokenize(text)); got != text {
		t.Errorf("round trip: got %q, want %q", got, text)
	}
}

func TestTiktoken_VocabName(t *testing.T) {
	tok, err := NewTiktoken(DefaultEncoding)
	if err != nil {
		t.Fatalf("NewTiktoken: %v", err)
	}
	if tok.VocabName() != DefaultEncoding {
		t.Errorf("VocabName: got %q, want %q", tok.VocabName(), DefaultEncoding)
	}
}

func TestNewTiktoken_UnknownEncoding(t *testing.T) {
	_, err := NewTiktoken("no-such-encoding")
	if err == nil {
		t.Fatal("expected an error for an unknown encoding")
	}
	var depErr *DependencyError
	if !errors.As(err, &depErr) {
		t.Fatalf("expected *DependencyError, got %T: %v", err, err)
	}
	if depErr.Backend != "tiktoken/no-such-encoding" {
		t.Errorf("Backend: got %q", depErr.Backend)
	}
}

func TestDefault_SameInstance(t *testing.T) {
	a, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	b, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if a != b {
		t.Error("Default returned two distinct instances")
	}
}
