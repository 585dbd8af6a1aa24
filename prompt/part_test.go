package prompt

import (
	"errors"
	"testing"
)

func TestAssemble_Normalization(t *testing.T) {
	doc := "- name: padded\n  content: '   <|space|>hello world<|space|>  '\n" +
		"- name: escaped\n  content: 'line1\\nline2\\rend'\n" +
		"- name: tagged\n  role: system\n  content: sys\n"
	p, err := New(nil, Options{RawTemplate: doc})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	parts := p.Parts()
	if len(parts) != 3 {
		t.Fatalf("got %d parts, want 3", len(parts))
	}

	// Whitespace is trimmed first, then space markers become literal
	// spaces, recovering intentional padding.
	if parts[0].Content != " hello world " {
		t.Errorf("padded: got %q", parts[0].Content)
	}
	if parts[1].Content != "line1\nline2\rend" {
		t.Errorf("escaped: got %q", parts[1].Content)
	}
	if parts[2].Role != "system" {
		t.Errorf("role: got %q", parts[2].Role)
	}
}

func TestAssemble_CustomEscapes(t *testing.T) {
	esc := DefaultEscapes()
	esc.SpaceMarker = "<sp>"
	esc.EscapedSingleQuote = "&#39;"

	doc := "- name: a\n  content: \"<sp>it&#39;s<sp>\"\n"
	p, err := New(nil, Options{RawTemplate: doc, Escapes: &esc})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := p.String(); got != " it's " {
		t.Errorf("got %q, want %q", got, " it's ")
	}
}

func TestAssemble_MissingContent(t *testing.T) {
	doc := "- name: ok\n  content: fine\n- name: broken\n  role: user\n"
	_, err := New(nil, Options{RawTemplate: doc})
	var malErr *MalformedPartError
	if !errors.As(err, &malErr) {
		t.Fatalf("expected *MalformedPartError, got %v", err)
	}
	if malErr.Index != 1 || malErr.Field != "content" {
		t.Errorf("error fields: got %+v", malErr)
	}
}

func TestAssemble_InvalidDocument(t *testing.T) {
	if _, err := New(nil, Options{RawTemplate: "not: a: sequence: ["}); err == nil {
		t.Fatal("expected a decode error")
	}
}

func TestAssemble_EmptyDocument(t *testing.T) {
	p, err := New(nil, Options{RawTemplate: "[]\n"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(p.Parts()) != 0 {
		t.Errorf("got %d parts, want 0", len(p.Parts()))
	}
	if got := p.String(); got != "" {
		t.Errorf("String: got %q", got)
	}
}

func TestEscapeScheme_RoundTrip(t *testing.T) {
	esc := DefaultEscapes()
	esc.EscapedSingleQuote = "''"

	inputs := []string{
		"plain text",
		"with\nnewline",
		"with\rcarriage",
		"it's quoted",
		"all\nthree\r'together'",
		"",
	}
	for _, in := range inputs {
		if got := esc.Unescape(esc.Escape(in)); got != in {
			t.Errorf("escape/unescape: got %q, want %q", got, in)
		}
	}

	// The reverse direction holds for content without the raw reserved
	// sequences.
	escaped := []string{`already\nescaped`, `quoted''twice`}
	for _, in := range escaped {
		if got := esc.Escape(esc.Unescape(in)); got != in {
			t.Errorf("unescape/escape: got %q, want %q", got, in)
		}
	}
}

func TestDefaultEscapes_QuoteIsNoop(t *testing.T) {
	esc := DefaultEscapes()
	if got := esc.Escape("it's"); got != "it's" {
		t.Errorf("default quote escaping should be a no-op, got %q", got)
	}
}
