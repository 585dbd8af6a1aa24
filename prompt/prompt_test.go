package prompt

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/promptweave/promptweave/template"
)

// byteTokenizer maps every byte of content to one token id. It keeps
// token math deterministic without a model vocabulary.
type byteTokenizer struct{}

func (byteTokenizer) Tokenize(text string) []int {
	ids := make([]int, len(text))
	for i := 0; i < len(text); i++ {
		ids[i] = int(text[i])
	}
	return ids
}

const simpleTemplate = "- name: part1\n  content: 'Raw string of the first part {{ .var1 }}'\n"

func TestNew_SimpleTemplate(t *testing.T) {
	p, err := New(map[string]any{"var1": "foobar"}, Options{RawTemplate: simpleTemplate})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := p.String(); got != "Raw string of the first part foobar" {
		t.Errorf("String: got %q", got)
	}

	parts := p.Parts()
	if len(parts) != 1 {
		t.Fatalf("got %d parts, want 1", len(parts))
	}
	if parts[0].Name != "part1" || parts[0].Role != DefaultRole {
		t.Errorf("part: got name=%q role=%q", parts[0].Name, parts[0].Role)
	}
}

func TestNew_ReservedKeys(t *testing.T) {
	for _, key := range []string{"token_limit", "escape_special_characters"} {
		_, err := New(map[string]any{"var1": "x", key: 10}, Options{RawTemplate: simpleTemplate})
		var resErr *ReservedKeyError
		if !errors.As(err, &resErr) {
			t.Fatalf("key %q: expected *ReservedKeyError, got %v", key, err)
		}
		if resErr.Key != key {
			t.Errorf("Key: got %q, want %q", resErr.Key, key)
		}
	}
}

func TestNew_TokenLimitInjected(t *testing.T) {
	p, err := New(nil, Options{
		RawTemplate: "- name: a\n  content: 'limit {{ .token_limit }}'\n",
		TokenLimit:  42,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := p.String(); got != "limit 42" {
		t.Errorf("String: got %q", got)
	}
}

func TestNew_EscapeFuncInjected(t *testing.T) {
	// escape_special_characters protects the document syntax during
	// rendering; assembly reverses it, so the literal value survives.
	p, err := New(map[string]any{"v": "line1\nline2"}, Options{
		RawTemplate: "- name: a\n  content: '{{ escape_special_characters .v }}'\n",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := p.String(); got != "line1\nline2" {
		t.Errorf("String: got %q", got)
	}
}

func TestNew_SourceValidation(t *testing.T) {
	var valErr *ValidationError

	_, err := New(nil, Options{})
	if !errors.As(err, &valErr) {
		t.Errorf("no source: expected *ValidationError, got %v", err)
	}

	_, err = New(nil, Options{RawTemplate: simpleTemplate, TemplatePath: "x.tmpl"})
	if !errors.As(err, &valErr) {
		t.Errorf("both sources: expected *ValidationError, got %v", err)
	}

	_, err = New(nil, Options{TemplatePath: "x.tmpl"})
	if !errors.As(err, &valErr) {
		t.Errorf("missing registry: expected *ValidationError, got %v", err)
	}
}

func TestNew_FromRegistryFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "greeting.tmpl")
	if err := os.WriteFile(path, []byte(simpleTemplate), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}

	reg := template.NewRegistry(10, time.Minute)
	p, err := New(map[string]any{"var1": "foobar"}, Options{
		TemplatePath: path,
		Registry:     reg,
		FromCache:    true,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := p.String(); got != "Raw string of the first part foobar" {
		t.Errorf("String: got %q", got)
	}
	if p.TemplateName() != "greeting.tmpl" || p.TemplateDir() != dir {
		t.Errorf("template metadata: got %q %q", p.TemplateName(), p.TemplateDir())
	}
}

func TestNew_TemplateNotFound(t *testing.T) {
	reg := template.NewRegistry(10, time.Minute)
	_, err := New(nil, Options{
		TemplatePath: filepath.Join(t.TempDir(), "missing.tmpl"),
		Registry:     reg,
	})
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestNew_RenderError(t *testing.T) {
	_, err := New(nil, Options{RawTemplate: `- content: '{{ template "nope" }}'`})
	var rendErr *RenderError
	if !errors.As(err, &rendErr) {
		t.Errorf("expected *RenderError, got %v", err)
	}
}

func TestMessages(t *testing.T) {
	doc := "- name: sys\n  role: system\n  content: first\n" +
		"- name: usr\n  content: second\n"
	p, err := New(nil, Options{RawTemplate: doc})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	msgs := p.Messages()
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Role != "system" || msgs[0].Content != "first" {
		t.Errorf("msgs[0]: got %+v", msgs[0])
	}
	if msgs[1].Role != "user" || msgs[1].Content != "second" {
		t.Errorf("msgs[1]: got %+v", msgs[1])
	}

	oai := p.OpenAIMessages()
	if len(oai) != 2 || oai[0].Role != "system" || oai[1].Content != "second" {
		t.Errorf("OpenAIMessages: got %+v", oai)
	}

	ant := p.AnthropicMessages()
	if len(ant) != 2 || string(ant[1].Role) != "user" {
		t.Errorf("AnthropicMessages: got %+v", ant)
	}
	if len(ant[0].Content) != 1 || ant[0].Content[0].GetText() != "first" {
		t.Errorf("AnthropicMessages content: got %+v", ant[0].Content)
	}
}

func TestReplacePrefixAt(t *testing.T) {
	doc := "- name: a\n  content: 'Alice: hello'\n"
	p, err := New(nil, Options{RawTemplate: doc, Tokenizer: byteTokenizer{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.Tokenize(); err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	before := p.TotalTokens()

	if err := p.ReplacePrefixAt(0, "Alice:", "Bob:"); err != nil {
		t.Fatalf("ReplacePrefixAt: %v", err)
	}
	if got := p.String(); got != "Bob: hello" {
		t.Errorf("String: got %q", got)
	}
	if got := p.TotalTokens(); got != before-2 {
		t.Errorf("TotalTokens: got %d, want %d", got, before-2)
	}

	// Non-matching prefix leaves the part untouched.
	if err := p.ReplacePrefixAt(0, "Carol:", "Dave:"); err != nil {
		t.Fatalf("ReplacePrefixAt: %v", err)
	}
	if got := p.String(); got != "Bob: hello" {
		t.Errorf("String after non-match: got %q", got)
	}

	err = p.ReplacePrefixAt(999, "x", "y")
	var idxErr *IndexError
	if !errors.As(err, &idxErr) {
		t.Fatalf("expected *IndexError, got %v", err)
	}
	if idxErr.Index != 999 || idxErr.Len != 1 {
		t.Errorf("IndexError fields: got %+v", idxErr)
	}
}

func TestReplacePrefixAt_LiteralMatch(t *testing.T) {
	// The old string is an exact literal prefix, not a character set:
	// replacing "a" in "aab" removes exactly one character.
	doc := "- name: a\n  content: aab\n"
	p, err := New(nil, Options{RawTemplate: doc, Tokenizer: byteTokenizer{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.ReplacePrefixAt(0, "a", "X"); err != nil {
		t.Fatalf("ReplacePrefixAt: %v", err)
	}
	if got := p.String(); got != "Xab" {
		t.Errorf("String: got %q, want %q", got, "Xab")
	}
}

func TestTokenize_RunningTotal(t *testing.T) {
	doc := "- name: a\n  content: abc\n- name: b\n  content: de\n"
	p, err := New(nil, Options{RawTemplate: doc, Tokenizer: byteTokenizer{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := p.Tokens(); !errors.Is(err, ErrNotTokenized) {
		t.Errorf("Tokens before tokenize: got %v, want ErrNotTokenized", err)
	}

	if err := p.Tokenize(); err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if got := p.TotalTokens(); got != 5 {
		t.Errorf("TotalTokens: got %d, want 5", got)
	}
	toks, err := p.Tokens()
	if err != nil {
		t.Fatalf("Tokens: %v", err)
	}
	if len(toks) != 5 {
		t.Errorf("Tokens: got %d, want 5", len(toks))
	}

	// A second pass skips already-tokenized parts and changes nothing.
	if err := p.Tokenize(); err != nil {
		t.Fatalf("Tokenize again: %v", err)
	}
	if got := p.TotalTokens(); got != 5 {
		t.Errorf("TotalTokens after re-pass: got %d, want 5", got)
	}
}

func TestRetokenize(t *testing.T) {
	doc := "- name: a\n  content: abc\n  tokens: [7, 7]\n"
	p, err := New(nil, Options{RawTemplate: doc, Tokenizer: byteTokenizer{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := p.TotalTokens(); got != 2 {
		t.Fatalf("pre-populated total: got %d, want 2", got)
	}

	// Tokenize respects the pre-populated tokens...
	if err := p.Tokenize(); err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if got := p.TotalTokens(); got != 2 {
		t.Errorf("after Tokenize: got %d, want 2", got)
	}

	// ...Retokenize replaces them and fixes the running total.
	if err := p.Retokenize(); err != nil {
		t.Fatalf("Retokenize: %v", err)
	}
	if got := p.TotalTokens(); got != 3 {
		t.Errorf("after Retokenize: got %d, want 3", got)
	}
}

func TestPretruncationSurfaces(t *testing.T) {
	specs := []partSpec{
		{name: "pinned", tokens: 30},
		{name: "history_0", tokens: 10, priority: 1},
		{name: "history_1", tokens: 10, priority: 1},
	}
	p := newTokenizedPrompt(t, specs)
	wantString := p.String()

	if err := p.TruncateTo(40, 1); err != nil {
		t.Fatalf("TruncateTo: %v", err)
	}
	if got := tokenCount(t, p); got != 40 {
		t.Fatalf("tokens: got %d, want 40", got)
	}

	if got := p.PretruncationString(); got != wantString {
		t.Errorf("PretruncationString: got %q, want %q", got, wantString)
	}
	pre, err := p.PretruncationTokens()
	if err != nil {
		t.Fatalf("PretruncationTokens: %v", err)
	}
	if len(pre) != 50 {
		t.Errorf("PretruncationTokens: got %d, want 50", len(pre))
	}
	if got := len(p.PretruncationMessages()); got != 3 {
		t.Errorf("PretruncationMessages: got %d, want 3", got)
	}
	if got := len(p.Messages()); got != 2 {
		t.Errorf("Messages: got %d, want 2", got)
	}
}
