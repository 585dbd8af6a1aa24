// Package prompt assembles a structured prompt from a template and a
// data context, tokenizes it, and truncates it to a token budget by
// removing parts in caller-declared priority order.
//
// A Prompt is owned by a single goroutine; callers needing concurrent
// truncation of independent prompts should build independent instances.
package prompt

import (
	"io"
	"log/slog"
	"maps"
	"path"
	"path/filepath"
	"strings"

	"github.com/promptweave/promptweave/template"
	"github.com/promptweave/promptweave/tokenizer"
)

const (
	// NoTokenLimit disables truncation.
	NoTokenLimit = -1
	// DefaultTruncationStep batches truncation so that repeated calls
	// with a coarse granularity recompute less often.
	DefaultTruncationStep = 1000
)

// Template data keys injected during rendering. Supplying either in
// caller data is a *ReservedKeyError.
const (
	tokenLimitKey = "token_limit"
	escapeFuncKey = "escape_special_characters"
)

// Options configures prompt construction. Exactly one template source,
// TemplatePath or RawTemplate, must be set.
type Options struct {
	// TemplatePath locates the template file; its directory and file
	// name form the registry key. With Namespace set, the path is
	// resolved inside that registered filesystem instead of on disk.
	TemplatePath string
	Namespace    string

	// RawTemplate is an inline template source, compiled directly and
	// never cached.
	RawTemplate string

	// Registry resolves and caches compiled templates. Required with
	// TemplatePath.
	Registry *template.Registry

	// FromCache opts this lookup into the registry cache.
	FromCache bool

	// Funcs are helper functions made available to the template, an
	// explicit registration table built by the caller.
	Funcs template.FuncMap

	// Tokenizer overrides the process-wide default tokenizer.
	Tokenizer tokenizer.Tokenizer

	// TokenLimit is the post-truncation token budget. Zero means
	// NoTokenLimit.
	TokenLimit int

	// TruncationStep is the removal batching granularity. Zero means
	// DefaultTruncationStep.
	TruncationStep int

	// Escapes overrides the default escape scheme.
	Escapes *EscapeScheme

	// Logger receives non-fatal diagnostics. Defaults to a discard
	// logger.
	Logger *slog.Logger
}

// Prompt is an assembled prompt: an ordered sequence of parts, their
// running token total, and the pretruncation snapshot that makes
// truncation idempotent and reversible.
type Prompt struct {
	tmpl   *template.Template
	logger *slog.Logger
	tok    tokenizer.Tokenizer
	esc    EscapeScheme

	tokenLimit     int
	truncationStep int

	parts       []Part
	backup      []Part
	backupTotal int
	totalTokens int

	cachedTokens       []int
	cachedBackupTokens []int
}

// New renders the template with data and assembles the prompt parts.
// The rendered document must be a YAML sequence of part records, each
// with a required content field.
func New(data map[string]any, opts Options) (*Prompt, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.TokenLimit == 0 {
		opts.TokenLimit = NoTokenLimit
	}
	if opts.TruncationStep == 0 {
		opts.TruncationStep = DefaultTruncationStep
	}

	for _, key := range []string{tokenLimitKey, escapeFuncKey} {
		if _, ok := data[key]; ok {
			return nil, &ReservedKeyError{Key: key}
		}
	}

	esc := DefaultEscapes()
	if opts.Escapes != nil {
		esc = *opts.Escapes
	}

	tdata := maps.Clone(data)
	if tdata == nil {
		tdata = make(map[string]any, 1)
	}
	tdata[tokenLimitKey] = opts.TokenLimit

	funcs := make(template.FuncMap, len(opts.Funcs)+1)
	for name, fn := range opts.Funcs {
		funcs[name] = fn
	}
	funcs[escapeFuncKey] = esc.Escape

	tmpl, err := resolveTemplate(opts, funcs)
	if err != nil {
		return nil, err
	}

	rendered, err := tmpl.Render(tdata, funcs)
	if err != nil {
		return nil, &RenderError{Template: tmpl.Name(), Err: err}
	}

	parts, pretokenized, err := assembleParts(rendered, esc, logger)
	if err != nil {
		return nil, err
	}

	return &Prompt{
		tmpl:           tmpl,
		logger:         logger,
		tok:            opts.Tokenizer,
		esc:            esc,
		tokenLimit:     opts.TokenLimit,
		truncationStep: opts.TruncationStep,
		parts:          parts,
		totalTokens:    pretokenized,
	}, nil
}

func resolveTemplate(opts Options, funcs template.FuncMap) (*template.Template, error) {
	switch {
	case opts.RawTemplate != "" && opts.TemplatePath != "":
		return nil, &ValidationError{Field: "template source", Reason: "TemplatePath and RawTemplate are mutually exclusive"}
	case opts.RawTemplate != "":
		tmpl, err := template.Parse(opts.RawTemplate, funcs)
		if err != nil {
			return nil, &RenderError{Template: "raw", Err: err}
		}
		return tmpl, nil
	case opts.TemplatePath != "":
		if opts.Registry == nil {
			return nil, &ValidationError{Field: "registry", Reason: "required with TemplatePath"}
		}
		dir, name := splitTemplatePath(opts.TemplatePath, opts.Namespace != "")
		return opts.Registry.Get(template.Key{
			Namespace: opts.Namespace,
			Dir:       dir,
			Name:      name,
		}, funcs, opts.FromCache)
	default:
		return nil, &ValidationError{Field: "template source", Reason: "one of TemplatePath or RawTemplate is required"}
	}
}

// splitTemplatePath splits a template path into registry dir and name.
// Namespaced paths are always slash-separated (io/fs semantics).
func splitTemplatePath(p string, namespaced bool) (dir, name string) {
	if namespaced {
		dir, name = path.Split(p)
	} else {
		dir, name = filepath.Split(p)
	}
	dir = strings.TrimSuffix(dir, "/")
	if dir == "" {
		dir = "."
	}
	return dir, name
}

// Parts returns the live part sequence.
func (p *Prompt) Parts() []Part { return p.parts }

// PretruncationParts returns the parts captured at first tokenization,
// or the live parts when no snapshot exists yet.
func (p *Prompt) PretruncationParts() []Part {
	if p.backup != nil {
		return p.backup
	}
	return p.parts
}

// String returns the concatenated content of the live parts.
func (p *Prompt) String() string { return concatContent(p.parts) }

// PretruncationString returns the concatenated content of the
// pretruncation parts.
func (p *Prompt) PretruncationString() string {
	return concatContent(p.PretruncationParts())
}

func concatContent(parts []Part) string {
	var sb strings.Builder
	for i := range parts {
		sb.WriteString(parts[i].Content)
	}
	return sb.String()
}

// TokenLimit returns the token budget configured at construction.
func (p *Prompt) TokenLimit() int { return p.tokenLimit }

// TruncationStep returns the truncation granularity configured at
// construction.
func (p *Prompt) TruncationStep() int { return p.truncationStep }

// TotalTokens returns the running token total across tokenized parts.
func (p *Prompt) TotalTokens() int { return p.totalTokens }

// TemplateName returns the name of the template the prompt was rendered
// from.
func (p *Prompt) TemplateName() string { return p.tmpl.Name() }

// TemplateDir returns the directory of the template the prompt was
// rendered from.
func (p *Prompt) TemplateDir() string { return p.tmpl.Dir() }

// ReplacePrefixAt replaces old with new at the start of the part at
// index and retokenizes only that part, updating the running total.
// A part that does not start with old is left unchanged. Matching is
// against the exact literal prefix.
//
// This deliberately reaches across the boundary between rendering and
// post-render editing: it mutates content the template produced. No
// other part's content or token state is touched.
func (p *Prompt) ReplacePrefixAt(index int, old, new string) error {
	if index < 0 || index >= len(p.parts) {
		return &IndexError{Index: index, Len: len(p.parts)}
	}
	part := &p.parts[index]
	if !strings.HasPrefix(part.Content, old) {
		return nil
	}
	part.Content = new + part.Content[len(old):]
	return p.tokenizePart(part, true)
}
