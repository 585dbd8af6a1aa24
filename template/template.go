// Package template loads, compiles and caches the text templates that
// prompts are rendered from.
//
// Helper functions are made available to templates through an explicit
// FuncMap built by the caller; nothing is discovered by reflection.
package template

import (
	"fmt"
	"strings"
	texttemplate "text/template"
)

// FuncMap is the helper-function registration table supplied at
// compile time and rebindable at render time.
type FuncMap = texttemplate.FuncMap

// Template is a compiled template plus the metadata it was loaded under.
type Template struct {
	name      string
	dir       string
	namespace string
	tmpl      *texttemplate.Template
}

// Name returns the template file name ("raw" for inline templates).
func (t *Template) Name() string { return t.name }

// Dir returns the directory the template was loaded from.
func (t *Template) Dir() string { return t.dir }

// Namespace returns the registered filesystem namespace the template
// was resolved in, or "" for on-disk templates.
func (t *Template) Namespace() string { return t.namespace }

// Parse compiles an inline template string. funcs must name every
// helper the template body references.
func Parse(raw string, funcs FuncMap) (*Template, error) {
	tmpl, err := newText("raw", funcs).Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("template: parse raw template: %w", err)
	}
	return &Template{name: "raw", tmpl: tmpl}, nil
}

// Render executes the template with data. funcs may rebind helpers that
// were registered at compile time, e.g. a per-prompt escape function;
// the compiled template is cloned first so cached handles stay
// shareable across prompts.
func (t *Template) Render(data map[string]any, funcs FuncMap) (string, error) {
	tmpl := t.tmpl
	if len(funcs) > 0 {
		clone, err := t.tmpl.Clone()
		if err != nil {
			return "", fmt.Errorf("template: clone %s: %w", t.name, err)
		}
		tmpl = clone.Funcs(funcs)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("template: render %s: %w", t.name, err)
	}
	return sb.String(), nil
}

func newText(name string, funcs FuncMap) *texttemplate.Template {
	tmpl := texttemplate.New(name).Option("missingkey=zero")
	if len(funcs) > 0 {
		tmpl = tmpl.Funcs(funcs)
	}
	return tmpl
}
