package prompt

import (
	"fmt"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultRole is assigned to parts whose record carries no role.
const DefaultRole = "user"

// DefaultSpaceMarker is the placeholder substituted for intentional
// leading or trailing spaces, which whitespace trimming would otherwise
// destroy.
const DefaultSpaceMarker = "<|space|>"

// Part is one named, role-tagged fragment of the assembled prompt.
type Part struct {
	// Name identifies the part in diagnostics and targeting.
	Name string
	// Content is the text payload. It is only mutated through
	// Prompt.ReplacePrefixAt.
	Content string
	// Role tags the author of the part, e.g. "system" or "user".
	Role string
	// Tokens holds the tokenized Content; nil until tokenized.
	Tokens []int
	// TruncationPriority controls removal order during truncation:
	// values <= 0 protect the part from removal, larger values are
	// removed earlier.
	TruncationPriority int
}

// EscapeScheme describes how the rendered document escapes the
// characters that would break its serialization, plus the space-marker
// placeholder. Each pair is independently configurable.
type EscapeScheme struct {
	SpaceMarker string

	Newline        string
	EscapedNewline string

	CarriageReturn        string
	EscapedCarriageReturn string

	SingleQuote        string
	EscapedSingleQuote string
}

// DefaultEscapes returns the default scheme: backslash escapes for
// newline and carriage return, and a self-mapping single quote (a no-op
// unless overridden).
func DefaultEscapes() EscapeScheme {
	return EscapeScheme{
		SpaceMarker:           DefaultSpaceMarker,
		Newline:               "\n",
		EscapedNewline:        `\n`,
		CarriageReturn:        "\r",
		EscapedCarriageReturn: `\r`,
		SingleQuote:           "'",
		EscapedSingleQuote:    "'",
	}
}

// Escape rewrites raw sequences into their escaped forms so a value can
// be embedded in the rendered document without breaking its parsing.
func (e EscapeScheme) Escape(s string) string {
	s = strings.ReplaceAll(s, e.Newline, e.EscapedNewline)
	s = strings.ReplaceAll(s, e.CarriageReturn, e.EscapedCarriageReturn)
	return strings.ReplaceAll(s, e.SingleQuote, e.EscapedSingleQuote)
}

// Unescape reverses Escape.
func (e EscapeScheme) Unescape(s string) string {
	s = strings.ReplaceAll(s, e.EscapedNewline, e.Newline)
	s = strings.ReplaceAll(s, e.EscapedCarriageReturn, e.CarriageReturn)
	return strings.ReplaceAll(s, e.EscapedSingleQuote, e.SingleQuote)
}

// rawPart is the wire form of one part in the rendered document.
type rawPart struct {
	Name               string  `yaml:"name"`
	Content            *string `yaml:"content"`
	Role               string  `yaml:"role"`
	Tokens             []int   `yaml:"tokens"`
	TruncationPriority int     `yaml:"truncation_priority"`
}

// assembleParts decodes the rendered document into canonical parts:
// content is trimmed, space markers become literal spaces, and escape
// sequences are reversed. The second return value is the token count
// carried by records that arrived already tokenized.
func assembleParts(rendered string, esc EscapeScheme, logger *slog.Logger) ([]Part, int, error) {
	var raws []rawPart
	if err := yaml.Unmarshal([]byte(rendered), &raws); err != nil {
		return nil, 0, fmt.Errorf("prompt: decode rendered document: %w", err)
	}

	parts := make([]Part, len(raws))
	pretokenized := 0
	for i, raw := range raws {
		if raw.Content == nil {
			return nil, 0, &MalformedPartError{Index: i, Field: "content"}
		}
		role := raw.Role
		if role == "" {
			role = DefaultRole
		}

		content := strings.TrimSpace(*raw.Content)
		content = strings.ReplaceAll(content, esc.SpaceMarker, " ")
		content = esc.Unescape(content)

		parts[i] = Part{
			Name:               raw.Name,
			Content:            content,
			Role:               role,
			Tokens:             raw.Tokens,
			TruncationPriority: raw.TruncationPriority,
		}

		if raw.Tokens != nil {
			logger.Warn("part carries pre-populated tokens; tokenization will be skipped",
				"index", i, "name", raw.Name)
			pretokenized += len(raw.Tokens)
		}
	}
	return parts, pretokenized, nil
}

// cloneParts deep-copies a part sequence, including token slices.
func cloneParts(parts []Part) []Part {
	out := make([]Part, len(parts))
	for i, p := range parts {
		out[i] = p
		if p.Tokens != nil {
			out[i].Tokens = append([]int(nil), p.Tokens...)
		}
	}
	return out
}
