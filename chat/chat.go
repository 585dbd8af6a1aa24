// Package chat provides helper functions for building chat-style
// prompt templates: author-name canonicalization, narrator injection,
// and coarse pretruncation of dialogue histories.
//
// Helpers are exposed to templates through Funcs, an explicitly built
// registration table, and an embedded example template is available
// through RegisterTemplates.
package chat

import (
	"embed"
	"regexp"
	"strings"

	"github.com/promptweave/promptweave/prompt"
	"github.com/promptweave/promptweave/template"
)

const (
	// DefaultUsername replaces absent or placeholder user names.
	DefaultUsername = "user"
	// NarratorName is the author injected into unattributed lines.
	NarratorName = "narrator"

	dash = "-"
)

// Namespace is the registry namespace the embedded example templates
// are registered under.
const Namespace = "examples"

//go:embed templates
var templatesFS embed.FS

// RegisterTemplates makes the embedded example templates resolvable
// through r under Namespace.
func RegisterTemplates(r *template.Registry) {
	r.RegisterFS(Namespace, templatesFS)
}

// Message is one chat message as consumed by the example templates.
type Message struct {
	Author   string
	Text     string
	IsPinned bool
}

// Character describes the persona a chat template renders around.
type Character struct {
	Title           string
	Description     string
	Definition      string
	ParticipantName string
}

// CanonicalizeName joins whitespace-separated name words with dashes,
// matching the author format used in training data. An empty name
// becomes the "-" placeholder.
func CanonicalizeName(name string) string {
	if name == "" {
		return dash
	}
	return strings.Join(strings.Fields(name), dash)
}

// CanonicalizeUserName is CanonicalizeName with the upstream "-"
// placeholder mapped back to the default username.
func CanonicalizeUserName(name string) string {
	if name == "" || name == dash {
		return DefaultUsername
	}
	return strings.Join(strings.Fields(name), dash)
}

var authorPrefix = regexp.MustCompile(`^[\w-]+:`)

// MaybeInjectNarrator prefixes message with the narrator author when it
// does not already carry an "author:" prefix.
func MaybeInjectNarrator(message string) string {
	if authorPrefix.MatchString(message) {
		return message
	}
	return NarratorName + ": " + message
}

// CharacterDefinitionMessages expands a character's title, description
// and definition lines into messages attributed to the character.
// Definition lines carry no author so the narrator is injected later.
func CharacterDefinitionMessages(c Character) []Message {
	name := CanonicalizeName(c.ParticipantName)

	var msgs []Message
	switch {
	case c.Description != "":
		text := c.Description
		if c.Title != "" {
			text = c.Title + " - " + c.Description
		}
		msgs = append(msgs, Message{Author: name, Text: text})
	case c.Title != "":
		msgs = append(msgs, Message{Author: name, Text: c.Title})
	}

	if c.Definition != "" {
		for _, line := range strings.Split(c.Definition, "\n") {
			msgs = append(msgs, Message{Text: line})
		}
	}
	return msgs
}

// PretruncateMessages coarsely trims a long dialogue history before
// rendering, dropping from the front so the tail survives. A negative
// tokenLimit disables trimming. This is a cheap pre-pass; precise
// budgeting happens during prompt truncation.
func PretruncateMessages(msgs []Message, tokenLimit int) []Message {
	if tokenLimit < 0 {
		return msgs
	}
	step := tokenLimit / 10
	if step <= 0 {
		return msgs
	}
	for len(msgs) > 2*step {
		msgs = msgs[step:]
	}
	return msgs
}

// EscapeSequences rewrites newlines, carriage returns and quotes with
// the default escape scheme so user text can be embedded in a rendered
// document without breaking its parsing.
func EscapeSequences(s string) string {
	return prompt.DefaultEscapes().Escape(s)
}

// Funcs returns the helper registration table for chat templates.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"canonicalize_name":             CanonicalizeName,
		"canonicalize_user_name":        CanonicalizeUserName,
		"maybe_inject_narrator":         MaybeInjectNarrator,
		"character_definition_messages": CharacterDefinitionMessages,
		"pretruncate_messages":          PretruncateMessages,
		"escape_sequences":              EscapeSequences,
	}
}
