package prompt

import (
	"fmt"

	"github.com/promptweave/promptweave/tokenizer"
)

// Tokenize tokenizes every part that does not yet carry tokens. Parts
// that arrived pre-tokenized are skipped with a non-fatal log. The
// first time the whole prompt is tokenized, a deep pretruncation
// snapshot of the part sequence is taken.
func (p *Prompt) Tokenize() error { return p.tokenizeAll(false) }

// Retokenize discards existing tokens and tokenizes every part.
func (p *Prompt) Retokenize() error { return p.tokenizeAll(true) }

func (p *Prompt) tokenizeAll(force bool) error {
	if len(p.parts) == 0 {
		return fmt.Errorf("prompt: nothing to tokenize")
	}
	for i := range p.parts {
		if err := p.tokenizePart(&p.parts[i], force); err != nil {
			return err
		}
	}
	p.snapshot()
	return nil
}

// snapshot captures the pretruncation backup if it does not exist yet.
// Every part must already carry tokens.
func (p *Prompt) snapshot() {
	if p.backup == nil {
		p.backup = cloneParts(p.parts)
		p.backupTotal = p.totalTokens
	}
}

// tokenizePart tokenizes one part, maintaining the running total. With
// force set, stale tokens are subtracted first; without it, an already
// tokenized part is skipped.
func (p *Prompt) tokenizePart(part *Part, force bool) error {
	p.cachedTokens = nil

	if part.Tokens != nil && !force {
		p.logger.Warn("part already tokenized; skipping", "name", part.Name)
		return nil
	}

	if p.tok == nil {
		tok, err := tokenizer.Default()
		if err != nil {
			return err
		}
		p.tok = tok
	}

	if part.Tokens != nil {
		p.totalTokens -= len(part.Tokens)
	}
	part.Tokens = p.tok.Tokenize(part.Content)
	p.totalTokens += len(part.Tokens)
	return nil
}

// Tokens returns the concatenated token ids of the live parts,
// failing with ErrNotTokenized if any part lacks tokens. The
// concatenation is cached until the next tokenization or truncation
// event.
func (p *Prompt) Tokens() ([]int, error) {
	if p.cachedTokens == nil {
		toks, err := concatTokens(p.parts)
		if err != nil {
			return nil, err
		}
		p.cachedTokens = toks
	}
	return p.cachedTokens, nil
}

// PretruncationTokens returns the concatenated token ids of the
// pretruncation parts.
func (p *Prompt) PretruncationTokens() ([]int, error) {
	if p.cachedBackupTokens == nil {
		toks, err := concatTokens(p.PretruncationParts())
		if err != nil {
			return nil, err
		}
		p.cachedBackupTokens = toks
	}
	return p.cachedBackupTokens, nil
}

func concatTokens(parts []Part) ([]int, error) {
	n := 0
	for i := range parts {
		if parts[i].Tokens == nil {
			return nil, fmt.Errorf("%w: part %q has no tokens", ErrNotTokenized, parts[i].Name)
		}
		n += len(parts[i].Tokens)
	}
	out := make([]int, 0, n)
	for i := range parts {
		out = append(out, parts[i].Tokens...)
	}
	return out, nil
}
