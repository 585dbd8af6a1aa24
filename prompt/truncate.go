package prompt

import (
	"fmt"
	"sort"
)

// truncationBlock is a maximal run of position-adjacent parts sharing
// one truncation priority: the atomic unit of bulk removal. Blocks are
// recomputed on every truncation attempt because they are
// position-dependent.
type truncationBlock struct {
	left, right int
	priority    int
	totalTokens int
}

// Truncate truncates to the token limit and step configured at
// construction.
func (p *Prompt) Truncate() error {
	return p.TruncateTo(p.tokenLimit, p.truncationStep)
}

// TruncateTo removes parts in priority order until the prompt fits
// within tokenLimit. The removal requirement is rounded up to a
// multiple of truncationStep, trading budget tightness for fewer
// recomputations when the caller re-truncates repeatedly.
//
// Every call starts from the pretruncation snapshot, so repeated calls
// are idempotent and never cumulative. If removing every eligible part
// still leaves the prompt above the limit, the snapshot is restored and
// a *TruncationError returned.
//
// Every part must already carry tokens; tokenLimit == NoTokenLimit is a
// no-op.
func (p *Prompt) TruncateTo(tokenLimit, truncationStep int) error {
	if tokenLimit == NoTokenLimit {
		p.logger.Info("truncation disabled; nothing to do")
		return nil
	}
	if tokenLimit <= 0 {
		return &ValidationError{Field: "token_limit", Reason: fmt.Sprintf("must be >= 1 or NoTokenLimit, got %d", tokenLimit)}
	}
	if truncationStep <= 0 {
		return &ValidationError{Field: "truncation_step", Reason: fmt.Sprintf("must be >= 1, got %d", truncationStep)}
	}
	if len(p.parts) == 0 {
		return nil
	}
	for i := range p.parts {
		if p.parts[i].Tokens == nil {
			return fmt.Errorf("%w: part %q has no tokens", ErrNotTokenized, p.parts[i].Name)
		}
	}

	// All parts are tokenized here, so the snapshot can be taken even
	// if Tokenize was never called (every part arrived pre-tokenized).
	p.snapshot()
	p.resetParts()

	need := p.tokensToRemove(tokenLimit, truncationStep)
	blocks := p.buildBlocks()
	p.removeParts(blocks, need)

	if p.totalTokens > tokenLimit {
		total := p.totalTokens
		p.resetParts()
		return &TruncationError{TokenLimit: tokenLimit, TotalTokens: total}
	}
	return nil
}

// resetParts restores the live sequence from the pretruncation
// snapshot.
func (p *Prompt) resetParts() {
	p.cachedTokens = nil
	p.parts = cloneParts(p.backup)
	p.totalTokens = p.backupTotal
}

// tokensToRemove computes the surplus over the limit, rounded up to a
// multiple of the step.
func (p *Prompt) tokensToRemove(tokenLimit, truncationStep int) int {
	surplus := p.totalTokens - tokenLimit
	if surplus <= 0 {
		return 0
	}
	return (surplus + truncationStep - 1) / truncationStep * truncationStep
}

// buildBlocks partitions the live parts into contiguous priority
// blocks, drops protected blocks (priority <= 0), and orders the rest
// by priority descending. Equal-priority blocks keep document order.
func (p *Prompt) buildBlocks() []truncationBlock {
	if len(p.parts) == 0 {
		return nil
	}

	var blocks []truncationBlock
	cur := truncationBlock{
		priority:    p.parts[0].TruncationPriority,
		totalTokens: len(p.parts[0].Tokens),
	}
	for i := 1; i < len(p.parts); i++ {
		part := &p.parts[i]
		if part.TruncationPriority == cur.priority {
			cur.totalTokens += len(part.Tokens)
			continue
		}
		cur.right = i - 1
		blocks = append(blocks, cur)
		cur = truncationBlock{
			left:        i,
			priority:    part.TruncationPriority,
			totalTokens: len(part.Tokens),
		}
	}
	cur.right = len(p.parts) - 1
	blocks = append(blocks, cur)

	eligible := blocks[:0]
	for _, b := range blocks {
		if b.priority > 0 {
			eligible = append(eligible, b)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].priority > eligible[j].priority
	})

	if len(eligible) == 0 {
		p.logger.Warn("no parts carry a positive truncation priority; nothing is removable")
	}
	return eligible
}

// removeParts walks the ordered blocks, removing whole blocks while
// they fit within the remaining need and otherwise removing parts one
// at a time, left to right, until the need is met. Removal operates at
// part granularity; a single part's token list is never split.
func (p *Prompt) removeParts(blocks []truncationBlock, need int) {
	if need == 0 || len(blocks) == 0 {
		return
	}

	remove := make([]bool, len(p.parts))
	removed := 0
	for _, b := range blocks {
		if removed+b.totalTokens <= need {
			for i := b.left; i <= b.right; i++ {
				remove[i] = true
			}
			removed += b.totalTokens
		} else {
			for i := b.left; i <= b.right; i++ {
				removed += len(p.parts[i].Tokens)
				remove[i] = true
				if removed >= need {
					break
				}
			}
		}
		if removed >= need {
			break
		}
	}

	kept := p.parts[:0]
	for i := range p.parts {
		if !remove[i] {
			kept = append(kept, p.parts[i])
		}
	}
	p.parts = kept
	p.totalTokens -= removed
	p.cachedTokens = nil
}
