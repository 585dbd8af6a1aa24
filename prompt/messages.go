package prompt

// Message is one role-tagged chat record of the prompt.
type Message struct {
	Role    string `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// Messages returns the live parts as chat messages.
func (p *Prompt) Messages() []Message { return messagesFor(p.parts) }

// PretruncationMessages returns the pretruncation parts as chat
// messages.
func (p *Prompt) PretruncationMessages() []Message {
	return messagesFor(p.PretruncationParts())
}

func messagesFor(parts []Part) []Message {
	msgs := make([]Message, len(parts))
	for i := range parts {
		msgs[i] = Message{Role: parts[i].Role, Content: parts[i].Content}
	}
	return msgs
}
