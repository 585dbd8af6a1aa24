package prompt

import anthropic "github.com/liushuangls/go-anthropic/v2"

// AnthropicMessages returns the live parts as Anthropic messages.
// Parts keep their roles unchanged; callers following the Anthropic
// convention should route system parts through the request's System
// field instead.
func (p *Prompt) AnthropicMessages() []anthropic.Message {
	msgs := make([]anthropic.Message, len(p.parts))
	for i := range p.parts {
		msgs[i] = anthropic.Message{
			Role:    anthropic.ChatRole(p.parts[i].Role),
			Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(p.parts[i].Content)},
		}
	}
	return msgs
}
