package prompt

import openai "github.com/sashabaranov/go-openai"

// OpenAIMessages returns the live parts as OpenAI chat completion
// messages, ready to pass to a ChatCompletionRequest.
func (p *Prompt) OpenAIMessages() []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, len(p.parts))
	for i := range p.parts {
		msgs[i] = openai.ChatCompletionMessage{
			Role:    p.parts[i].Role,
			Content: p.parts[i].Content,
		}
	}
	return msgs
}
