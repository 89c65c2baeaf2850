package ai

import (
	"github.com/Vovarama1992/relay_bot/internal/history"
	openai "github.com/sashabaranov/go-openai"
)

// AssemblePayload builds the completion request for one conversation: the system
// prompt followed by every live turn of key in insertion order. Only user turns
// carry a name.
func AssemblePayload(h HistoryReader, key, systemPrompt string) []openai.ChatCompletionMessage {
	turns := h.MessagesFor(key)

	payload := make([]openai.ChatCompletionMessage, 0, len(turns)+1)
	payload = append(payload, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})

	for _, m := range turns {
		msg := openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Text,
		}
		if m.Role == history.RoleUser && m.SpeakerName != "" {
			msg.Name = m.SpeakerName
		}
		payload = append(payload, msg)
	}
	return payload
}
