package ai

import (
	"context"

	"github.com/Vovarama1992/relay_bot/internal/history"
	openai "github.com/sashabaranov/go-openai"
)

// ChatClient is the part of *openai.Client the service calls.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	CreateImage(ctx context.Context, req openai.ImageRequest) (openai.ImageResponse, error)
}

// HistoryReader yields the live turns of a conversation in insertion order.
type HistoryReader interface {
	MessagesFor(key string) []*history.Message
}

// Completer is what the inbound pipeline needs from this package.
type Completer interface {
	Complete(ctx context.Context, payload []openai.ChatCompletionMessage) (string, error)
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
	Analyze(ctx context.Context, text, attribute string) (string, error)
}
