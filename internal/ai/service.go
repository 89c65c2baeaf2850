package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const analyzePrompt = "In one word, describe the %s of any of the statements provided."

type Options struct {
	Model        string
	MaxTokens    int
	Temperature  float32
	MaxRetries   int
	RetryBackoff time.Duration
	ImageModel   string
}

// Service wraps the completion API with the retry policy.
type Service struct {
	client ChatClient
	opts   Options
	log    *zap.Logger
}

func NewService(client ChatClient, opts Options, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	if opts.ImageModel == "" {
		opts.ImageModel = openai.CreateImageModelDallE3
	}
	return &Service{client: client, opts: opts, log: log}
}

// Complete sends payload and returns the assistant text.
//
// 429 and 5xx answers are retried after the backoff, other 4xx answers fail at
// once with *BadRequestError, transport failures are retried without waiting.
// A 200 with no content yields FallbackReply.
func (s *Service) Complete(ctx context.Context, payload []openai.ChatCompletionMessage) (string, error) {
	state := newAttemptState(s.opts.MaxRetries)

	for !state.done() {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("ai: completion aborted: %w", err)
		}

		content, err := s.attempt(ctx, payload)
		next := transition(state, attemptOutcome{content: content, err: err})
		if err != nil {
			s.log.Warn("completion attempt failed",
				zap.Int("attempt", state.attempt),
				zap.Int("budget", state.budget),
				zap.Int("status", httpStatus(err)),
				zap.String("next", next.phase.String()),
				zap.Error(err),
			)
		}
		state = next

		if state.phase == phaseAttempting && state.backoff {
			if err := sleep(ctx, s.opts.RetryBackoff); err != nil {
				return "", fmt.Errorf("ai: completion aborted: %w", err)
			}
		}
	}

	if state.phase != phaseSucceeded {
		return "", state.err
	}
	return state.reply, nil
}

func (s *Service) attempt(ctx context.Context, payload []openai.ChatCompletionMessage) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.opts.Model,
		MaxTokens:   s.opts.MaxTokens,
		Temperature: s.opts.Temperature,
		Messages:    payload,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateImage returns the PNG bytes of a single 1024x1024 image.
func (s *Service) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	resp, err := s.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          s.opts.ImageModel,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return nil, fmt.Errorf("ai: create image: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, ErrNoImage
	}

	img, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("ai: decode image: %w", err)
	}
	return img, nil
}

// Analyze asks for a one-word description of attribute (mood, sentiment, tone) of text.
func (s *Service) Analyze(ctx context.Context, text, attribute string) (string, error) {
	payload := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: fmt.Sprintf(analyzePrompt, attribute)},
		{Role: openai.ChatMessageRoleUser, Content: text},
	}
	out, err := s.Complete(ctx, payload)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
