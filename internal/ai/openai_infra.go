package ai

import (
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const requestTimeout = 2 * time.Minute

// NewOpenAIClient builds the go-openai client. An empty baseURL keeps the public API.
func NewOpenAIClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if u := strings.TrimRight(strings.TrimSpace(baseURL), "/"); u != "" {
		cfg.BaseURL = u
	}
	cfg.HTTPClient = &http.Client{Timeout: requestTimeout}
	return openai.NewClientWithConfig(cfg)
}
