// File path: internal/llm/llm.go
package llm

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/svinnapolean/business-requirement-extractor/internal/common"
	"github.com/svinnapolean/business-requirement-extractor/internal/llm/providers"
)

type Message = providers.Message

type Provider = providers.Provider

// NewProvider selects the provider chain from the environment. With an
// OPENAI_API_KEY the chain is OpenAI first with the local provider as the
// last resort; without one the local provider serves everything.
func NewProvider() Provider {
	logger := common.Logger()
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		logger.Warn("llm: OPENAI_API_KEY not set; using local provider")
		return providers.NewLocalProvider()
	}
	cfg := providers.OpenAIConfig{
		APIKey:     apiKey,
		BaseURL:    strings.TrimSpace(os.Getenv("OPENAI_ENDPOINT")),
		ChatModel:  strings.TrimSpace(os.Getenv("OPENAI_CHAT_MODEL")),
		EmbedModel: strings.TrimSpace(os.Getenv("OPENAI_EMBED_MODEL")),
	}
	if timeoutStr := strings.TrimSpace(os.Getenv("OPENAI_HTTP_TIMEOUT")); timeoutStr != "" {
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			logger.Warn("llm: invalid OPENAI_HTTP_TIMEOUT, using default", "value", timeoutStr, "error", err)
		} else {
			cfg.HTTPTimeout = timeout
		}
	}
	if cfg.BaseURL != "" {
		logger.Info("llm: OpenAI provider selected with custom endpoint", "endpoint", cfg.BaseURL)
	} else {
		logger.Info("llm: OpenAI provider selected")
	}
	return NewFallback(providers.NewOpenAIProvider(cfg), providers.NewLocalProvider())
}

// NormalizeMessages lowercases roles and rejects empty conversations.
func NormalizeMessages(messages []Message) ([]Message, error) {
	if len(messages) == 0 {
		return nil, errors.New("no messages provided")
	}
	for i := range messages {
		messages[i].Role = strings.ToLower(messages[i].Role)
	}
	return messages, nil
}
