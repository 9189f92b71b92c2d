// File path: internal/llm/providers/openai.go
package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIConfig carries the provider settings. BaseURL makes the client
// usable against any OpenAI-compatible endpoint.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	ChatModel   string
	EmbedModel  string
	Dimensions  int
	Temperature float32
	HTTPTimeout time.Duration
}

// OpenAIProvider serves chat completions and embeddings. Embedding
// requests pin the output dimensionality so vectors always match the
// configured collection.
type OpenAIProvider struct {
	client      *openai.Client
	chatModel   string
	embedModel  openai.EmbeddingModel
	dimensions  int
	temperature float32
}

func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if strings.TrimSpace(cfg.BaseURL) != "" {
		clientCfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	}
	if cfg.HTTPTimeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	chatModel := strings.TrimSpace(cfg.ChatModel)
	if chatModel == "" {
		chatModel = openai.GPT3Dot5Turbo
	}
	embedModel := strings.TrimSpace(cfg.EmbedModel)
	if embedModel == "" {
		embedModel = string(openai.SmallEmbedding3)
	}
	dimensions := cfg.Dimensions
	if dimensions <= 0 {
		dimensions = 384
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = 0.2
	}
	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(clientCfg),
		chatModel:   chatModel,
		embedModel:  openai.EmbeddingModel(embedModel),
		dimensions:  dimensions,
		temperature: temperature,
	}
}

func (p *OpenAIProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", errors.New("no messages provided")
	}
	chatMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		role := strings.ToLower(strings.TrimSpace(msg.Role))
		switch role {
		case openai.ChatMessageRoleSystem, openai.ChatMessageRoleAssistant, openai.ChatMessageRoleUser:
		default:
			role = openai.ChatMessageRoleUser
		}
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.chatModel,
		Temperature: p.temperature,
		Messages:    chatMessages,
	})
	if err != nil {
		return "", describeAPIError("chat completion", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: empty chat response")
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) Embed(ctx context.Context, input []string) ([][]float32, error) {
	if len(input) == 0 {
		return nil, nil
	}
	req := openai.EmbeddingRequest{
		Input:          input,
		Model:          p.embedModel,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}
	if p.dimensions > 0 {
		req.Dimensions = p.dimensions
	}
	resp, err := p.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, describeAPIError("embeddings", err)
	}
	if len(resp.Data) != len(input) {
		return nil, fmt.Errorf("openai: expected %d embeddings, got %d", len(input), len(resp.Data))
	}
	vectors := make([][]float32, len(resp.Data))
	for i, item := range resp.Data {
		vectors[i] = item.Embedding
	}
	return vectors, nil
}

func (p *OpenAIProvider) Name() string {
	return "openai"
}

// describeAPIError surfaces the status and message buried in the client's
// typed errors so callers log something actionable.
func describeAPIError(op string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("openai %s failed (status %d): %s", op, apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("openai %s failed (status %d): %s", op, reqErr.HTTPStatusCode, strings.TrimSpace(string(reqErr.Body)))
	}
	return fmt.Errorf("openai %s failed: %w", op, err)
}
