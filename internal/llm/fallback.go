// File path: internal/llm/fallback.go
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/svinnapolean/business-requirement-extractor/internal/common"
)

// ErrNoProviders reports an empty fallback chain.
var ErrNoProviders = errors.New("no providers configured")

// ChatResult carries the completion text plus the provider that actually
// served it, which callers surface in their responses.
type ChatResult struct {
	Text     string
	Provider string
}

// Fallback tries each provider in order and returns the first success.
// There is no retry within a provider: a failure moves straight to the
// next one, and the errors aggregate when every provider fails.
type Fallback struct {
	chain []Provider
}

func NewFallback(chain ...Provider) *Fallback {
	filtered := make([]Provider, 0, len(chain))
	for _, p := range chain {
		if p != nil {
			filtered = append(filtered, p)
		}
	}
	return &Fallback{chain: filtered}
}

func (f *Fallback) Chat(ctx context.Context, messages []Message) (string, error) {
	result, err := f.ChatWithProvider(ctx, messages)
	return result.Text, err
}

// ChatWithProvider is Chat plus the name of the provider that served.
func (f *Fallback) ChatWithProvider(ctx context.Context, messages []Message) (ChatResult, error) {
	if len(f.chain) == 0 {
		return ChatResult{}, ErrNoProviders
	}
	normalized, err := NormalizeMessages(messages)
	if err != nil {
		return ChatResult{}, err
	}
	logger := common.Logger()
	var errs []error
	for _, p := range f.chain {
		text, err := p.Chat(ctx, normalized)
		if err == nil {
			return ChatResult{Text: text, Provider: p.Name()}, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		if ctx.Err() != nil {
			break
		}
		logger.Warn("llm: provider chat failed, trying next", "provider", p.Name(), "error", err)
	}
	return ChatResult{}, fmt.Errorf("llm: all providers failed: %w", errors.Join(errs...))
}

func (f *Fallback) Embed(ctx context.Context, input []string) ([][]float32, error) {
	if len(f.chain) == 0 {
		return nil, ErrNoProviders
	}
	logger := common.Logger()
	var errs []error
	for _, p := range f.chain {
		vectors, err := p.Embed(ctx, input)
		if err == nil {
			return vectors, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		if ctx.Err() != nil {
			break
		}
		logger.Warn("llm: provider embed failed, trying next", "provider", p.Name(), "error", err)
	}
	return nil, fmt.Errorf("llm: all providers failed: %w", errors.Join(errs...))
}

func (f *Fallback) Name() string {
	names := make([]string, 0, len(f.chain))
	for _, p := range f.chain {
		names = append(names, p.Name())
	}
	return strings.Join(names, ">")
}
