// File path: internal/llm/fallback_test.go
package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type stubProvider struct {
	name    string
	chatErr error
	reply   string
	embErr  error
	vectors [][]float32
}

func (s *stubProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	if s.chatErr != nil {
		return "", s.chatErr
	}
	return s.reply, nil
}

func (s *stubProvider) Embed(ctx context.Context, input []string) ([][]float32, error) {
	if s.embErr != nil {
		return nil, s.embErr
	}
	return s.vectors, nil
}

func (s *stubProvider) Name() string { return s.name }

func TestFallbackMovesToNextProvider(t *testing.T) {
	primary := &stubProvider{name: "openai", chatErr: errors.New("quota exceeded")}
	secondary := &stubProvider{name: "local", reply: "extracted requirements"}
	chain := NewFallback(primary, secondary)

	result, err := chain.ChatWithProvider(context.Background(), []Message{{Role: "user", Content: "go"}})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if result.Provider != "local" {
		t.Fatalf("expected local to serve, got %s", result.Provider)
	}
	if result.Text != "extracted requirements" {
		t.Fatalf("unexpected text: %q", result.Text)
	}
}

func TestFallbackAggregatesAllErrors(t *testing.T) {
	chain := NewFallback(
		&stubProvider{name: "openai", chatErr: errors.New("boom-a")},
		&stubProvider{name: "local", chatErr: errors.New("boom-b")},
	)
	_, err := chain.Chat(context.Background(), []Message{{Role: "user", Content: "go"}})
	if err == nil {
		t.Fatalf("expected aggregate error")
	}
	for _, fragment := range []string{"openai", "local", "boom-a", "boom-b"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("error %q missing %q", err, fragment)
		}
	}
}

func TestFallbackEmbed(t *testing.T) {
	want := [][]float32{{0.1, 0.2}}
	chain := NewFallback(
		&stubProvider{name: "openai", embErr: errors.New("unreachable")},
		&stubProvider{name: "local", vectors: want},
	)
	got, err := chain.Embed(context.Background(), []string{"text"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(got) != 1 || got[0][0] != 0.1 {
		t.Fatalf("unexpected vectors: %v", got)
	}
}

func TestFallbackEmptyChain(t *testing.T) {
	chain := NewFallback()
	if _, err := chain.Chat(context.Background(), []Message{{Role: "user", Content: "go"}}); !errors.Is(err, ErrNoProviders) {
		t.Fatalf("expected ErrNoProviders, got %v", err)
	}
}
