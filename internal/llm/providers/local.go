// File path: internal/llm/providers/local.go
package providers

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

type Message struct {
	Role    string
	Content string
}

type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
	Embed(ctx context.Context, input []string) ([][]float32, error)
	Name() string
}

const localChatLimit = 280

// LocalProvider keeps the pipeline functional with no external services.
// Embeddings are hashed bag-of-words vectors: tokens are FNV-hashed into a
// fixed number of buckets and the result is L2-normalized, so identical
// text always embeds to the identical vector.
type LocalProvider struct {
	dimension int
}

func NewLocalProvider() *LocalProvider {
	return NewLocalProviderWithDimension(384)
}

func NewLocalProviderWithDimension(dim int) *LocalProvider {
	if dim <= 0 {
		dim = 384
	}
	return &LocalProvider{dimension: dim}
}

func (l *LocalProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("no messages provided")
	}
	last := strings.TrimSpace(messages[len(messages)-1].Content)
	if runes := []rune(last); len(runes) > localChatLimit {
		last = string(runes[:localChatLimit])
	}
	return "[local-analysis] " + last, nil
}

func (l *LocalProvider) Embed(ctx context.Context, input []string) ([][]float32, error) {
	vectors := make([][]float32, len(input))
	for i, text := range input {
		vectors[i] = l.embedOne(text)
	}
	return vectors, nil
}

func (l *LocalProvider) embedOne(text string) []float32 {
	vec := make([]float32, l.dimension)
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		vec[int(h.Sum32())%l.dimension]++
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

func (l *LocalProvider) Name() string {
	return "local"
}
