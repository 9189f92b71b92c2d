// File path: internal/agent/graph.go
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langgraphgo/graph"

	"github.com/svinnapolean/business-requirement-extractor/internal/common"
	"github.com/svinnapolean/business-requirement-extractor/internal/common/telemetry"
	"github.com/svinnapolean/business-requirement-extractor/internal/llm"
	"github.com/svinnapolean/business-requirement-extractor/internal/vector"
)

const analystPrompt = "As a business analyst, I want to extract the business rules and business requirements from the program and the code provided. " +
	"The results should be well-formatted text suitable for creating documents, such as markdown documents. " +
	"I wanted only business rules and requirements and relevant information. " +
	"Do not include any other statements. which are not relevant to the requirements and business rules or context."

const defaultLanguage = "COBOL"

// Result is the outcome of one agent extraction run.
type Result struct {
	ID          string `json:"id"`
	Requirement string `json:"requirement"`
	Model       string `json:"model"`
	Language    string `json:"language"`
}

// Runner drives the two-node extraction graph: an LLM pass distills business
// requirements from submitted source, then the distilled text is embedded
// and indexed into the agent collection. The provider chain decides which
// model answers; the local provider keeps the path alive offline.
type Runner struct {
	chain *llm.Fallback
	store vector.Store
}

func NewRunner(chain *llm.Fallback, store vector.Store) (*Runner, error) {
	if chain == nil {
		return nil, errors.New("agent: provider chain required")
	}
	if store == nil {
		return nil, errors.New("agent: vector store required")
	}
	return &Runner{chain: chain, store: store}, nil
}

// ExtractRequirements runs the extract -> index graph over the submitted
// source and returns the distilled requirement text plus the provider that
// produced it.
func (r *Runner) ExtractRequirements(ctx context.Context, code, language string) (*Result, error) {
	trimmedCode := strings.TrimSpace(code)
	if trimmedCode == "" {
		return nil, errors.New("agent: source code required")
	}
	lang := strings.TrimSpace(language)
	if lang == "" {
		lang = defaultLanguage
	}
	result := &Result{Language: lang}

	g := graph.NewMessageGraph()
	g.AddNode("extract", func(ctx context.Context, state []llms.MessageContent) ([]llms.MessageContent, error) {
		prompt := fmt.Sprintf("%s\n\nProgram Language: %s\n\nCode:\n%s\n", analystPrompt, lang, trimmedCode)
		chat, err := r.chain.ChatWithProvider(ctx, []llm.Message{{Role: "user", Content: prompt}})
		if err != nil {
			return nil, fmt.Errorf("extract requirements: %w", err)
		}
		result.Model = chat.Provider
		return append(state, llms.TextParts(llms.ChatMessageTypeAI, chat.Text)), nil
	})
	g.AddNode("index", func(ctx context.Context, state []llms.MessageContent) ([]llms.MessageContent, error) {
		requirement := lastAIText(state)
		if strings.TrimSpace(requirement) == "" {
			return nil, errors.New("index requirements: empty extraction")
		}
		if err := r.indexRequirement(ctx, requirement, trimmedCode, lang, result); err != nil {
			return nil, err
		}
		return state, nil
	})
	g.AddEdge("extract", "index")
	g.AddEdge("index", graph.END)
	g.SetEntryPoint("extract")

	runnable, err := g.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile agent graph: %w", err)
	}
	state := []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, trimmedCode)}
	final, err := runnable.Invoke(ctx, state)
	if err != nil {
		return nil, err
	}
	result.Requirement = lastAIText(final)
	telemetry.RecordAgentRun(result.Model)
	common.Logger().Info(
		"agent: requirements extracted",
		"language", lang,
		"model", result.Model,
		"id", result.ID,
	)
	return result, nil
}

func (r *Runner) indexRequirement(ctx context.Context, requirement, code, language string, result *Result) error {
	vectors, err := r.chain.Embed(ctx, []string{requirement})
	if err == nil {
		if len(vectors) != 1 {
			err = fmt.Errorf("expected 1 vector, got %d", len(vectors))
		} else if want := r.store.Dimension(); want > 0 && len(vectors[0]) != want {
			err = fmt.Errorf("embedding dimension %d does not match collection dimension %d", len(vectors[0]), want)
		}
	}
	telemetry.RecordEmbedding(err)
	if err != nil {
		return fmt.Errorf("embed requirement: %w", err)
	}
	if err := r.store.EnsureCollection(ctx, r.store.Dimension()); err != nil {
		return fmt.Errorf("ensure agent collection: %w", err)
	}
	result.ID = uuid.NewString()
	point := vector.Point{
		ID:     result.ID,
		Vector: vectors[0],
		Payload: map[string]interface{}{
			"requirement":          requirement,
			"source_code":          code,
			"language":             language,
			"model":                result.Model,
			"extraction_timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	}
	if err := r.store.UpsertPoints(ctx, []vector.Point{point}); err != nil {
		return fmt.Errorf("index requirement: %w", err)
	}
	return nil
}

// lastAIText pulls the text of the most recent assistant message from the
// graph state.
func lastAIText(state []llms.MessageContent) string {
	for i := len(state) - 1; i >= 0; i-- {
		if state[i].Role != llms.ChatMessageTypeAI {
			continue
		}
		var parts []string
		for _, part := range state[i].Parts {
			if text, ok := part.(llms.TextContent); ok {
				parts = append(parts, text.Text)
			}
		}
		return strings.Join(parts, "\n")
	}
	return ""
}
