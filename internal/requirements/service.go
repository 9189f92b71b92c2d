// File path: internal/requirements/service.go
package requirements

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/svinnapolean/business-requirement-extractor/internal/catalog"
	"github.com/svinnapolean/business-requirement-extractor/internal/cobol"
	"github.com/svinnapolean/business-requirement-extractor/internal/common"
	"github.com/svinnapolean/business-requirement-extractor/internal/common/telemetry"
	"github.com/svinnapolean/business-requirement-extractor/internal/llm"
	"github.com/svinnapolean/business-requirement-extractor/internal/vector"
)

const (
	defaultSearchLimit = 5
	listLimit          = 1000
)

// Service orchestrates the pipeline: parse source, synthesize the digest,
// embed it, index the record. The catalog is optional; when wired, every
// successful extraction is recorded best-effort and never fails the
// pipeline.
type Service struct {
	parser   *cobol.Parser
	provider llm.Provider
	store    vector.Store
	catalog  *catalog.Store
}

func NewService(provider llm.Provider, store vector.Store, cat *catalog.Store) (*Service, error) {
	if provider == nil {
		return nil, errors.New("requirements: embedding provider required")
	}
	if store == nil {
		return nil, errors.New("requirements: vector store required")
	}
	return &Service{
		parser:   cobol.NewParser(),
		provider: provider,
		store:    store,
		catalog:  cat,
	}, nil
}

// ExtractFile reads one source file and runs the pipeline over it.
func (s *Service) ExtractFile(ctx context.Context, path string) (*ExtractionResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		telemetry.RecordExtractionFailure()
		return nil, fmt.Errorf("read source %s: %w", path, err)
	}
	return s.ExtractSource(ctx, path, data)
}

// ExtractText analyzes raw source submitted without a file. The name falls
// back to inline.cbl so stored payloads always carry a file name.
func (s *Service) ExtractText(ctx context.Context, source, name string) (*ExtractionResult, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		trimmed = "inline.cbl"
	}
	return s.ExtractSource(ctx, trimmed, []byte(source))
}

// ExtractSource runs the full pipeline over raw source bytes. Zero
// extracted facts is a normal outcome; the digest is synthesized, embedded
// and indexed regardless.
func (s *Service) ExtractSource(ctx context.Context, path string, data []byte) (*ExtractionResult, error) {
	ctx, finish := telemetry.StartSpan(ctx, "requirements.extract")
	defer finish("file", path)

	logger := common.Logger()
	info, err := s.parser.Parse(ctx, path, data)
	if err != nil {
		telemetry.RecordExtractionFailure()
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	requirement := cobol.SynthesizeRequirement(info)
	embedding, err := s.embed(ctx, requirement)
	if err != nil {
		telemetry.RecordExtractionFailure()
		return nil, err
	}
	if err := s.store.EnsureCollection(ctx, s.store.Dimension()); err != nil {
		telemetry.RecordExtractionFailure()
		return nil, fmt.Errorf("ensure collection: %w", err)
	}
	record := NewRecord(info, requirement)
	point := vector.Point{ID: record.ID, Vector: embedding, Payload: record.Payload()}
	if err := s.store.UpsertPoints(ctx, []vector.Point{point}); err != nil {
		telemetry.RecordExtractionFailure()
		return nil, fmt.Errorf("index record: %w", err)
	}
	s.recordCatalog(ctx, record)
	telemetry.RecordExtraction(true)
	logger.Info(
		"requirements: indexed program",
		"program", record.ProgramID,
		"file", record.FileName,
		"business_rules", len(info.BusinessLogic),
		"data_items", len(info.DataItems),
		"dur", telemetry.SpanDuration(ctx),
	)
	result := record.Result()
	return &result, nil
}

// Search embeds the query with the same provider used for writes and
// returns ranked matches, best first.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]SearchMatch, error) {
	ctx, finish := telemetry.StartSpan(ctx, "requirements.search")
	defer finish("limit", limit)

	if limit <= 0 {
		limit = defaultSearchLimit
	}
	embedding, err := s.embed(ctx, query)
	if err != nil {
		return nil, err
	}
	if err := s.store.EnsureCollection(ctx, s.store.Dimension()); err != nil {
		return nil, fmt.Errorf("ensure collection: %w", err)
	}
	results, err := s.store.Search(ctx, embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("search requirements: %w", err)
	}
	matches := make([]SearchMatch, 0, len(results))
	for _, res := range results {
		matches = append(matches, SearchMatch{
			ProgramID:       payloadString(res.Payload, "program_id", "Unknown"),
			FileName:        payloadString(res.Payload, "file_name", "Unknown"),
			SimilarityScore: res.Score,
			RequirementText: payloadString(res.Payload, "requirement_text", ""),
		})
	}
	return matches, nil
}

// ListAll returns every stored requirement payload, bounded by the scroll
// limit.
func (s *Service) ListAll(ctx context.Context) ([]map[string]interface{}, error) {
	if err := s.store.EnsureCollection(ctx, s.store.Dimension()); err != nil {
		return nil, fmt.Errorf("ensure collection: %w", err)
	}
	points, err := s.store.Scroll(ctx, listLimit)
	if err != nil {
		return nil, fmt.Errorf("list requirements: %w", err)
	}
	payloads := make([]map[string]interface{}, 0, len(points))
	for _, point := range points {
		if point.Payload == nil {
			continue
		}
		payloads = append(payloads, point.Payload)
	}
	return payloads, nil
}

// Stats reports extraction history. The catalog is authoritative when
// wired; otherwise counts are rebuilt from stored payloads.
func (s *Service) Stats(ctx context.Context) (catalog.Stats, error) {
	if s.catalog != nil {
		return s.catalog.Stats(ctx)
	}
	stats := catalog.Stats{FileTypes: make(map[string]int)}
	payloads, err := s.ListAll(ctx)
	if err != nil {
		return stats, err
	}
	for _, payload := range payloads {
		stats.TotalExtractions++
		ext := strings.ToLower(filepath.Ext(payloadString(payload, "file_name", "")))
		if ext == "" {
			ext = "unknown"
		}
		stats.FileTypes[ext]++
		if ts := payloadString(payload, "extraction_timestamp", ""); ts > stats.LastExtraction {
			stats.LastExtraction = ts
		}
	}
	return stats, nil
}

func (s *Service) embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.provider.Embed(ctx, []string{text})
	if err == nil {
		if len(vectors) != 1 {
			err = fmt.Errorf("expected 1 vector, got %d", len(vectors))
		} else if want := s.store.Dimension(); want > 0 && len(vectors[0]) != want {
			err = fmt.Errorf("embedding dimension %d does not match collection dimension %d", len(vectors[0]), want)
		}
	}
	telemetry.RecordEmbedding(err)
	if err != nil {
		return nil, fmt.Errorf("embed text: %w", err)
	}
	return vectors[0], nil
}

func (s *Service) recordCatalog(ctx context.Context, record Record) {
	if s.catalog == nil {
		return
	}
	entry := catalog.Entry{
		ID:              record.ID,
		ProgramID:       record.ProgramID,
		FileName:        record.FileName,
		FilePath:        record.FilePath,
		RequirementText: record.RequirementText,
		CreatedAt:       record.ExtractionTimestamp,
	}
	if record.ExtractedData != nil {
		entry.DataItems = len(record.ExtractedData.DataItems)
		entry.Procedures = len(record.ExtractedData.Procedures)
		entry.BusinessRules = len(record.ExtractedData.BusinessLogic)
	}
	if err := s.catalog.RecordExtraction(ctx, entry); err != nil {
		common.Logger().Warn("requirements: catalog record failed", "id", record.ID, "error", err)
	}
}

func payloadString(payload map[string]interface{}, key, fallback string) string {
	if payload == nil {
		return fallback
	}
	if value, ok := payload[key].(string); ok {
		return value
	}
	return fallback
}
