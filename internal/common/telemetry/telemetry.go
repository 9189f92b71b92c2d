// File path: internal/common/telemetry/telemetry.go
package telemetry

import (
	"context"
	"expvar"
	"strings"
	"sync"
	"time"

	"github.com/svinnapolean/business-requirement-extractor/internal/common"
)

type spanKey struct{}

type span struct {
	name  string
	start time.Time
}

var (
	initOnce sync.Once

	filesProcessedTotal  *expvar.Int
	extractFailuresTotal *expvar.Int
	recordsIndexedTotal  *expvar.Int

	embeddingsTotal   *expvar.Int
	embeddingFailures *expvar.Int

	searchTotal     *expvar.Int
	searchLatencyMS *expvar.Int

	agentRunsTotal *expvar.Map
)

func ensureInit() {
	initOnce.Do(func() {
		filesProcessedTotal = expvar.NewInt("brex_files_processed_total")
		extractFailuresTotal = expvar.NewInt("brex_extract_failures_total")
		recordsIndexedTotal = expvar.NewInt("brex_records_indexed_total")

		embeddingsTotal = expvar.NewInt("brex_embeddings_total")
		embeddingFailures = expvar.NewInt("brex_embedding_failures_total")

		searchTotal = expvar.NewInt("brex_search_total")
		searchLatencyMS = expvar.NewInt("brex_search_latency_ms")

		agentRunsTotal = expvar.NewMap("brex_agent_runs_total")
	})
}

// StartSpan logs a debug trace for an operation and returns a finish func
// that records its duration along with any extra attributes.
func StartSpan(ctx context.Context, name string) (context.Context, func(attrs ...interface{})) {
	ensureInit()
	sp := &span{name: name, start: time.Now()}
	ctx = context.WithValue(ctx, spanKey{}, sp)
	logger := common.Logger()
	logger.Debug("trace: start", "span", name)
	return ctx, func(attrs ...interface{}) {
		duration := time.Since(sp.start)
		logger.Debug("trace: end", append([]interface{}{"span", name, "dur", duration}, attrs...)...)
	}
}

// SpanDuration reports how long the span carried by ctx has been running.
func SpanDuration(ctx context.Context) time.Duration {
	sp, _ := ctx.Value(spanKey{}).(*span)
	if sp == nil {
		return 0
	}
	return time.Since(sp.start)
}

// RecordExtraction counts one processed source file and whether a record
// made it into the index.
func RecordExtraction(indexed bool) {
	ensureInit()
	filesProcessedTotal.Add(1)
	if indexed {
		recordsIndexedTotal.Add(1)
	}
}

// RecordExtractionFailure counts a per-file failure during extraction.
func RecordExtractionFailure() {
	ensureInit()
	extractFailuresTotal.Add(1)
}

// RecordEmbedding counts an embedding request against the provider.
func RecordEmbedding(err error) {
	ensureInit()
	embeddingsTotal.Add(1)
	if err != nil {
		embeddingFailures.Add(1)
	}
}

// RecordSearch counts a similarity search and its latency.
func RecordSearch(duration time.Duration) {
	ensureInit()
	searchTotal.Add(1)
	if duration > 0 {
		searchLatencyMS.Add(duration.Milliseconds())
	}
}

// RecordAgentRun counts an agent extraction keyed by the provider that
// ultimately served it.
func RecordAgentRun(provider string) {
	ensureInit()
	key := strings.TrimSpace(strings.ToLower(provider))
	if key == "" {
		key = "unknown"
	}
	agentRunsTotal.Add(key, 1)
}
