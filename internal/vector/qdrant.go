// File path: internal/vector/qdrant.go
package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/svinnapolean/business-requirement-extractor/internal/common"
	"github.com/svinnapolean/business-requirement-extractor/internal/common/telemetry"
)

// Store is the vector database surface the pipeline depends on. Collection
// existence is re-checked on every entry point rather than once at startup,
// so a dropped collection heals on the next operation.
type Store interface {
	Available() bool
	Collection() string
	Dimension() int
	EnsureCollection(ctx context.Context, dim int) error
	UpsertPoints(ctx context.Context, points []Point) error
	Search(ctx context.Context, vector []float32, limit int) ([]SearchResult, error)
	Scroll(ctx context.Context, limit int) ([]ScrollPoint, error)
	ListCollections(ctx context.Context) ([]string, error)
}

// Point is one stored vector with its payload. IDs are UUID strings.
type Point struct {
	ID      string                 `json:"id"`
	Vector  []float32              `json:"vector"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

type SearchResult struct {
	ID      string
	Score   float32
	Payload map[string]interface{}
}

type ScrollPoint struct {
	ID      string
	Payload map[string]interface{}
}

var (
	errNotFound = errors.New("resource not found")
	errConflict = errors.New("resource conflict")
)

// Client talks to Qdrant over its REST API. Safe for concurrent use; data
// operations are single-shot with no retry layer.
type Client struct {
	httpClient *http.Client
	transport  *http.Transport

	baseURL    string
	apiKey     string
	collection string
	cfg        Config

	mu        sync.RWMutex
	available bool
}

var _ Store = (*Client)(nil)

// New constructs a client and probes the server once. An unreachable server
// leaves the client in degraded mode rather than failing construction; the
// next successful operation flips it back to available.
func New(ctx context.Context, cfg Config) (*Client, error) {
	cfg.applyDefaults()
	logger := common.Logger()
	logger.Info(
		"vector: initializing qdrant client",
		"base_url", cfg.BaseURL,
		"collection", cfg.Collection,
		"dimension", cfg.Dimension,
		"timeout", cfg.Timeout,
	)

	transport := &http.Transport{
		MaxIdleConns:        cfg.HTTPMaxIdleConns,
		MaxIdleConnsPerHost: cfg.HTTPMaxIdlePerHost,
		IdleConnTimeout:     cfg.HTTPIdleConnTimeout,
	}
	client := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout, Transport: transport},
		transport:  transport,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		cfg:        cfg,
	}
	if _, err := client.ListCollections(ctx); err != nil {
		logger.Warn("vector: qdrant unreachable at startup", "base_url", cfg.BaseURL, "error", err)
		return client, nil
	}
	logger.Info("vector: qdrant connection established")
	return client, nil
}

// WithCollection returns a view of the client bound to another collection.
// The HTTP transport is shared; the agent path uses this for its separate
// collection.
func (c *Client) WithCollection(name string) *Client {
	trimmed := strings.TrimSpace(name)
	if c == nil || trimmed == "" || trimmed == c.collection {
		return c
	}
	return &Client{
		httpClient: c.httpClient,
		transport:  c.transport,
		baseURL:    c.baseURL,
		apiKey:     c.apiKey,
		collection: trimmed,
		cfg:        c.cfg,
		available:  c.Available(),
	}
}

func (c *Client) Available() bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.available
}

func (c *Client) Collection() string {
	if c == nil {
		return ""
	}
	return c.collection
}

// Dimension reports the configured collection dimensionality.
func (c *Client) Dimension() int {
	if c == nil {
		return 0
	}
	return c.cfg.Dimension
}

func (c *Client) setAvailable(ok bool) {
	c.mu.Lock()
	c.available = ok
	c.mu.Unlock()
}

// EnsureCollection checks for the collection and creates it when absent.
// The check-then-create pair is not atomic; a concurrent create surfacing
// as a conflict counts as success.
func (c *Client) EnsureCollection(ctx context.Context, dim int) error {
	if c == nil {
		return errors.New("qdrant client not configured")
	}
	if dim <= 0 {
		dim = c.cfg.Dimension
	}
	endpoint := fmt.Sprintf("%s/collections/%s", c.baseURL, url.PathEscape(c.collection))
	err := c.doRequest(ctx, http.MethodGet, endpoint, nil, nil)
	if err == nil {
		c.setAvailable(true)
		return nil
	}
	if !errors.Is(err, errNotFound) {
		c.setAvailable(false)
		return fmt.Errorf("qdrant collection check: %w", err)
	}
	if err := c.createCollection(ctx, dim); err != nil {
		c.setAvailable(false)
		return err
	}
	c.setAvailable(true)
	return nil
}

func (c *Client) createCollection(ctx context.Context, dim int) error {
	payload := map[string]interface{}{
		"vectors": map[string]interface{}{
			"size":     dim,
			"distance": c.cfg.Distance,
		},
	}
	endpoint := fmt.Sprintf("%s/collections/%s", c.baseURL, url.PathEscape(c.collection))
	err := c.doRequest(ctx, http.MethodPut, endpoint, payload, nil)
	if err == nil {
		common.Logger().Info("vector: collection created", "collection", c.collection, "dimension", dim)
		return nil
	}
	if errors.Is(err, errConflict) || strings.Contains(err.Error(), "already exists") {
		common.Logger().Debug("vector: collection already exists", "collection", c.collection)
		return nil
	}
	return fmt.Errorf("qdrant create collection: %w", err)
}

func (c *Client) UpsertPoints(ctx context.Context, points []Point) error {
	if c == nil {
		return errors.New("qdrant client not configured")
	}
	if len(points) == 0 {
		return nil
	}
	endpoint := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, url.PathEscape(c.collection))
	payload := map[string]interface{}{"points": points}
	if err := c.doRequest(ctx, http.MethodPut, endpoint, payload, nil); err != nil {
		c.setAvailable(false)
		return fmt.Errorf("qdrant upsert: %w", err)
	}
	c.setAvailable(true)
	return nil
}

func (c *Client) Search(ctx context.Context, vector []float32, limit int) ([]SearchResult, error) {
	if c == nil {
		return nil, errors.New("qdrant client not configured")
	}
	if limit <= 0 {
		limit = 5
	}
	body := map[string]interface{}{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	endpoint := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, url.PathEscape(c.collection))
	var resp struct {
		Result []struct {
			ID      string                 `json:"id"`
			Score   float32                `json:"score"`
			Payload map[string]interface{} `json:"payload"`
		} `json:"result"`
	}
	start := time.Now()
	err := c.doRequest(ctx, http.MethodPost, endpoint, body, &resp)
	telemetry.RecordSearch(time.Since(start))
	if err != nil {
		c.setAvailable(false)
		return nil, fmt.Errorf("qdrant search: %w", err)
	}
	c.setAvailable(true)
	results := make([]SearchResult, 0, len(resp.Result))
	for _, hit := range resp.Result {
		results = append(results, SearchResult{ID: hit.ID, Score: hit.Score, Payload: hit.Payload})
	}
	return results, nil
}

func (c *Client) Scroll(ctx context.Context, limit int) ([]ScrollPoint, error) {
	if c == nil {
		return nil, errors.New("qdrant client not configured")
	}
	if limit <= 0 {
		limit = 1000
	}
	body := map[string]interface{}{
		"limit":        limit,
		"with_payload": true,
	}
	endpoint := fmt.Sprintf("%s/collections/%s/points/scroll", c.baseURL, url.PathEscape(c.collection))
	var resp struct {
		Result struct {
			Points []struct {
				ID      string                 `json:"id"`
				Payload map[string]interface{} `json:"payload"`
			} `json:"points"`
		} `json:"result"`
	}
	if err := c.doRequest(ctx, http.MethodPost, endpoint, body, &resp); err != nil {
		c.setAvailable(false)
		return nil, fmt.Errorf("qdrant scroll: %w", err)
	}
	c.setAvailable(true)
	points := make([]ScrollPoint, 0, len(resp.Result.Points))
	for _, p := range resp.Result.Points {
		points = append(points, ScrollPoint{ID: p.ID, Payload: p.Payload})
	}
	return points, nil
}

func (c *Client) ListCollections(ctx context.Context) ([]string, error) {
	if c == nil {
		return nil, errors.New("qdrant client not configured")
	}
	var resp struct {
		Result struct {
			Collections []struct {
				Name string `json:"name"`
			} `json:"collections"`
		} `json:"result"`
	}
	if err := c.doRequest(ctx, http.MethodGet, c.baseURL+"/collections", nil, &resp); err != nil {
		c.setAvailable(false)
		return nil, fmt.Errorf("qdrant list collections: %w", err)
	}
	c.setAvailable(true)
	names := make([]string, 0, len(resp.Result.Collections))
	for _, col := range resp.Result.Collections {
		names = append(names, col.Name)
	}
	return names, nil
}

func (c *Client) doRequest(ctx context.Context, method, endpoint string, body interface{}, out interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode == http.StatusConflict {
		return errConflict
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("qdrant %s %s failed: %s", method, endpoint, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Close releases pooled connections held by the client.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	if c.transport != nil {
		c.transport.CloseIdleConnections()
	}
	return nil
}
