// File path: internal/vector/qdrant_test.go
package vector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeQdrant struct {
	t *testing.T

	mu               sync.Mutex
	exists           bool
	conflictOnCreate bool

	checkCalls  int
	createCalls int
	upsertCalls int
	searchCalls int
	scrollCalls int

	lastCreateBody map[string]interface{}
	lastUpsertBody map[string]interface{}

	searchResponse []map[string]interface{}
	scrollPoints   []map[string]interface{}
}

func newFakeQdrant(t *testing.T) *fakeQdrant {
	t.Helper()
	return &fakeQdrant{t: t}
}

func (f *fakeQdrant) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/collections":
		writeResult(w, map[string]interface{}{"collections": []map[string]string{{"name": "cobol_requirements"}}})
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/collections/"):
		f.checkCalls++
		if !f.exists {
			http.NotFound(w, r)
			return
		}
		writeResult(w, map[string]interface{}{"status": "green"})
	case r.Method == http.MethodPut && strings.HasSuffix(r.URL.Path, "/points"):
		f.upsertCalls++
		_ = json.NewDecoder(r.Body).Decode(&f.lastUpsertBody)
		writeResult(w, map[string]interface{}{"status": "acknowledged"})
	case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/collections/"):
		f.createCalls++
		_ = json.NewDecoder(r.Body).Decode(&f.lastCreateBody)
		if f.conflictOnCreate {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"status":{"error":"collection already exists"}}`))
			return
		}
		f.exists = true
		writeResult(w, true)
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/points/search"):
		f.searchCalls++
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"result": f.searchResponse})
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/points/scroll"):
		f.scrollCalls++
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"result": map[string]interface{}{"points": f.scrollPoints},
		})
	default:
		http.NotFound(w, r)
	}
}

func writeResult(w http.ResponseWriter, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"result": result, "status": "ok"})
}

func newTestClient(t *testing.T, fake *fakeQdrant) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)
	cfg := Config{
		BaseURL:    server.URL,
		Collection: "cobol_requirements",
		Dimension:  384,
		Timeout:    2 * time.Second,
	}
	client, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client, server
}

func TestEnsureCollectionCreatesWhenMissing(t *testing.T) {
	fake := newFakeQdrant(t)
	client, _ := newTestClient(t, fake)

	if err := client.EnsureCollection(context.Background(), 384); err != nil {
		t.Fatalf("ensure collection: %v", err)
	}
	fake.mu.Lock()
	createCalls := fake.createCalls
	body := fake.lastCreateBody
	fake.mu.Unlock()
	if createCalls != 1 {
		t.Fatalf("expected one create call, got %d", createCalls)
	}
	vectors, ok := body["vectors"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing vectors config in create body: %v", body)
	}
	if vectors["size"].(float64) != 384 || vectors["distance"].(string) != "Cosine" {
		t.Fatalf("unexpected vectors config: %v", vectors)
	}

	// Second ensure finds the collection and must not create again.
	if err := client.EnsureCollection(context.Background(), 384); err != nil {
		t.Fatalf("ensure collection again: %v", err)
	}
	fake.mu.Lock()
	createCalls = fake.createCalls
	checkCalls := fake.checkCalls
	fake.mu.Unlock()
	if createCalls != 1 {
		t.Fatalf("expected create to run once, got %d", createCalls)
	}
	if checkCalls != 2 {
		t.Fatalf("expected existence check per entry point, got %d", checkCalls)
	}
	if !client.Available() {
		t.Fatalf("client should be available after ensure")
	}
}

func TestEnsureCollectionToleratesCreateConflict(t *testing.T) {
	fake := newFakeQdrant(t)
	fake.conflictOnCreate = true
	client, _ := newTestClient(t, fake)

	if err := client.EnsureCollection(context.Background(), 384); err != nil {
		t.Fatalf("conflict on create should be treated as success, got %v", err)
	}
	if !client.Available() {
		t.Fatalf("client should be available after tolerated conflict")
	}
}

func TestUpsertSearchScroll(t *testing.T) {
	fake := newFakeQdrant(t)
	fake.exists = true
	fake.searchResponse = []map[string]interface{}{
		{"id": "p1", "score": 0.93, "payload": map[string]interface{}{"program_id": "PAYROLL01"}},
		{"id": "p2", "score": 0.41, "payload": map[string]interface{}{"program_id": "BILLING02"}},
	}
	fake.scrollPoints = []map[string]interface{}{
		{"id": "p1", "payload": map[string]interface{}{"program_id": "PAYROLL01"}},
	}
	client, _ := newTestClient(t, fake)

	points := []Point{{
		ID:      "p1",
		Vector:  make([]float32, 384),
		Payload: map[string]interface{}{"program_id": "PAYROLL01"},
	}}
	if err := client.UpsertPoints(context.Background(), points); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	fake.mu.Lock()
	upsertBody := fake.lastUpsertBody
	fake.mu.Unlock()
	rawPoints, ok := upsertBody["points"].([]interface{})
	if !ok || len(rawPoints) != 1 {
		t.Fatalf("unexpected upsert body: %v", upsertBody)
	}

	results, err := client.Search(context.Background(), make([]float32, 384), 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != "p1" || results[0].Payload["program_id"] != "PAYROLL01" {
		t.Fatalf("unexpected first result: %+v", results[0])
	}
	if results[0].Score <= results[1].Score {
		t.Fatalf("store ranking must be preserved: %v", results)
	}

	scrolled, err := client.Scroll(context.Background(), 1000)
	if err != nil {
		t.Fatalf("scroll: %v", err)
	}
	if len(scrolled) != 1 || scrolled[0].Payload["program_id"] != "PAYROLL01" {
		t.Fatalf("unexpected scroll payloads: %+v", scrolled)
	}
}

func TestUpsertEmptyIsNoOp(t *testing.T) {
	fake := newFakeQdrant(t)
	fake.exists = true
	client, _ := newTestClient(t, fake)
	if err := client.UpsertPoints(context.Background(), nil); err != nil {
		t.Fatalf("empty upsert should be a no-op, got %v", err)
	}
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if fake.upsertCalls != 0 {
		t.Fatalf("expected no upsert requests, got %d", fake.upsertCalls)
	}
}
