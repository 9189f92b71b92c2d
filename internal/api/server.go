// File path: internal/api/server.go
package api

import (
	"encoding/json"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/svinnapolean/business-requirement-extractor/internal/agent"
	"github.com/svinnapolean/business-requirement-extractor/internal/common"
	"github.com/svinnapolean/business-requirement-extractor/internal/requirements"
	"github.com/svinnapolean/business-requirement-extractor/internal/vector"
)

type Server struct {
	router         chi.Router
	service        *requirements.Service
	agent          *agent.Runner
	store          vector.Store
	uploadRoot     string
	maxUploadBytes int64
}

// Config controls upload handling for the API server.
type Config struct {
	UploadRoot     string
	MaxUploadBytes int64
}

// DefaultConfig returns the standard configuration used when no overrides
// are provided.
func DefaultConfig() Config {
	return Config{
		UploadRoot:     filepath.Join(os.TempDir(), "brex_uploads"),
		MaxUploadBytes: 16 << 20,
	}
}

// Merge overlays non-zero overrides onto the base configuration.
func (c Config) Merge(override Config) Config {
	result := c
	if strings.TrimSpace(override.UploadRoot) != "" {
		result.UploadRoot = strings.TrimSpace(override.UploadRoot)
	}
	if override.MaxUploadBytes > 0 {
		result.MaxUploadBytes = override.MaxUploadBytes
	}
	return result
}

func NewServer(service *requirements.Service, runner *agent.Runner, store vector.Store, cfg *Config) (*Server, error) {
	logger := common.Logger()
	if service == nil {
		return nil, fmt.Errorf("requirements service required")
	}
	if store == nil {
		return nil, fmt.Errorf("vector store required")
	}
	configuration := DefaultConfig()
	if cfg != nil {
		configuration = configuration.Merge(*cfg)
	}
	if err := os.MkdirAll(configuration.UploadRoot, 0o755); err != nil {
		return nil, fmt.Errorf("create upload root: %w", err)
	}
	logger.Info(
		"api: building server",
		"upload_root", configuration.UploadRoot,
		"agent_enabled", runner != nil,
		"vector_available", store.Available(),
	)
	srv := &Server{
		router:         chi.NewRouter(),
		service:        service,
		agent:          runner,
		store:          store,
		uploadRoot:     configuration.UploadRoot,
		maxUploadBytes: configuration.MaxUploadBytes,
	}
	srv.routes()
	logger.Info("api: server ready")
	return srv, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	logger := common.Logger()
	logger.Info("api: configuring routes")
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start), "remote", r.RemoteAddr)
		})
	})
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}))

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.router.Get("/v1/health", s.handleHealth)
	s.router.Post("/v1/extract/upload", s.handleExtractUpload)
	s.router.Post("/v1/extract/text", s.handleExtractText)
	s.router.Post("/v1/extract/batch", s.handleExtractBatch)
	s.router.Post("/v1/extract/agent", s.handleAgentExtract)
	s.router.Post("/v1/search", s.handleSearch)
	s.router.Get("/v1/requirements", s.handleListRequirements)
	s.router.Get("/v1/stats", s.handleStats)
	s.router.Get("/v1/logs", s.handleLogs)
	s.router.Method(http.MethodGet, "/debug/vars", expvar.Handler())
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	logger := common.Logger()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
