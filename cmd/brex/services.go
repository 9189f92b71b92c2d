// File path: cmd/brex/services.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/svinnapolean/business-requirement-extractor/internal/common/process"
	"github.com/svinnapolean/business-requirement-extractor/internal/vector"
)

const qdrantImage = "qdrant/qdrant:v1.9.2"

// startQdrant launches a dockerised Qdrant bound to the configured REST port
// and waits until the collections endpoint answers. Storage persists under
// qdrant_data in the working directory so restarts keep indexed requirements.
func startQdrant(ctx context.Context, cfg vector.Config) (*process.Handle, error) {
	docker, err := process.LookPath("docker")
	if err != nil {
		return nil, err
	}
	workDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}
	dataDir := filepath.Join(workDir, "qdrant_data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("prepare qdrant data directory: %w", err)
	}

	port := qdrantPort(cfg.BaseURL)
	args := []string{
		"run", "--rm",
		"-p", fmt.Sprintf("%s:6333", port),
		"-v", fmt.Sprintf("%s:/qdrant/storage", dataDir),
		qdrantImage,
	}
	return process.Start(ctx, process.Sidecar{
		Name:         "qdrant",
		Command:      docker,
		Args:         args,
		ReadyURL:     fmt.Sprintf("%s/collections", strings.TrimRight(cfg.BaseURL, "/")),
		ReadyTimeout: 2 * time.Minute,
		StopTimeout:  10 * time.Second,
	})
}

func stopSidecar(ctx context.Context, handle *process.Handle, logger *slog.Logger) {
	if handle == nil {
		return
	}
	if err := handle.Stop(ctx); err != nil && logger != nil {
		logger.Warn("launcher: sidecar shutdown returned error", "error", err)
	}
}

func qdrantPort(baseURL string) string {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "6333"
	}
	if port := parsed.Port(); port != "" {
		return port
	}
	return "6333"
}
