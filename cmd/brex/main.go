// File path: cmd/brex/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/svinnapolean/business-requirement-extractor/internal/agent"
	"github.com/svinnapolean/business-requirement-extractor/internal/api"
	"github.com/svinnapolean/business-requirement-extractor/internal/catalog"
	"github.com/svinnapolean/business-requirement-extractor/internal/common"
	"github.com/svinnapolean/business-requirement-extractor/internal/llm"
	"github.com/svinnapolean/business-requirement-extractor/internal/requirements"
	"github.com/svinnapolean/business-requirement-extractor/internal/vector"
)

func main() {
	logger := common.Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := godotenv.Load(); err != nil {
		logger.Warn("brex: .env file not loaded", "error", err)
	} else {
		logger.Info("brex: environment loaded from .env")
	}

	addr := flag.String("addr", ":8000", "listen address")
	catalogPath := flag.String("catalog", defaultCatalogPath(), "path to the SQLite extraction catalog")
	uploadRoot := flag.String("upload-root", "", "directory for transient upload workspaces")

	autoStartDefault := false
	if env := strings.TrimSpace(os.Getenv("BREX_AUTOSTART_QDRANT")); env != "" {
		if parsed, err := strconv.ParseBool(env); err == nil {
			autoStartDefault = parsed
		}
	}
	autoStartQdrant := flag.Bool("auto-start-qdrant", autoStartDefault, "launch a dockerised Qdrant and wait for readiness")

	flag.Parse()

	logger.Info("brex: startup initiated", "addr", *addr, "catalog", *catalogPath)

	vecCfg, err := vector.LoadConfig()
	if err != nil {
		logger.Error("brex: qdrant config load failed", "error", err)
		fmt.Println("qdrant config error:", err)
		os.Exit(1)
	}

	if *autoStartQdrant {
		sidecar, sidecarErr := startQdrant(ctx, vecCfg)
		if sidecarErr != nil {
			logger.Error("brex: failed to launch qdrant", "error", sidecarErr)
			fmt.Println("qdrant startup error:", sidecarErr)
			os.Exit(1)
		}
		defer stopSidecar(context.Background(), sidecar, logger)
	}

	store, err := vector.New(ctx, vecCfg)
	if err != nil {
		logger.Error("brex: qdrant client initialization failed", "error", err)
		fmt.Println("qdrant error:", err)
		os.Exit(1)
	}
	defer store.Close()
	if store.Available() {
		logger.Info("brex: qdrant available", "collection", store.Collection())
	} else {
		logger.Warn("brex: qdrant unreachable; pipeline degraded until it returns", "collection", store.Collection())
	}

	provider := llm.NewProvider()
	logger.Info("brex: llm provider ready", "provider", provider.Name())
	chain, ok := provider.(*llm.Fallback)
	if !ok {
		chain = llm.NewFallback(provider)
	}

	var cat *catalog.Store
	if trimmed := strings.TrimSpace(*catalogPath); trimmed != "" {
		cat, err = catalog.Open(trimmed)
		if err != nil {
			logger.Warn("brex: catalog unavailable; stats will rebuild from the store", "path", trimmed, "error", err)
			cat = nil
		} else {
			defer cat.Close()
			logger.Info("brex: catalog ready", "path", trimmed)
		}
	}

	service, err := requirements.NewService(provider, store, cat)
	if err != nil {
		logger.Error("brex: service construction failed", "error", err)
		fmt.Println("service error:", err)
		os.Exit(1)
	}

	runner, err := agent.NewRunner(chain, store.WithCollection(vecCfg.AgentCollection))
	if err != nil {
		logger.Error("brex: agent construction failed", "error", err)
		fmt.Println("agent error:", err)
		os.Exit(1)
	}

	apiCfg := api.DefaultConfig()
	if trimmed := strings.TrimSpace(*uploadRoot); trimmed != "" {
		apiCfg.UploadRoot = trimmed
	}
	server, err := api.NewServer(service, runner, store, &apiCfg)
	if err != nil {
		logger.Error("brex: server construction failed", "error", err)
		fmt.Println("server error:", err)
		os.Exit(1)
	}

	logger.Info("brex: server listening", "addr", *addr, "health", "/healthz")
	fmt.Printf("Serving on %s\n", *addr)
	reachable := *addr
	if strings.HasPrefix(reachable, ":") {
		reachable = "localhost" + reachable
	}
	logger.Info("brex: verify reachability", "suggestion", fmt.Sprintf("curl http://%s/healthz", reachable))
	if err := http.ListenAndServe(*addr, server); err != nil {
		logger.Error("brex: server stopped", "error", err)
		fmt.Println("server stopped:", err)
	}
}

func defaultCatalogPath() string {
	return filepath.Join("data", "catalog.db")
}
