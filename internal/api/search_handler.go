// File path: internal/api/search_handler.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/svinnapolean/business-requirement-extractor/internal/common"
)

const (
	defaultSearchLimit = 5
	maxSearchLimit     = 50
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("api: search decode failed", "error", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("query is required"))
		return
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	logger.Info("api: search request", "query", query, "limit", limit)
	matches, err := s.service.Search(r.Context(), query, limit)
	if err != nil {
		logger.Error("api: search failed", "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Errorf("error searching requirements: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Status:  "success",
		Query:   query,
		Results: matches,
		Count:   len(matches),
	})
}

func (s *Server) handleListRequirements(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	payloads, err := s.service.ListAll(r.Context())
	if err != nil {
		logger.Error("api: list requirements failed", "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Errorf("error listing requirements: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, listResponse{
		Status:        "success",
		TotalPrograms: len(payloads),
		Requirements:  payloads,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	stats, err := s.service.Stats(r.Context())
	if err != nil {
		logger.Error("api: stats failed", "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Errorf("error computing stats: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{Status: "success", Stats: stats})
}
