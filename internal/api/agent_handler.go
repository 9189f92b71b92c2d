// File path: internal/api/agent_handler.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/svinnapolean/business-requirement-extractor/internal/common"
)

func (s *Server) handleAgentExtract(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	if s.agent == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("agent extraction is not configured"))
		return
	}
	var req agentExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("api: agent extract decode failed", "error", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("code is required"))
		return
	}
	logger.Info("api: agent extraction requested", "language", req.Language, "bytes", len(req.Code))
	result, err := s.agent.ExtractRequirements(r.Context(), req.Code, req.Language)
	if err != nil {
		logger.Error("api: agent extraction failed", "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Errorf("error extracting requirements: %w", err))
		return
	}
	logger.Info("api: agent extraction complete", "id", result.ID, "model", result.Model)
	writeJSON(w, http.StatusOK, agentExtractResponse{
		Status:       "success",
		ID:           result.ID,
		Requirements: result.Requirement,
		Model:        result.Model,
		Language:     result.Language,
	})
}
