// File path: internal/api/health_handler.go
package api

import (
	"net/http"
	"sort"

	"github.com/svinnapolean/business-requirement-extractor/internal/common"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	collections, err := s.store.ListCollections(r.Context())
	if err != nil {
		logger.Warn("api: health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "unhealthy",
			"error":   err.Error(),
			"message": "Qdrant connection failed",
		})
		return
	}
	if collections == nil {
		collections = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "healthy",
		"qdrant_connection": "ok",
		"collections":       collections,
	})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	entries := common.LogEntries()
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Time.Equal(entries[j].Time) {
			return entries[i].Message < entries[j].Message
		}
		return entries[i].Time.Before(entries[j].Time)
	})
	writeJSON(w, http.StatusOK, logsResponse{Entries: entries})
}
