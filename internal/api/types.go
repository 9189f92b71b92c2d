// File path: internal/api/types.go
package api

import (
	"github.com/svinnapolean/business-requirement-extractor/internal/catalog"
	"github.com/svinnapolean/business-requirement-extractor/internal/common"
	"github.com/svinnapolean/business-requirement-extractor/internal/requirements"
)

type extractTextRequest struct {
	Source      string `json:"source"`
	ProgramName string `json:"program_name"`
}

type extractBatchRequest struct {
	Dir string `json:"dir"`
}

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type agentExtractRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

type uploadResponse struct {
	Status     string                         `json:"status"`
	FileName   string                         `json:"file_name"`
	Extraction *requirements.ExtractionResult `json:"extraction_result"`
}

type textResponse struct {
	Status      string                         `json:"status"`
	ProgramName string                         `json:"program_name"`
	Analysis    *requirements.ExtractionResult `json:"analysis_result"`
}

type batchResponse struct {
	Status    string                          `json:"status"`
	Processed int                             `json:"processed"`
	Failed    int                             `json:"failed"`
	Results   []requirements.ExtractionResult `json:"results"`
	Failures  []requirements.FileFailure      `json:"failures,omitempty"`
}

type searchResponse struct {
	Status  string                     `json:"status"`
	Query   string                     `json:"query"`
	Results []requirements.SearchMatch `json:"results"`
	Count   int                        `json:"count"`
}

type listResponse struct {
	Status        string                   `json:"status"`
	TotalPrograms int                      `json:"total_programs"`
	Requirements  []map[string]interface{} `json:"requirements"`
}

type statsResponse struct {
	Status string `json:"status"`
	catalog.Stats
}

type agentExtractResponse struct {
	Status       string `json:"status"`
	ID           string `json:"id"`
	Requirements string `json:"requirements"`
	Model        string `json:"model"`
	Language     string `json:"language"`
}

type logsResponse struct {
	Entries []common.LogEntry `json:"entries"`
}
