// File path: internal/requirements/types.go
package requirements

import (
	"time"

	"github.com/google/uuid"

	"github.com/svinnapolean/business-requirement-extractor/internal/cobol"
)

// Record is the unit persisted to the vector store: one requirement digest
// per extraction, keyed by a fresh UUID. Re-extracting a program appends a
// new record; the store keeps history rather than overwriting by program id.
type Record struct {
	ID                  string             `json:"id"`
	ProgramID           string             `json:"program_id"`
	FilePath            string             `json:"file_path"`
	FileName            string             `json:"file_name"`
	RequirementText     string             `json:"requirement_text"`
	ExtractedData       *cobol.ProgramInfo `json:"extracted_data"`
	ExtractionTimestamp string             `json:"extraction_timestamp"`
}

// NewRecord mints a record for a parsed program and its digest.
func NewRecord(info *cobol.ProgramInfo, requirement string) Record {
	return Record{
		ID:                  uuid.NewString(),
		ProgramID:           info.ProgramID,
		FilePath:            info.FilePath,
		FileName:            info.FileName,
		RequirementText:     requirement,
		ExtractedData:       info,
		ExtractionTimestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// Payload renders the point payload stored alongside the vector.
func (r Record) Payload() map[string]interface{} {
	return map[string]interface{}{
		"program_id":           r.ProgramID,
		"file_path":            r.FilePath,
		"file_name":            r.FileName,
		"requirement_text":     r.RequirementText,
		"extracted_data":       r.ExtractedData,
		"extraction_timestamp": r.ExtractionTimestamp,
	}
}

// Result summarises the record for callers using the single-file output
// contract counts.
func (r Record) Result() ExtractionResult {
	result := ExtractionResult{
		ID:              r.ID,
		ProgramID:       r.ProgramID,
		FileName:        r.FileName,
		RequirementText: r.RequirementText,
	}
	if r.ExtractedData != nil {
		result.RequirementsExtracted = len(r.ExtractedData.BusinessLogic)
		result.DataItemsFound = len(r.ExtractedData.DataItems)
		result.ProceduresFound = len(r.ExtractedData.Procedures)
	}
	return result
}

// ExtractionResult is what a single-file extraction reports back.
type ExtractionResult struct {
	ID                    string `json:"id"`
	ProgramID             string `json:"program_id"`
	FileName              string `json:"file_name"`
	RequirementText       string `json:"requirement_text"`
	RequirementsExtracted int    `json:"requirements_extracted"`
	DataItemsFound        int    `json:"data_items_found"`
	ProceduresFound       int    `json:"procedures_found"`
}

// SearchMatch is one ranked similarity hit, best match first.
type SearchMatch struct {
	ProgramID       string  `json:"program_id"`
	FileName        string  `json:"file_name"`
	SimilarityScore float32 `json:"similarity_score"`
	RequirementText string  `json:"requirement_text"`
}

// FileFailure reports one isolated per-file failure inside a batch.
type FileFailure struct {
	FilePath string `json:"file_path"`
	Reason   string `json:"reason"`
}

// BatchResult aggregates a directory walk: successful extractions plus
// out-of-band failure notices for the rest.
type BatchResult struct {
	Processed []ExtractionResult `json:"processed"`
	Failures  []FileFailure      `json:"failures"`
}
