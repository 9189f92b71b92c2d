// File path: internal/api/extract_handler.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/svinnapolean/business-requirement-extractor/internal/common"
	"github.com/svinnapolean/business-requirement-extractor/internal/requirements"
)

// uploadExtensions lists the suffixes accepted by the upload endpoint. The
// check lowercases the file name first, so mixed-case uploads pass here even
// though the batch walker treats them case-sensitively.
var uploadExtensions = []string{".cbl", ".cob", ".cobol", ".txt"}

func allowedUpload(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range uploadExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func (s *Server) handleExtractUpload(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	ctx := r.Context()
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		logger.Warn("api: upload form parse failed", "error", err)
		writeError(w, http.StatusBadRequest, fmt.Errorf("failed to parse upload form: %w", err))
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	src, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("file field is required"))
		return
	}
	defer src.Close()

	name := strings.TrimSpace(header.Filename)
	if name == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("file name required"))
		return
	}
	if !allowedUpload(name) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unsupported file type: %s", filepath.Ext(name)))
		return
	}
	cleaned := filepath.Clean(name)
	if cleaned == "." || cleaned == "" || filepath.IsAbs(cleaned) || strings.Contains(cleaned, "..") {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid file path: %s", name))
		return
	}

	workspace, err := os.MkdirTemp(s.uploadRoot, "upload-")
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("create workspace: %w", err))
		return
	}
	defer func() {
		if err := os.RemoveAll(workspace); err != nil {
			logger.Warn("api: cleanup workspace failed", "workspace", workspace, "error", err)
		}
	}()

	destPath := filepath.Join(workspace, filepath.Base(cleaned))
	dst, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("create destination file: %w", err))
		return
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		writeError(w, http.StatusInternalServerError, fmt.Errorf("write destination file: %w", err))
		return
	}
	if err := dst.Close(); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("close destination file: %w", err))
		return
	}

	result, err := s.service.ExtractFile(ctx, destPath)
	if err != nil {
		logger.Error("api: upload extraction failed", "file", name, "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Errorf("error processing file: %w", err))
		return
	}
	logger.Info("api: upload extraction complete", "file", result.FileName, "program", result.ProgramID)
	writeJSON(w, http.StatusOK, uploadResponse{
		Status:     "success",
		FileName:   result.FileName,
		Extraction: result,
	})
}

func (s *Server) handleExtractText(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	ctx := r.Context()
	var req extractTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("api: extract text decode failed", "error", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Source) == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("source is required"))
		return
	}
	result, err := s.service.ExtractText(ctx, req.Source, req.ProgramName)
	if err != nil {
		logger.Error("api: extract text failed", "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Errorf("error analyzing text: %w", err))
		return
	}
	programName := strings.TrimSpace(req.ProgramName)
	if programName == "" {
		programName = result.FileName
	}
	logger.Info("api: text extraction complete", "program", result.ProgramID)
	writeJSON(w, http.StatusOK, textResponse{
		Status:      "success",
		ProgramName: programName,
		Analysis:    result,
	})
}

func (s *Server) handleExtractBatch(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	ctx := r.Context()
	var req extractBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("api: extract batch decode failed", "error", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Dir) == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("dir is required"))
		return
	}
	batch, err := s.service.ExtractDirectory(ctx, req.Dir)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			status = http.StatusBadRequest
		}
		logger.Error("api: extract batch failed", "status", status, "error", err)
		writeError(w, status, err)
		return
	}
	results := batch.Processed
	if results == nil {
		results = []requirements.ExtractionResult{}
	}
	logger.Info("api: batch extraction complete", "dir", req.Dir, "processed", len(batch.Processed), "failed", len(batch.Failures))
	writeJSON(w, http.StatusOK, batchResponse{
		Status:    "success",
		Processed: len(batch.Processed),
		Failed:    len(batch.Failures),
		Results:   results,
		Failures:  batch.Failures,
	})
}
