// File path: internal/requirements/walker.go
package requirements

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/svinnapolean/business-requirement-extractor/internal/common"
)

// cobolExtensions is the fixed candidate allow-list. Matching is a
// case-sensitive suffix test; mixed-case names like payroll.Cbl are skipped
// on purpose.
var cobolExtensions = []string{".cbl", ".cob", ".cobol", ".CBL", ".COB"}

func isCandidate(name string) bool {
	for _, ext := range cobolExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// ExtractDirectory walks root sequentially and runs the pipeline over every
// candidate file. A failing file is reported and counted without aborting
// the rest of the batch; only an unreadable root is terminal.
func (s *Service) ExtractDirectory(ctx context.Context, root string) (*BatchResult, error) {
	logger := common.Logger()
	result := &BatchResult{}
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logger.Warn("requirements: batch path skipped", "path", path, "error", err)
			result.Failures = append(result.Failures, FileFailure{FilePath: path, Reason: err.Error()})
			return nil
		}
		if ctx != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		if d.IsDir() || !isCandidate(d.Name()) {
			return nil
		}
		extraction, err := s.ExtractFile(ctx, path)
		if err != nil {
			logger.Warn("requirements: batch file failed", "file", path, "error", err)
			result.Failures = append(result.Failures, FileFailure{FilePath: path, Reason: err.Error()})
			return nil
		}
		result.Processed = append(result.Processed, *extraction)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk %s: %w", root, walkErr)
	}
	logger.Info(
		"requirements: batch complete",
		"root", root,
		"processed", len(result.Processed),
		"failed", len(result.Failures),
	)
	return result, nil
}
