// File path: internal/requirements/walker_test.go
package requirements

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/svinnapolean/business-requirement-extractor/internal/llm/providers"
)

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
	return path
}

func TestExtractDirectoryIsolatesPerFileFailures(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "payroll.cbl", payrollSource)
	writeFixture(t, dir, "legacy.CBL", inventorySource)
	writeFixture(t, dir, "notes.txt", "not a candidate")
	writeFixture(t, dir, "mixed.Cbl", payrollSource)

	// A candidate name pointing at nothing: reading it fails, the batch
	// must not.
	broken := filepath.Join(dir, "broken.cob")
	if err := os.Symlink(filepath.Join(dir, "missing.dat"), broken); err != nil {
		t.Fatalf("create broken symlink: %v", err)
	}

	store := newFakeStore(384)
	svc := newTestService(t, providers.NewLocalProvider(), store, nil)

	result, err := svc.ExtractDirectory(context.Background(), dir)
	if err != nil {
		t.Fatalf("extract directory: %v", err)
	}
	if len(result.Processed) != 2 {
		t.Fatalf("expected 2 processed files, got %d", len(result.Processed))
	}
	if len(result.Failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(result.Failures))
	}
	if !strings.HasSuffix(result.Failures[0].FilePath, "broken.cob") {
		t.Errorf("unexpected failure path %q", result.Failures[0].FilePath)
	}
	if result.Failures[0].Reason == "" {
		t.Errorf("failure reason must be populated")
	}
	if store.pointCount() != 2 {
		t.Errorf("expected 2 indexed points, got %d", store.pointCount())
	}

	programs := map[string]bool{}
	for _, processed := range result.Processed {
		programs[processed.ProgramID] = true
	}
	if !programs["PAYROLL"] || !programs["STOCKCTL"] {
		t.Errorf("unexpected processed programs %v", programs)
	}
}

func TestExtractDirectoryRecursesSubdirectories(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "batch", "q3")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir nested: %v", err)
	}
	writeFixture(t, nested, "ledger.cobol", ledgerSource)

	store := newFakeStore(384)
	svc := newTestService(t, providers.NewLocalProvider(), store, nil)

	result, err := svc.ExtractDirectory(context.Background(), dir)
	if err != nil {
		t.Fatalf("extract directory: %v", err)
	}
	if len(result.Processed) != 1 {
		t.Fatalf("expected 1 processed file, got %d", len(result.Processed))
	}
	if result.Processed[0].ProgramID != "LEDGER" {
		t.Errorf("expected LEDGER, got %q", result.Processed[0].ProgramID)
	}
	if len(result.Failures) != 0 {
		t.Errorf("expected no failures, got %v", result.Failures)
	}
}

func TestExtractDirectoryMissingRoot(t *testing.T) {
	store := newFakeStore(384)
	svc := newTestService(t, providers.NewLocalProvider(), store, nil)

	if _, err := svc.ExtractDirectory(context.Background(), filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatalf("expected error for missing root")
	}
}
