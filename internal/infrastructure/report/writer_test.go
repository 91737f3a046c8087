package report

import (
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/document-triage/internal/core/domain"
)

func testRun() *domain.BatchRun {
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &domain.BatchRun{
		RunID:      "0a1b2c3d-0000-0000-0000-000000000000",
		Total:      3,
		Succeeded:  2,
		Failed:     1,
		StartedAt:  started,
		FinishedAt: started.Add(30 * time.Second),
		Errors: []domain.RunError{
			{DocumentID: "d2", Path: "b.md", Error: "oracle timeout"},
		},
	}
}

func TestWriteProducesJSONAndTextReports(t *testing.T) {
	dir := t.TempDir()
	writer, err := NewWriter(dir)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}

	run := testRun()
	paths, err := writer.Write(run)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 artifacts, got %v", paths)
	}

	raw, err := os.ReadFile(paths[0])
	if err != nil {
		t.Fatalf("read json report: %v", err)
	}
	var decoded struct {
		RunID            string  `json:"run_id"`
		Total            int     `json:"total"`
		AvgSecondsPerDoc float64 `json:"avg_seconds_per_document"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("json report must round-trip: %v", err)
	}
	if decoded.RunID != run.RunID || decoded.Total != 3 {
		t.Fatalf("unexpected json report: %+v", decoded)
	}
	if decoded.AvgSecondsPerDoc != 10 {
		t.Fatalf("expected 10s avg per document, got %v", decoded.AvgSecondsPerDoc)
	}

	text, err := os.ReadFile(paths[1])
	if err != nil {
		t.Fatalf("read text report: %v", err)
	}
	for _, fragment := range []string{"Succeeded: 2", "Failed:    1", "oracle timeout"} {
		if !strings.Contains(string(text), fragment) {
			t.Fatalf("text summary missing %q:\n%s", fragment, text)
		}
	}
}

func TestWriteDoesNotMutateRun(t *testing.T) {
	writer, err := NewWriter(t.TempDir())
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	run := testRun()
	before := *run
	if _, err := writer.Write(run); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if run.Total != before.Total || run.Succeeded != before.Succeeded || len(run.Errors) != len(before.Errors) {
		t.Fatalf("report writer must not mutate the run")
	}
}

func TestXLSXWriterProducesWorkbook(t *testing.T) {
	writer, err := NewXLSXWriter(t.TempDir())
	if err != nil {
		t.Fatalf("NewXLSXWriter() error = %v", err)
	}
	paths, err := writer.Write(testRun())
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if len(paths) != 1 || !strings.HasSuffix(paths[0], ".xlsx") {
		t.Fatalf("expected one xlsx artifact, got %v", paths)
	}
	info, err := os.Stat(paths[0])
	if err != nil || info.Size() == 0 {
		t.Fatalf("expected non-empty workbook: %v", err)
	}
}
