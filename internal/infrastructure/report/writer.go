package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kirillkom/document-triage/internal/core/domain"
)

// Writer serializes a finished batch run into a machine-readable JSON
// report and a human-readable text summary, named with the run's start
// timestamp and id.
type Writer struct {
	dir string
}

func NewWriter(dir string) (*Writer, error) {
	if dir == "" {
		dir = "./data/reports"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	return &Writer{dir: dir}, nil
}

func baseName(run *domain.BatchRun) string {
	id := run.RunID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("run-%s-%s", run.StartedAt.UTC().Format("20060102T150405"), id)
}

func (w *Writer) Write(run *domain.BatchRun) ([]string, error) {
	jsonPath := filepath.Join(w.dir, baseName(run)+".json")
	payload, err := json.MarshalIndent(struct {
		*domain.BatchRun
		ElapsedSeconds   float64 `json:"elapsed_seconds"`
		AvgSecondsPerDoc float64 `json:"avg_seconds_per_document"`
	}{
		BatchRun:         run,
		ElapsedSeconds:   run.Elapsed().Seconds(),
		AvgSecondsPerDoc: run.AvgPerDocument().Seconds(),
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal run report: %w", err)
	}
	if err := os.WriteFile(jsonPath, payload, 0o644); err != nil {
		return nil, fmt.Errorf("write json report: %w", err)
	}

	textPath := filepath.Join(w.dir, baseName(run)+".txt")
	if err := os.WriteFile(textPath, []byte(summarize(run)), 0o644); err != nil {
		return nil, fmt.Errorf("write text report: %w", err)
	}

	return []string{jsonPath, textPath}, nil
}

func summarize(run *domain.BatchRun) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Classification run %s\n", run.RunID)
	fmt.Fprintf(&b, "Started:  %s\n", run.StartedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "Finished: %s\n", run.FinishedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "Elapsed:  %s (avg %s per document)\n\n", run.Elapsed().Round(0), run.AvgPerDocument().Round(0))
	if run.DryRun {
		b.WriteString("Mode: dry run (no documents were classified)\n")
	}
	fmt.Fprintf(&b, "Total:     %d\n", run.Total)
	fmt.Fprintf(&b, "Succeeded: %d\n", run.Succeeded)
	fmt.Fprintf(&b, "Failed:    %d (degraded parses: %d)\n", run.Failed, run.Degraded)
	fmt.Fprintf(&b, "Deleted:   %d\n", run.Deleted)

	if len(run.Errors) > 0 {
		b.WriteString("\nFailures:\n")
		for _, runErr := range run.Errors {
			fmt.Fprintf(&b, "  %s (%s): %s\n", runErr.DocumentID, runErr.Path, runErr.Error)
		}
	}
	return b.String()
}
