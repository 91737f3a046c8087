package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/document-triage/internal/core/domain"
)

// XLSXWriter exports the run as a spreadsheet for non-technical review:
// a summary sheet plus one row per failed document.
type XLSXWriter struct {
	dir string
}

func NewXLSXWriter(dir string) (*XLSXWriter, error) {
	if dir == "" {
		dir = "./data/reports"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	return &XLSXWriter{dir: dir}, nil
}

func (w *XLSXWriter) Write(run *domain.BatchRun) ([]string, error) {
	f := excelize.NewFile()
	defer f.Close()

	const summarySheet = "Summary"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("rename summary sheet: %w", err)
	}

	summaryRows := [][]any{
		{"Run ID", run.RunID},
		{"Started", run.StartedAt.UTC().Format("2006-01-02 15:04:05")},
		{"Finished", run.FinishedAt.UTC().Format("2006-01-02 15:04:05")},
		{"Elapsed (s)", run.Elapsed().Seconds()},
		{"Avg per document (s)", run.AvgPerDocument().Seconds()},
		{"Total", run.Total},
		{"Succeeded", run.Succeeded},
		{"Failed", run.Failed},
		{"Degraded parses", run.Degraded},
		{"Deleted", run.Deleted},
	}
	for i, row := range summaryRows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, fmt.Errorf("summary cell name: %w", err)
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write summary row: %w", err)
		}
	}

	const errorsSheet = "Errors"
	if _, err := f.NewSheet(errorsSheet); err != nil {
		return nil, fmt.Errorf("create errors sheet: %w", err)
	}
	header := []any{"Document ID", "Path", "Error"}
	if err := f.SetSheetRow(errorsSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write errors header: %w", err)
	}
	for i, runErr := range run.Errors {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("error cell name: %w", err)
		}
		row := []any{runErr.DocumentID, runErr.Path, runErr.Error}
		if err := f.SetSheetRow(errorsSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write error row: %w", err)
		}
	}

	path := filepath.Join(w.dir, baseName(run)+".xlsx")
	if err := f.SaveAs(path); err != nil {
		return nil, fmt.Errorf("save xlsx report: %w", err)
	}
	return []string{path}, nil
}
