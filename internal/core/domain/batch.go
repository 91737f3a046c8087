package domain

import "time"

// RunError records one document's terminal failure within a batch run.
type RunError struct {
	DocumentID string `json:"document_id"`
	Path       string `json:"path"`
	Error      string `json:"error"`
}

// BatchRun aggregates one orchestrator invocation. It lives only for the
// duration of the run and is serialized into the run report at the end.
type BatchRun struct {
	RunID      string     `json:"run_id"`
	DryRun     bool       `json:"dry_run,omitempty"`
	Total      int        `json:"total"`
	Succeeded  int        `json:"succeeded"`
	Failed     int        `json:"failed"`
	Deleted    int        `json:"deleted"`
	Degraded   int        `json:"degraded"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
	Errors     []RunError `json:"errors"`
}

func (r *BatchRun) Elapsed() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// AvgPerDocument is elapsed time divided by processed documents, zero when
// nothing was processed.
func (r *BatchRun) AvgPerDocument() time.Duration {
	processed := r.Succeeded + r.Failed
	if processed == 0 {
		return 0
	}
	return r.Elapsed() / time.Duration(processed)
}
