package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/document-triage/internal/core/domain"
	"github.com/kirillkom/document-triage/internal/core/ports"
)

const defaultBatchSize = 10

// RetryPolicy drives the per-document retry loop: MaxAttempts attempts
// with exponential backoff starting at BaseDelay. Sleep is injectable so
// tests can observe backoffs without waiting.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Sleep       func(ctx context.Context, d time.Duration) error
}

func (p RetryPolicy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RunObserver receives per-document lifecycle events. Reporting is attached
// here rather than woven into the retry loop.
type RunObserver interface {
	StartDocument()
	FinishDocument(status string, elapsed time.Duration)
	RetryScheduled()
}

type noopObserver struct{}

func (noopObserver) StartDocument()                       {}
func (noopObserver) FinishDocument(string, time.Duration) {}
func (noopObserver) RetryScheduled()                      {}

// BatchRunUseCase discovers candidate documents, chunks them, and drives
// per-document processing through the admission gate. A single document's
// failure never aborts the batch.
type BatchRunUseCase struct {
	repo           ports.DocumentRepository
	taxonomies     ports.TaxonomyRepository
	processor      ports.DocumentProcessor
	limiter        ports.Limiter
	reports        []ports.ReportWriter
	queue          ports.ClassifyQueue
	promptTemplate string
	retry          RetryPolicy
	observer       RunObserver
	now            func() time.Time
	newRunID       func() string
}

func NewBatchRunUseCase(
	repo ports.DocumentRepository,
	taxonomies ports.TaxonomyRepository,
	processor ports.DocumentProcessor,
	limiter ports.Limiter,
	reports []ports.ReportWriter,
	queue ports.ClassifyQueue,
	promptTemplate string,
	retry RetryPolicy,
	observer RunObserver,
) *BatchRunUseCase {
	if observer == nil {
		observer = noopObserver{}
	}
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = 3
	}
	if retry.BaseDelay <= 0 {
		retry.BaseDelay = time.Second
	}
	return &BatchRunUseCase{
		repo:           repo,
		taxonomies:     taxonomies,
		processor:      processor,
		limiter:        limiter,
		reports:        reports,
		queue:          queue,
		promptTemplate: promptTemplate,
		retry:          retry,
		observer:       observer,
		now:            time.Now,
		newRunID:       uuid.NewString,
	}
}

func (uc *BatchRunUseCase) Run(ctx context.Context, opts ports.BatchOptions) (*domain.BatchRun, error) {
	taxonomy, err := uc.validate(ctx)
	if err != nil {
		return nil, err
	}

	docs, err := uc.repo.ListUnclassified(ctx, opts.Limit, opts.IncludeProcessed)
	if err != nil {
		return nil, fmt.Errorf("list candidate documents: %w", err)
	}

	run := &domain.BatchRun{
		RunID:     uc.newRunID(),
		Total:     len(docs),
		StartedAt: uc.now(),
		Errors:    []domain.RunError{},
	}

	if opts.DryRun {
		run.DryRun = true
		for _, doc := range docs {
			slog.Info("dry_run_candidate",
				"document_id", doc.ID,
				"path", doc.Path,
				"classified", doc.Classified(),
				"status", string(doc.Status),
			)
		}
		run.FinishedAt = uc.now()
		return run, nil
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = uc.retry.MaxAttempts
	}

	var mu sync.Mutex
	for start := 0; start < len(docs); start += batchSize {
		end := min(start+batchSize, len(docs))
		chunk := docs[start:end]

		var wg sync.WaitGroup
		for _, doc := range chunk {
			wg.Add(1)
			go func(doc domain.Document) {
				defer wg.Done()
				uc.processOne(ctx, doc, taxonomy, maxRetries, run, &mu)
			}(doc)
		}
		wg.Wait()

		uc.logProgress(run, &mu, end)
	}

	run.FinishedAt = uc.now()
	uc.writeReports(run)
	uc.requeueFailures(ctx, opts, run)
	return run, nil
}

// RunOne processes a single targeted document (by id or path) with the
// same retry policy as batch mode. Unlike batch mode, the failure is
// surfaced to the caller.
func (uc *BatchRunUseCase) RunOne(ctx context.Context, documentID, path string, maxRetries int) error {
	taxonomy, err := uc.validate(ctx)
	if err != nil {
		return err
	}
	if maxRetries <= 0 {
		maxRetries = uc.retry.MaxAttempts
	}

	process := func(ctx context.Context) (ports.ProcessOutcome, error) {
		if documentID != "" {
			return uc.processor.ProcessByID(ctx, documentID, taxonomy)
		}
		return uc.processor.ProcessByPath(ctx, path, taxonomy)
	}

	_, err = uc.retryProcess(ctx, process, maxRetries, documentID+path)
	return err
}

func (uc *BatchRunUseCase) validate(ctx context.Context) ([]domain.TaxonomyEntry, error) {
	if strings.TrimSpace(uc.promptTemplate) == "" {
		return nil, domain.WrapError(domain.ErrConfig, "validate run", fmt.Errorf("empty prompt template"))
	}
	taxonomy, err := uc.taxonomies.ListEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("load taxonomy: %w", err)
	}
	if len(taxonomy) == 0 {
		return nil, domain.WrapError(domain.ErrConfig, "validate run", fmt.Errorf("empty taxonomy"))
	}
	return taxonomy, nil
}

func (uc *BatchRunUseCase) processOne(
	ctx context.Context,
	doc domain.Document,
	taxonomy []domain.TaxonomyEntry,
	maxRetries int,
	run *domain.BatchRun,
	mu *sync.Mutex,
) {
	release, err := uc.limiter.Acquire(ctx)
	if err != nil {
		uc.recordFailure(ctx, doc, run, mu, false, fmt.Errorf("admission: %w", err))
		return
	}
	defer release()

	uc.observer.StartDocument()
	started := uc.now()

	outcome, err := uc.retryProcess(ctx, func(ctx context.Context) (ports.ProcessOutcome, error) {
		return uc.processor.ProcessByID(ctx, doc.ID, taxonomy)
	}, maxRetries, doc.ID)

	elapsed := uc.now().Sub(started)
	if err != nil {
		degraded := domain.IsKind(err, domain.ErrDegradedParse)
		uc.recordFailure(ctx, doc, run, mu, degraded, err)
		uc.observer.FinishDocument("error", elapsed)
		return
	}

	mu.Lock()
	switch outcome {
	case ports.OutcomeDeleted:
		run.Deleted++
	default:
		run.Succeeded++
	}
	mu.Unlock()
	uc.observer.FinishDocument("success", elapsed)
}

// retryProcess runs one document with exponential backoff. Degraded parses
// are terminal and never retried; everything else retries until the
// attempt budget is spent.
func (uc *BatchRunUseCase) retryProcess(
	ctx context.Context,
	process func(context.Context) (ports.ProcessOutcome, error),
	maxRetries int,
	ref string,
) (ports.ProcessOutcome, error) {
	delay := uc.retry.BaseDelay
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		outcome, err := process(ctx)
		if err == nil {
			return outcome, nil
		}
		lastErr = err

		if domain.IsKind(err, domain.ErrDegradedParse) || attempt == maxRetries {
			break
		}

		uc.observer.RetryScheduled()
		slog.Warn("document_retry",
			"document", ref,
			"attempt", attempt,
			"max_attempts", maxRetries,
			"backoff_ms", float64(delay.Microseconds())/1000.0,
			"error", err,
		)
		if sleepErr := uc.retry.sleep(ctx, delay); sleepErr != nil {
			break
		}
		delay *= 2
	}
	return 0, lastErr
}

func (uc *BatchRunUseCase) recordFailure(
	ctx context.Context,
	doc domain.Document,
	run *domain.BatchRun,
	mu *sync.Mutex,
	degraded bool,
	err error,
) {
	mu.Lock()
	run.Failed++
	if degraded {
		run.Degraded++
	}
	run.Errors = append(run.Errors, domain.RunError{
		DocumentID: doc.ID,
		Path:       doc.Path,
		Error:      err.Error(),
	})
	mu.Unlock()

	if statusErr := uc.repo.UpdateStatus(ctx, doc.ID, domain.StatusFailed, err.Error()); statusErr != nil {
		slog.Error("mark_document_failed", "document_id", doc.ID, "error", statusErr)
	}
}

// logProgress recomputes running throughput and ETA after each chunk.
// Informational only; it drives no control decisions.
func (uc *BatchRunUseCase) logProgress(run *domain.BatchRun, mu *sync.Mutex, dispatched int) {
	mu.Lock()
	processed := run.Succeeded + run.Failed + run.Deleted
	mu.Unlock()

	elapsed := uc.now().Sub(run.StartedAt).Seconds()
	if elapsed <= 0 {
		return
	}
	throughput := float64(processed) / elapsed
	var etaSeconds float64
	if throughput > 0 {
		etaSeconds = float64(run.Total-processed) / throughput
	}
	slog.Info("batch_chunk_done",
		"run_id", run.RunID,
		"dispatched", dispatched,
		"processed", processed,
		"total", run.Total,
		"docs_per_second", throughput,
		"eta_seconds", etaSeconds,
	)
}

func (uc *BatchRunUseCase) writeReports(run *domain.BatchRun) {
	for _, writer := range uc.reports {
		paths, err := writer.Write(run)
		if err != nil {
			slog.Error("write_run_report", "run_id", run.RunID, "error", err)
			continue
		}
		for _, path := range paths {
			slog.Info("run_report_written", "run_id", run.RunID, "path", path)
		}
	}
}

func (uc *BatchRunUseCase) requeueFailures(ctx context.Context, opts ports.BatchOptions, run *domain.BatchRun) {
	if !opts.RequeueFailures || uc.queue == nil {
		return
	}
	for _, runErr := range run.Errors {
		if err := uc.queue.PublishClassifyRequested(ctx, runErr.DocumentID); err != nil {
			slog.Error("requeue_failed_document", "document_id", runErr.DocumentID, "error", err)
		}
	}
}
