package ports

import (
	"context"

	"github.com/kirillkom/document-triage/internal/core/domain"
)

// ProcessOutcome is the terminal state of one document's pipeline pass.
type ProcessOutcome int

const (
	OutcomeSucceeded ProcessOutcome = iota
	OutcomeDeleted
	OutcomeDegraded
)

// DocumentProcessor drives one document through resolve → classify →
// reconcile → persist.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string, taxonomy []domain.TaxonomyEntry) (ProcessOutcome, error)
	ProcessByPath(ctx context.Context, path string, taxonomy []domain.TaxonomyEntry) (ProcessOutcome, error)
}

// BatchOptions configures one orchestrator invocation.
type BatchOptions struct {
	BatchSize        int
	Limit            int
	DryRun           bool
	MaxRetries       int
	IncludeProcessed bool
	RequeueFailures  bool
}

// BatchRunner is the inbound contract for batch classification runs.
type BatchRunner interface {
	Run(ctx context.Context, opts BatchOptions) (*domain.BatchRun, error)
}
