package ports

import (
	"context"

	"github.com/kirillkom/document-triage/internal/core/domain"
)

// DocumentRepository is the persistence gateway for document state. Writes
// are idempotent: replaying the same result for the same id is safe.
type DocumentRepository interface {
	ListUnclassified(ctx context.Context, limit int, includeProcessed bool) ([]domain.Document, error)
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	GetByPath(ctx context.Context, path string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SaveResult(ctx context.Context, id string, res domain.ClassificationResult, contentHash string) error
	MarkDeleted(ctx context.Context, id string) error
}

// TaxonomyRepository loads the canonical classification targets. The list is
// fetched once per run and treated as an immutable snapshot afterwards.
type TaxonomyRepository interface {
	ListEntries(ctx context.Context) ([]domain.TaxonomyEntry, error)
}

// OracleRequest is one assembled classification request.
type OracleRequest struct {
	Content        string
	PromptTemplate string
	Taxonomy       []domain.TaxonomyEntry
	Assets         []domain.ResolvedAsset
}

// ClassificationOracle invokes the external text-classification service.
// The returned text is free-form; reconciliation happens in the core.
type ClassificationOracle interface {
	Classify(ctx context.Context, req OracleRequest) (string, error)
}

// AssetResolver maps a logical reference path to on-disk content by trying
// an ordered list of candidate locations. Implementations memoize within
// one request scope.
type AssetResolver interface {
	Resolve(logicalPath string) (content string, resolvedPath string, err error)
}

// ContentSource reads document content from the configured root.
type ContentSource interface {
	Exists(path string) bool
	Read(ctx context.Context, path string) (string, error)
}

// Limiter is the admission gate bounding in-flight oracle work. Acquire
// blocks until capacity is available and returns the release callback.
type Limiter interface {
	Acquire(ctx context.Context) (release func(), err error)
}

// ReportWriter serializes one finished batch run; it returns the paths of
// the artifacts it produced.
type ReportWriter interface {
	Write(run *domain.BatchRun) ([]string, error)
}

// ClassifyQueue publishes/consumes asynchronous classification requests.
type ClassifyQueue interface {
	PublishClassifyRequested(ctx context.Context, documentID string) error
	SubscribeClassifyRequested(ctx context.Context, handler func(context.Context, string) error) error
}
