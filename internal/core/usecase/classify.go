package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/document-triage/internal/core/domain"
	"github.com/kirillkom/document-triage/internal/core/ports"
)

// ClassifyDocumentUseCase drives one document through the pipeline:
// Discovered → Resolving → Classifying → Reconciling → Persisting.
// A document missing on disk short-circuits to MarkedDeleted and never
// reaches the oracle.
type ClassifyDocumentUseCase struct {
	repo           ports.DocumentRepository
	source         ports.ContentSource
	oracle         ports.ClassificationOracle
	newResolver    func() ports.AssetResolver
	promptTemplate string
	refAssets      []domain.ReferenceAsset
	now            func() time.Time
}

func NewClassifyDocumentUseCase(
	repo ports.DocumentRepository,
	source ports.ContentSource,
	oracle ports.ClassificationOracle,
	newResolver func() ports.AssetResolver,
	promptTemplate string,
	refAssets []domain.ReferenceAsset,
) *ClassifyDocumentUseCase {
	return &ClassifyDocumentUseCase{
		repo:           repo,
		source:         source,
		oracle:         oracle,
		newResolver:    newResolver,
		promptTemplate: promptTemplate,
		refAssets:      refAssets,
		now:            time.Now,
	}
}

func (uc *ClassifyDocumentUseCase) ProcessByID(ctx context.Context, documentID string, taxonomy []domain.TaxonomyEntry) (ports.ProcessOutcome, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("fetch document by id: %w", err)
	}
	return uc.process(ctx, doc, taxonomy)
}

func (uc *ClassifyDocumentUseCase) ProcessByPath(ctx context.Context, path string, taxonomy []domain.TaxonomyEntry) (ports.ProcessOutcome, error) {
	doc, err := uc.repo.GetByPath(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("fetch document by path: %w", err)
	}
	return uc.process(ctx, doc, taxonomy)
}

func (uc *ClassifyDocumentUseCase) process(ctx context.Context, doc *domain.Document, taxonomy []domain.TaxonomyEntry) (ports.ProcessOutcome, error) {
	if !uc.source.Exists(doc.Path) {
		if err := uc.repo.MarkDeleted(ctx, doc.ID); err != nil {
			return 0, fmt.Errorf("mark missing document deleted: %w", err)
		}
		slog.Info("document_missing_on_disk", "document_id", doc.ID, "path", doc.Path)
		return ports.OutcomeDeleted, nil
	}

	if err := uc.repo.UpdateStatus(ctx, doc.ID, domain.StatusProcessing, ""); err != nil {
		return 0, fmt.Errorf("set status=processing: %w", err)
	}

	assets := uc.resolveAssets(doc.ID)

	content, err := uc.source.Read(ctx, doc.Path)
	if err != nil {
		return 0, fmt.Errorf("read document content: %w", err)
	}

	rawText, err := uc.oracle.Classify(ctx, ports.OracleRequest{
		Content:        content,
		PromptTemplate: uc.promptTemplate,
		Taxonomy:       taxonomy,
		Assets:         assets,
	})
	if err != nil {
		return 0, fmt.Errorf("classify document: %w", err)
	}

	outcome := Reconcile(rawText, taxonomy, uc.now())

	hash := sha256.Sum256([]byte(content))
	if err := uc.repo.SaveResult(ctx, doc.ID, outcome.Result, hex.EncodeToString(hash[:])); err != nil {
		return 0, fmt.Errorf("save classification result: %w", err)
	}

	if outcome.Degraded {
		return ports.OutcomeDegraded, domain.WrapError(
			domain.ErrDegradedParse,
			"reconcile oracle response",
			errors.New("no json object in oracle response"),
		)
	}

	if !TypeVerified(taxonomy, outcome.Result.TypeID) {
		slog.Warn("type_id_not_in_taxonomy",
			"document_id", doc.ID,
			"type_id", outcome.Result.TypeID,
		)
	}

	if err := uc.repo.UpdateStatus(ctx, doc.ID, domain.StatusClassified, ""); err != nil {
		return 0, fmt.Errorf("set status=classified: %w", err)
	}
	return ports.OutcomeSucceeded, nil
}

// resolveAssets resolves the prompt's reference assets through a fresh
// request-scoped resolver. Misses reduce context but are never fatal.
func (uc *ClassifyDocumentUseCase) resolveAssets(documentID string) []domain.ResolvedAsset {
	if len(uc.refAssets) == 0 {
		return nil
	}

	resolver := uc.newResolver()
	resolved := make([]domain.ResolvedAsset, 0, len(uc.refAssets))
	for _, asset := range uc.refAssets {
		content, path, err := resolver.Resolve(asset.LogicalPath)
		if err != nil {
			slog.Warn("asset_resolution_miss",
				"document_id", documentID,
				"logical_path", asset.LogicalPath,
				"error", err,
			)
			continue
		}
		resolved = append(resolved, domain.ResolvedAsset{
			Asset:        asset,
			ResolvedPath: path,
			Content:      content,
		})
	}
	return resolved
}
