package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/document-triage/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*DocumentRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &DocumentRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, path, content_hash").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListUnclassifiedFiltersClassified(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "path", "content_hash", "type_id", "status", "error_message",
		"deleted", "last_classified_at", "created_at", "updated_at",
	}).AddRow("d1", "a.md", nil, nil, "pending", nil, false, nil, now, now)

	mock.ExpectQuery("type_id IS NULL").
		WithArgs(5).
		WillReturnRows(rows)

	docs, err := repo.ListUnclassified(context.Background(), 5, false)
	if err != nil {
		t.Fatalf("ListUnclassified() error = %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "d1" {
		t.Fatalf("expected one pending document, got %v", docs)
	}
	if docs[0].Classified() {
		t.Fatalf("expected unclassified document")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateStatusReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE documents").
		WithArgs("missing", string(domain.StatusProcessing), "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", domain.StatusProcessing, "")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveResultIsIdempotent(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	res := domain.ClassificationResult{
		TypeID:       "a",
		TypeName:     "Report",
		Title:        "Q1",
		Summary:      "numbers",
		Tags:         []string{"finance"},
		QualityScore: 0.9,
		Quality:      domain.DefaultQualityScores(),
		RawResponse:  `{"document_type_id":"a"}`,
		ProcessedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	for i := 0; i < 2; i++ {
		mock.ExpectExec("UPDATE documents").
			WithArgs(
				"d1", "a", "Report", "Q1", "numbers", sqlmock.AnyArg(), false,
				0.9, "", "", sqlmock.AnyArg(), sqlmock.AnyArg(),
				res.RawResponse, "hash", res.ProcessedAt, sqlmock.AnyArg(),
			).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}

	for i := 0; i < 2; i++ {
		if err := repo.SaveResult(context.Background(), "d1", res, "hash"); err != nil {
			t.Fatalf("SaveResult() attempt %d error = %v", i+1, err)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveResultPersistsUnverifiableTypeID(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	// A type id the taxonomy does not know must still be written as
	// declared; it is the operator's taxonomy-drift signal.
	res := domain.ClassificationResult{
		TypeID:       "zzz",
		TypeName:     "Unknown Type",
		Title:        "Q1",
		Tags:         []string{},
		QualityScore: 0.5,
		Quality:      domain.DefaultQualityScores(),
		RawResponse:  `{"document_type_id":"zzz"}`,
		ProcessedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	mock.ExpectExec("UPDATE documents").
		WithArgs(
			"d1", "zzz", "Unknown Type", "Q1", "", sqlmock.AnyArg(), false,
			0.5, "", "", sqlmock.AnyArg(), sqlmock.AnyArg(),
			res.RawResponse, "hash", res.ProcessedAt, sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SaveResult(context.Background(), "d1", res, "hash"); err != nil {
		t.Fatalf("SaveResult() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMarkDeletedSetsDeletedStatus(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE documents").
		WithArgs("d1", string(domain.StatusDeleted), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.MarkDeleted(context.Background(), "d1"); err != nil {
		t.Fatalf("MarkDeleted() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
