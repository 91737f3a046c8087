package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/document-triage/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across batch/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082601)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS document_types (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	path TEXT NOT NULL UNIQUE,
	content_hash TEXT,
	-- Not a foreign key: the oracle may declare a type id the taxonomy
	-- does not know yet, and that id is stored as declared.
	type_id TEXT,
	type_name TEXT,
	title TEXT,
	summary TEXT,
	tags JSONB NOT NULL DEFAULT '[]'::jsonb,
	tags_derived BOOLEAN NOT NULL DEFAULT FALSE,
	quality_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	reasoning TEXT,
	audience TEXT,
	quality JSONB,
	improvements JSONB,
	raw_response TEXT,
	status TEXT NOT NULL DEFAULT 'pending',
	error_message TEXT,
	deleted BOOLEAN NOT NULL DEFAULT FALSE,
	last_classified_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
CREATE INDEX IF NOT EXISTS idx_documents_type_id ON documents(type_id);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

const documentColumns = `id, path, content_hash, type_id, status, error_message, deleted, last_classified_at, created_at, updated_at`

func (r *DocumentRepository) ListUnclassified(ctx context.Context, limit int, includeProcessed bool) ([]domain.Document, error) {
	query := `
SELECT ` + documentColumns + `
FROM documents
WHERE deleted = FALSE`
	if !includeProcessed {
		query += `
AND (type_id IS NULL OR type_id = '')`
	}
	query += `
ORDER BY created_at`

	var rows *sql.Rows
	var err error
	if limit > 0 {
		query += `
LIMIT $1`
		rows, err = r.db.QueryContext(ctx, query, limit)
	} else {
		rows, err = r.db.QueryContext(ctx, query)
	}
	if err != nil {
		return nil, fmt.Errorf("list unclassified documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE id = $1
`, id)
	return r.scanOne(row, id)
}

func (r *DocumentRepository) GetByPath(ctx context.Context, path string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE path = $1
`, path)
	return r.scanOne(row, path)
}

func (r *DocumentRepository) scanOne(row *sql.Row, ref string) (*domain.Document, error) {
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "fetch document", fmt.Errorf("%s", ref))
		}
		return nil, err
	}
	return doc, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var contentHash, typeID, errMessage sql.NullString
	var lastClassifiedAt sql.NullTime
	var status string

	err := row.Scan(
		&doc.ID, &doc.Path, &contentHash, &typeID, &status, &errMessage,
		&doc.Deleted, &lastClassifiedAt, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}

	doc.ContentHash = contentHash.String
	doc.CurrentTypeID = typeID.String
	doc.Error = errMessage.String
	doc.Status = domain.DocumentStatus(status)
	if lastClassifiedAt.Valid {
		t := lastClassifiedAt.Time
		doc.LastClassifiedAt = &t
	}
	return &doc, nil
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return requireRowAffected(result, "update document status", id)
}

// SaveResult is the idempotent upsert of a reconciled result: replaying
// the same result for the same id yields the same row.
func (r *DocumentRepository) SaveResult(ctx context.Context, id string, res domain.ClassificationResult, contentHash string) error {
	tagsJSON, err := json.Marshal(res.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	qualityJSON, err := json.Marshal(res.Quality)
	if err != nil {
		return fmt.Errorf("marshal quality: %w", err)
	}
	improvementsJSON, err := json.Marshal(res.Improvements)
	if err != nil {
		return fmt.Errorf("marshal improvements: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
UPDATE documents
SET type_id = NULLIF($2, ''),
	type_name = $3,
	title = $4,
	summary = $5,
	tags = $6,
	tags_derived = $7,
	quality_score = $8,
	reasoning = $9,
	audience = $10,
	quality = $11,
	improvements = $12,
	raw_response = $13,
	content_hash = $14,
	last_classified_at = $15,
	updated_at = $16
WHERE id = $1
`,
		id, res.TypeID, res.TypeName, res.Title, res.Summary, tagsJSON, res.TagsDerived,
		res.QualityScore, res.Reasoning, res.Audience, qualityJSON, improvementsJSON,
		res.RawResponse, contentHash, res.ProcessedAt, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save classification result: %w", err)
	}
	return requireRowAffected(result, "save classification result", id)
}

func (r *DocumentRepository) MarkDeleted(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE documents
SET deleted = TRUE, status = $2, updated_at = $3
WHERE id = $1
`, id, string(domain.StatusDeleted), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark document deleted: %w", err)
	}
	return requireRowAffected(result, "mark document deleted", id)
}

func requireRowAffected(result sql.Result, operation, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", operation, err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, operation, fmt.Errorf("%s", id))
	}
	return nil
}
