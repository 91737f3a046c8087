package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kirillkom/document-triage/internal/core/domain"
)

type TaxonomyRepository struct {
	db *sql.DB
}

func NewTaxonomyRepository(db *sql.DB) *TaxonomyRepository {
	return &TaxonomyRepository{db: db}
}

// ListEntries loads the full taxonomy in stable order. Iteration order
// matters downstream: substring matching takes the first hit and the
// first entry is the documented fallback.
func (r *TaxonomyRepository) ListEntries(ctx context.Context) ([]domain.TaxonomyEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, category, description
FROM document_types
ORDER BY id
`)
	if err != nil {
		return nil, fmt.Errorf("list document types: %w", err)
	}
	defer rows.Close()

	var entries []domain.TaxonomyEntry
	for rows.Next() {
		var entry domain.TaxonomyEntry
		if err := rows.Scan(&entry.ID, &entry.Name, &entry.Category, &entry.Description); err != nil {
			return nil, fmt.Errorf("scan document type: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document types: %w", err)
	}
	return entries, nil
}
