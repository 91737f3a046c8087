package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestListEntriesPreservesOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "name", "category", "description"}).
		AddRow("a", "Report", "business", "formal report").
		AddRow("b", "Memo", "business", "")

	mock.ExpectQuery("SELECT id, name, category, description").
		WillReturnRows(rows)

	repo := NewTaxonomyRepository(db)
	entries, err := repo.ListEntries(context.Background())
	if err != nil {
		t.Fatalf("ListEntries() error = %v", err)
	}
	if len(entries) != 2 || entries[0].ID != "a" || entries[1].ID != "b" {
		t.Fatalf("expected ordered entries, got %v", entries)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
