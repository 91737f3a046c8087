package extractor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/kirillkom/document-triage/internal/core/domain"
)

func TestReadPlaintext(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.md"), []byte("  hello\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	source := NewSource(root)
	if !source.Exists("a.md") {
		t.Fatalf("expected file to exist")
	}
	text, err := source.Read(context.Background(), "a.md")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if text != "hello" {
		t.Fatalf("expected trimmed content, got %q", text)
	}
}

func TestReadRejectsBinary(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "blob.bin"), []byte{0xff, 0xfe, 0x00, 0x01}, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	source := NewSource(root)
	_, err := source.Read(context.Background(), "blob.bin")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestExistsIsFalseForDirectoriesAndMissing(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "subdir"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	source := NewSource(root)
	if source.Exists("subdir") {
		t.Fatalf("directories must not count as documents")
	}
	if source.Exists("missing.md") {
		t.Fatalf("missing file must not exist")
	}
}
