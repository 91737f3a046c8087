package extractor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/document-triage/internal/core/domain"
)

// Source reads document content relative to the configured root,
// dispatching by extension. Unknown binary formats are rejected rather
// than fed to the oracle as garbage.
type Source struct {
	root string
}

func NewSource(root string) *Source {
	return &Source{root: root}
}

func (s *Source) abs(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.root, path)
}

func (s *Source) Exists(path string) bool {
	info, err := os.Stat(s.abs(path))
	return err == nil && !info.IsDir()
}

func (s *Source) Read(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	full := s.abs(path)
	if strings.EqualFold(filepath.Ext(full), ".pdf") {
		return readPDF(full)
	}

	raw, err := os.ReadFile(full)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	if !utf8.Valid(raw) {
		return "", domain.WrapError(domain.ErrInvalidInput, "read document", fmt.Errorf("unsupported binary format: %s", path))
	}

	text := strings.TrimSpace(string(raw))
	return text, nil
}
