package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrAssetNotFound    = errors.New("asset not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrConfig           = errors.New("configuration error")
	ErrTemporary        = errors.New("temporary failure")

	// ErrDegradedParse marks a reconciliation that produced no type id.
	// It is terminal for the document and never retried.
	ErrDegradedParse = errors.New("degraded oracle response")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
