package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrLoad              = errors.New("load failure")
	ErrEmbedding         = errors.New("embedding failure")
	ErrStore             = errors.New("store failure")
	ErrDocumentNotFound  = errors.New("document not found")
	ErrSessionNotFound   = errors.New("session not found")
	ErrContentNotFound   = errors.New("document content not found")
	ErrConfig            = errors.New("invalid configuration")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrTemporary         = errors.New("temporary failure")
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
