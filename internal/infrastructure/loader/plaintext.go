package loader

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/document-chat/internal/core/domain"
)

// readPlainText loads the whole file as a single unit. The file must be
// valid UTF-8.
func readPlainText(_ context.Context, path string) ([]domain.Unit, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrLoad, "read text file", err)
	}
	if !utf8.Valid(raw) {
		return nil, domain.WrapError(domain.ErrLoad, "read text file", fmt.Errorf("file is not valid UTF-8"))
	}

	text := strings.TrimSpace(string(raw))
	if text == "" {
		return nil, nil
	}
	return []domain.Unit{{Text: text, Page: 1}}, nil
}
