package loader

import (
	"context"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/document-chat/internal/core/domain"
)

// readPDF extracts text page by page, one unit per page. Pages without
// extractable text are skipped.
func readPDF(ctx context.Context, path string) ([]domain.Unit, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrLoad, "open pdf", err)
	}
	defer f.Close()

	total := reader.NumPage()
	units := make([]domain.Unit, 0, total)
	for pageNum := 1; pageNum <= total; pageNum++ {
		if err := ctx.Err(); err != nil {
			return nil, domain.WrapError(domain.ErrLoad, "extract pdf pages", err)
		}

		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, domain.WrapError(domain.ErrLoad, "extract pdf page text", err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		units = append(units, domain.Unit{Text: text, Page: pageNum})
	}
	return units, nil
}
