package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kirillkom/document-chat/internal/core/domain"
)

// readerFunc loads one supported format into ordered text units.
type readerFunc func(ctx context.Context, path string) ([]domain.Unit, error)

// Loader dispatches on the file extension through a fixed strategy table.
// Unknown extensions fail with ErrUnsupportedFormat; the pipeline records the
// failure instead of crashing.
type Loader struct {
	readers map[string]readerFunc
}

func New() *Loader {
	return &Loader{
		readers: map[string]readerFunc{
			".txt": readPlainText,
			".pdf": readPDF,
		},
	}
}

func (l *Loader) Load(ctx context.Context, path string) ([]domain.Unit, error) {
	ext := strings.ToLower(filepath.Ext(path))
	read, ok := l.readers[ext]
	if !ok {
		return nil, domain.WrapError(domain.ErrUnsupportedFormat, "load document", fmt.Errorf("extension %q", ext))
	}

	units, err := read(ctx, path)
	if err != nil {
		return nil, err
	}
	if len(units) == 0 {
		return nil, domain.WrapError(domain.ErrLoad, "load document", fmt.Errorf("no readable content in %s", filepath.Base(path)))
	}
	return units, nil
}

// SupportedExtensions lists the extensions the strategy table dispatches on.
func (l *Loader) SupportedExtensions() []string {
	out := make([]string, 0, len(l.readers))
	for ext := range l.readers {
		out = append(out, ext)
	}
	return out
}
