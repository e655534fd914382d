package chunking

import (
	"fmt"

	"github.com/kirillkom/document-chat/internal/core/domain"
)

// Splitter produces fixed-size overlapping segments. Rune-based so multi-byte
// text never splits inside a code point.
type Splitter struct {
	chunkSize int
	overlap   int
}

func NewSplitter(chunkSize, overlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, domain.WrapError(domain.ErrConfig, "new splitter", fmt.Errorf("chunk size must be positive, got %d", chunkSize))
	}
	if overlap < 0 {
		return nil, domain.WrapError(domain.ErrConfig, "new splitter", fmt.Errorf("overlap must be non-negative, got %d", overlap))
	}
	if overlap >= chunkSize {
		return nil, domain.WrapError(domain.ErrConfig, "new splitter", fmt.Errorf("overlap %d must be smaller than chunk size %d", overlap, chunkSize))
	}
	return &Splitter{
		chunkSize: chunkSize,
		overlap:   overlap,
	}, nil
}

// Split covers the full text with chunks of at most chunkSize runes, each
// consecutive pair sharing exactly overlap runes (except a shorter final
// chunk). Deterministic for identical input.
func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= s.chunkSize {
		return []string{text}
	}

	step := s.chunkSize - s.overlap
	out := make([]string, 0, len(runes)/step+1)
	for start := 0; start < len(runes); start += step {
		end := start + s.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return out
}

// ChunkSize reports the configured target segment length in runes.
func (s *Splitter) ChunkSize() int { return s.chunkSize }

// Overlap reports the configured overlap length in runes.
func (s *Splitter) Overlap() int { return s.overlap }
