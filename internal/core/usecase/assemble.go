package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kirillkom/document-chat/internal/core/domain"
	"github.com/kirillkom/document-chat/internal/core/ports"
)

// Assembler rebuilds a document's full content from its indexed chunks.
// Every stored chunk is included; chunk order follows the index recorded at
// split time, not the order the vector store happens to return.
type Assembler struct {
	index ports.VectorIndex
}

func NewAssembler(index ports.VectorIndex) *Assembler {
	return &Assembler{index: index}
}

func (a *Assembler) Assemble(ctx context.Context, collection, documentID string) (*domain.DocumentContext, error) {
	chunks, err := a.index.QueryByDocument(ctx, collection, documentID)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, domain.WrapError(domain.ErrContentNotFound, "assemble", fmt.Errorf("document %s has no indexed content", documentID))
	}

	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].Index < chunks[j].Index
	})

	parts := make([]string, len(chunks))
	for i, chunk := range chunks {
		parts[i] = chunk.Text
	}
	content := strings.TrimRight(strings.Join(parts, "\n\n"), " \t\r\n")

	return &domain.DocumentContext{
		DocumentID:  documentID,
		FullContent: content,
		Chunks:      chunks,
		TotalChunks: len(chunks),
	}, nil
}
