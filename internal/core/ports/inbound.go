package ports

import (
	"context"
	"io"

	"github.com/kirillkom/document-chat/internal/core/domain"
)

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, owner domain.Identity, filename, contentType string, body io.Reader) (*domain.Document, error)
}

// DocumentVectorizer is the inbound contract for asynchronous pipeline runs.
type DocumentVectorizer interface {
	Run(ctx context.Context, documentID string) error
}

// ContextAssembler reconstructs a document's content from its stored chunks.
type ContextAssembler interface {
	Assemble(ctx context.Context, collection, documentID string) (*domain.DocumentContext, error)
}

// DocumentChatService answers questions from one document's content.
type DocumentChatService interface {
	Ask(ctx context.Context, owner domain.Identity, documentID, question string) (*domain.ChatTurn, error)
	History(ctx context.Context, documentID string) ([]domain.ChatTurn, error)
}

// DocumentRemover deletes a document's index entries, file and records.
type DocumentRemover interface {
	Delete(ctx context.Context, documentID string) error
}

// LiveChatService runs free-form conversations in ephemeral sessions.
type LiveChatService interface {
	Open(ctx context.Context, owner domain.Identity) (domain.LiveSession, error)
	Send(ctx context.Context, sessionID, message string) (string, error)
	Close(ctx context.Context, sessionID string) error
}
