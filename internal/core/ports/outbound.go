package ports

import (
	"context"
	"io"

	"github.com/kirillkom/document-chat/internal/core/domain"
)

// DocumentRepository persists document records.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Document, error)
	Delete(ctx context.Context, id string) error
	UpdateIngestionState(ctx context.Context, id string, state domain.IngestionState, errMessage string) error
}

// ChatLogStore persists the per-document append-only chat log.
type ChatLogStore interface {
	AppendTurn(ctx context.Context, turn domain.ChatTurn) error
	ListTurns(ctx context.Context, documentID string) ([]domain.ChatTurn, error)
	DeleteTurns(ctx context.Context, documentID string) error
}

// ObjectStorage stores source documents by key.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	FindByPrefix(ctx context.Context, prefix string) (string, error)
	Path(key string) string
}

// MessageQueue carries document ids from the upload path to the pipeline.
type MessageQueue interface {
	PublishVectorize(ctx context.Context, documentID string) error
	SubscribeVectorize(ctx context.Context, handler func(context.Context, string)) error
}

// DocumentLoader reads a stored file into ordered text units.
type DocumentLoader interface {
	Load(ctx context.Context, path string) ([]domain.Unit, error)
}

// Chunker splits text into bounded overlapping segments.
type Chunker interface {
	Split(text string) []string
}

// Embedder builds vectors for chunk and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Completer generates text from an ordered list of role-tagged messages.
type Completer interface {
	Complete(ctx context.Context, messages []domain.Message) (string, error)
}

// VectorIndex stores embedded chunks and retrieves them filtered by document.
// QueryByDocument returns an empty slice, not an error, for an unknown
// collection or document id; callers must not assume a meaningful order.
type VectorIndex interface {
	Add(ctx context.Context, collection string, chunks []domain.Chunk) ([]string, error)
	QueryByDocument(ctx context.Context, collection, documentID string) ([]domain.StoredChunk, error)
	DeleteByDocument(ctx context.Context, collection, documentID string) error
}

// StatusTracker owns the per-document ingestion state machine. Only the
// upload path creates entries and only the pipeline advances them.
type StatusTracker interface {
	Create(documentID, storagePath string) error
	MarkProcessing(documentID string) error
	MarkCompleted(documentID string, meta domain.IngestionMetadata) error
	MarkFailed(documentID string, cause error) error
	Get(documentID string) (domain.IngestionStatus, bool)
	Remove(documentID string)
}

// TokenVerifier validates a bearer token and returns the caller identity.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (domain.Identity, error)
}

// WorkerPool runs pipeline jobs off the request goroutine with bounded width.
type WorkerPool interface {
	Submit(task func()) error
}
