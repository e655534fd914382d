package usecase

import (
	"context"
	"log/slog"

	"github.com/kirillkom/document-chat/internal/core/domain"
	"github.com/kirillkom/document-chat/internal/core/ports"
)

// Remover deletes every trace of a document: index entries first, then the
// stored file, the chat log and the record. Each step tolerates absence so
// a partially-failed deletion can be retried.
type Remover struct {
	repo       ports.DocumentRepository
	storage    ports.ObjectStorage
	index      ports.VectorIndex
	chatLog    ports.ChatLogStore
	tracker    ports.StatusTracker
	collection string
	logger     *slog.Logger
}

func NewRemover(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	index ports.VectorIndex,
	chatLog ports.ChatLogStore,
	tracker ports.StatusTracker,
	collection string,
	logger *slog.Logger,
) *Remover {
	if logger == nil {
		logger = slog.Default()
	}
	return &Remover{
		repo:       repo,
		storage:    storage,
		index:      index,
		chatLog:    chatLog,
		tracker:    tracker,
		collection: collection,
		logger:     logger,
	}
}

func (r *Remover) Delete(ctx context.Context, documentID string) error {
	doc, err := r.repo.GetByID(ctx, documentID)
	if err != nil {
		return err
	}

	if err := r.index.DeleteByDocument(ctx, r.collection, documentID); err != nil {
		return err
	}
	if err := r.storage.Delete(ctx, doc.StoredName); err != nil {
		return err
	}
	if err := r.chatLog.DeleteTurns(ctx, documentID); err != nil {
		return err
	}
	if err := r.repo.Delete(ctx, documentID); err != nil && !domain.IsKind(err, domain.ErrDocumentNotFound) {
		return err
	}
	r.tracker.Remove(documentID)

	r.logger.Info("document_deleted", "document_id", documentID)
	return nil
}
