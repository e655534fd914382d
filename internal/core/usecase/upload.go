package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/document-chat/internal/core/domain"
	"github.com/kirillkom/document-chat/internal/core/ports"
)

// Each accepted content type maps to the extension the pipeline loader
// dispatches on; a filename that contradicts its content type would only
// fail later, during vectorization.
var allowedContentTypes = map[string]string{
	"text/plain":      ".txt",
	"application/pdf": ".pdf",
}

// Uploader accepts a document, persists it and schedules vectorization.
// Unsupported formats are rejected here, before any state is created.
type Uploader struct {
	repo    ports.DocumentRepository
	storage ports.ObjectStorage
	tracker ports.StatusTracker
	queue   ports.MessageQueue
	logger  *slog.Logger
}

func NewUploader(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	tracker ports.StatusTracker,
	queue ports.MessageQueue,
	logger *slog.Logger,
) *Uploader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{
		repo:    repo,
		storage: storage,
		tracker: tracker,
		queue:   queue,
		logger:  logger,
	}
}

func (u *Uploader) Upload(ctx context.Context, owner domain.Identity, filename, contentType string, body io.Reader) (*domain.Document, error) {
	filename = strings.TrimSpace(filepath.Base(filename))
	if filename == "" || filename == "." {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload", fmt.Errorf("empty filename"))
	}

	mediaType := normalizeContentType(contentType)
	ext, ok := allowedContentTypes[mediaType]
	if !ok {
		return nil, domain.WrapError(domain.ErrUnsupportedFormat, "upload", fmt.Errorf("content type %q", contentType))
	}
	if !strings.EqualFold(filepath.Ext(filename), ext) {
		return nil, domain.WrapError(domain.ErrUnsupportedFormat, "upload",
			fmt.Errorf("filename %q does not match content type %q", filename, mediaType))
	}

	id := uuid.NewString()
	storedName := id + "_" + sanitizeFilename(filename)

	size, err := u.storage.Save(ctx, storedName, body)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStore, "upload", err)
	}

	now := time.Now().UTC()
	doc := &domain.Document{
		ID:          id,
		Filename:    filename,
		StoredName:  storedName,
		ContentType: mediaType,
		SizeBytes:   size,
		StoragePath: u.storage.Path(storedName),
		OwnerID:     owner.Subject,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := u.repo.Create(ctx, doc); err != nil {
		if removeErr := u.storage.Delete(ctx, storedName); removeErr != nil {
			u.logger.Warn("orphaned_upload_cleanup_failed", "document_id", id, "error", removeErr)
		}
		return nil, domain.WrapError(domain.ErrStore, "upload", err)
	}

	if err := u.tracker.Create(id, doc.StoragePath); err != nil {
		u.logger.Warn("status_create_failed", "document_id", id, "error", err)
	}

	if err := u.queue.PublishVectorize(ctx, id); err != nil {
		if markErr := u.tracker.MarkFailed(id, err); markErr != nil {
			u.logger.Warn("status_mark_failed_failed", "document_id", id, "error", markErr)
		}
		if stateErr := u.repo.UpdateIngestionState(ctx, id, domain.StateFailed, err.Error()); stateErr != nil {
			u.logger.Warn("ingestion_state_update_failed", "document_id", id, "error", stateErr)
		}
		return nil, err
	}

	u.logger.Info("document_uploaded",
		"document_id", id,
		"filename", filename,
		"content_type", mediaType,
		"size_bytes", size,
	)
	return doc, nil
}

func normalizeContentType(contentType string) string {
	mediaType := strings.TrimSpace(strings.ToLower(contentType))
	if i := strings.Index(mediaType, ";"); i >= 0 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}
	return mediaType
}

func sanitizeFilename(filename string) string {
	var b strings.Builder
	for _, r := range filename {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
