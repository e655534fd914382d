package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/document-chat/internal/core/domain"
	"github.com/kirillkom/document-chat/internal/core/ports"
	"github.com/kirillkom/document-chat/internal/observability/metrics"
)

// Vectorizer runs the ingestion pipeline for one document: load the stored
// file, split it, embed the chunks and index them. Terminal state is always
// recorded, in the tracker and mirrored to the document record.
type Vectorizer struct {
	tracker    ports.StatusTracker
	repo       ports.DocumentRepository
	storage    ports.ObjectStorage
	loader     ports.DocumentLoader
	chunker    ports.Chunker
	index      ports.VectorIndex
	metrics    *metrics.PipelineMetrics
	collection string
	logger     *slog.Logger
}

func NewVectorizer(
	tracker ports.StatusTracker,
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	loader ports.DocumentLoader,
	chunker ports.Chunker,
	index ports.VectorIndex,
	pipelineMetrics *metrics.PipelineMetrics,
	collection string,
	logger *slog.Logger,
) *Vectorizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Vectorizer{
		tracker:    tracker,
		repo:       repo,
		storage:    storage,
		loader:     loader,
		chunker:    chunker,
		index:      index,
		metrics:    pipelineMetrics,
		collection: collection,
		logger:     logger,
	}
}

func (v *Vectorizer) Run(ctx context.Context, documentID string) error {
	start := time.Now()
	if v.metrics != nil {
		v.metrics.StartRun()
	}

	err := v.run(ctx, documentID)

	if v.metrics != nil {
		v.metrics.FinishRun(time.Since(start), err)
	}
	if err != nil {
		v.logger.Error("pipeline_run_failed", "document_id", documentID, "error", err)
		return err
	}
	v.logger.Info("pipeline_run_completed", "document_id", documentID, "duration", time.Since(start).String())
	return nil
}

func (v *Vectorizer) run(ctx context.Context, documentID string) error {
	if status, ok := v.tracker.Get(documentID); ok && v.metrics != nil {
		v.metrics.ObserveQueueLag(time.Since(status.UpdatedAt))
	}

	if err := v.tracker.MarkProcessing(documentID); err != nil {
		return err
	}
	if err := v.repo.UpdateIngestionState(ctx, documentID, domain.StateProcessing, ""); err != nil {
		v.logger.Warn("ingestion_state_update_failed", "document_id", documentID, "error", err)
	}

	path, sourceFile, err := v.resolveSource(ctx, documentID)
	if err != nil {
		return v.fail(ctx, documentID, err)
	}

	units, err := v.loader.Load(ctx, path)
	if err != nil {
		return v.fail(ctx, documentID, err)
	}

	chunks := v.splitUnits(documentID, sourceFile, units)
	if len(chunks) == 0 {
		return v.fail(ctx, documentID, domain.WrapError(domain.ErrLoad, "vectorize", fmt.Errorf("no chunks produced")))
	}

	ids, err := v.index.Add(ctx, v.collection, chunks)
	if err != nil {
		return v.fail(ctx, documentID, err)
	}

	meta := domain.IngestionMetadata{
		ChunksCreated: len(chunks),
		ChunkIDs:      ids,
		Collection:    v.collection,
	}
	if err := v.tracker.MarkCompleted(documentID, meta); err != nil {
		return err
	}
	if err := v.repo.UpdateIngestionState(ctx, documentID, domain.StateCompleted, ""); err != nil {
		v.logger.Warn("ingestion_state_update_failed", "document_id", documentID, "error", err)
	}
	return nil
}

// resolveSource prefers the document record; a directory scan by id prefix
// covers files whose record is gone. Any other repository failure is
// propagated rather than papered over with a scan.
func (v *Vectorizer) resolveSource(ctx context.Context, documentID string) (path, sourceFile string, err error) {
	doc, repoErr := v.repo.GetByID(ctx, documentID)
	if repoErr == nil {
		return v.storage.Path(doc.StoredName), doc.Filename, nil
	}
	if !domain.IsKind(repoErr, domain.ErrDocumentNotFound) {
		return "", "", repoErr
	}

	storedName, findErr := v.storage.FindByPrefix(ctx, documentID+"_")
	if findErr != nil {
		return "", "", findErr
	}
	return v.storage.Path(storedName), strings.TrimPrefix(storedName, documentID+"_"), nil
}

func (v *Vectorizer) splitUnits(documentID, sourceFile string, units []domain.Unit) []domain.Chunk {
	var chunks []domain.Chunk
	index := 0
	for _, unit := range units {
		for _, text := range v.chunker.Split(unit.Text) {
			chunks = append(chunks, domain.Chunk{
				Text:       text,
				DocumentID: documentID,
				SourceFile: sourceFile,
				Page:       unit.Page,
				Index:      index,
			})
			index++
		}
	}
	return chunks
}

func (v *Vectorizer) fail(ctx context.Context, documentID string, cause error) error {
	if err := v.tracker.MarkFailed(documentID, cause); err != nil {
		v.logger.Warn("status_mark_failed_failed", "document_id", documentID, "error", err)
	}
	if err := v.repo.UpdateIngestionState(ctx, documentID, domain.StateFailed, cause.Error()); err != nil {
		v.logger.Warn("ingestion_state_update_failed", "document_id", documentID, "error", err)
	}
	return cause
}
