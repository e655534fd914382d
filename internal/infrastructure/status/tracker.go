package status

import (
	"fmt"
	"sync"
	"time"

	"github.com/kirillkom/document-chat/internal/core/domain"
)

// Tracker is the in-memory ingestion state machine, one entry per document.
// Entries for different documents are independent; a RWMutex keeps concurrent
// polling and pipeline writes safe. Transitions out of a terminal state are
// rejected.
type Tracker struct {
	mu      sync.RWMutex
	entries map[string]domain.IngestionStatus
}

func NewTracker() *Tracker {
	return &Tracker{
		entries: make(map[string]domain.IngestionStatus),
	}
}

// Create records a fresh document as pending. Ids are generated per upload,
// so an existing entry means a caller bug.
func (t *Tracker) Create(documentID, storagePath string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.entries[documentID]; exists {
		return fmt.Errorf("status entry already exists for document %s", documentID)
	}
	t.entries[documentID] = domain.IngestionStatus{
		DocumentID:  documentID,
		State:       domain.StatePending,
		StoragePath: storagePath,
		UpdatedAt:   time.Now().UTC(),
	}
	return nil
}

func (t *Tracker) MarkProcessing(documentID string) error {
	return t.transition(documentID, domain.StateProcessing, func(entry *domain.IngestionStatus) {})
}

func (t *Tracker) MarkCompleted(documentID string, meta domain.IngestionMetadata) error {
	return t.transition(documentID, domain.StateCompleted, func(entry *domain.IngestionStatus) {
		entry.Metadata = &meta
		entry.Error = ""
	})
}

func (t *Tracker) MarkFailed(documentID string, cause error) error {
	message := ""
	if cause != nil {
		message = cause.Error()
	}
	return t.transition(documentID, domain.StateFailed, func(entry *domain.IngestionStatus) {
		entry.Error = message
	})
}

func (t *Tracker) Get(documentID string) (domain.IngestionStatus, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entry, ok := t.entries[documentID]
	return entry, ok
}

// Remove drops the entry as part of document deletion.
func (t *Tracker) Remove(documentID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, documentID)
}

func (t *Tracker) transition(documentID string, next domain.IngestionState, apply func(*domain.IngestionStatus)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[documentID]
	if !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "status transition", fmt.Errorf("document %s", documentID))
	}
	if entry.State.IsTerminal() {
		return fmt.Errorf("document %s already %s, cannot transition to %s", documentID, entry.State, next)
	}
	if !validTransition(entry.State, next) {
		return fmt.Errorf("invalid transition %s -> %s for document %s", entry.State, next, documentID)
	}

	entry.State = next
	entry.UpdatedAt = time.Now().UTC()
	apply(&entry)
	t.entries[documentID] = entry
	return nil
}

func validTransition(from, to domain.IngestionState) bool {
	switch from {
	case domain.StatePending:
		// A load failure may terminate the run before processing is marked.
		return to == domain.StateProcessing || to == domain.StateFailed
	case domain.StateProcessing:
		return to == domain.StateCompleted || to == domain.StateFailed
	default:
		return false
	}
}
