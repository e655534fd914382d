package usecase

import (
	"context"
	"testing"

	"github.com/kirillkom/document-chat/internal/core/domain"
)

func newDeleteFixture(t *testing.T) (*Remover, *repoFake, *storageFake, *indexFake, *chatLogFake, *trackerFake) {
	t.Helper()
	repo := newRepoFake()
	storage := newStorageFake()
	index := newIndexFake()
	chatLog := newChatLogFake()
	tracker := newTrackerFake()
	remover := NewRemover(repo, storage, index, chatLog, tracker, "documents", nil)
	return remover, repo, storage, index, chatLog, tracker
}

func TestDeleteRemovesEveryTrace(t *testing.T) {
	remover, repo, storage, index, chatLog, tracker := newDeleteFixture(t)
	doc := domain.Document{ID: "doc-1", StoredName: "doc-1_notes.txt"}
	if err := repo.Create(context.Background(), &doc); err != nil {
		t.Fatalf("seed: %v", err)
	}
	storage.files[doc.StoredName] = []byte("content")
	if err := tracker.Create("doc-1", "/fake/doc-1_notes.txt"); err != nil {
		t.Fatalf("seed status: %v", err)
	}
	if err := chatLog.AppendTurn(context.Background(), domain.ChatTurn{ID: "t1", DocumentID: "doc-1"}); err != nil {
		t.Fatalf("seed turn: %v", err)
	}

	if err := remover.Delete(context.Background(), "doc-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if len(index.deleted) != 1 || index.deleted[0] != "doc-1" {
		t.Fatalf("index entries not removed: %v", index.deleted)
	}
	if _, ok := storage.files[doc.StoredName]; ok {
		t.Fatalf("stored file not removed")
	}
	if len(chatLog.cleared) != 1 {
		t.Fatalf("chat log not cleared: %v", chatLog.cleared)
	}
	if _, err := repo.GetByID(context.Background(), "doc-1"); !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("document record should be gone, got %v", err)
	}
	if _, ok := tracker.Get("doc-1"); ok {
		t.Fatalf("status entry should be removed")
	}
}

func TestDeleteUnknownDocumentIsNotFound(t *testing.T) {
	remover, _, _, _, _, _ := newDeleteFixture(t)

	err := remover.Delete(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestDeleteIndexFailureLeavesFileAndRecord(t *testing.T) {
	remover, repo, storage, index, _, _ := newDeleteFixture(t)
	doc := domain.Document{ID: "doc-1", StoredName: "doc-1_notes.txt"}
	if err := repo.Create(context.Background(), &doc); err != nil {
		t.Fatalf("seed: %v", err)
	}
	storage.files[doc.StoredName] = []byte("content")
	index.deleteE = domain.WrapError(domain.ErrStore, "qdrant", errNotFound)

	err := remover.Delete(context.Background(), "doc-1")
	if !domain.IsKind(err, domain.ErrStore) {
		t.Fatalf("expected ErrStore, got %v", err)
	}
	if _, ok := storage.files[doc.StoredName]; !ok {
		t.Fatalf("file must survive when index deletion fails")
	}
	if _, getErr := repo.GetByID(context.Background(), "doc-1"); getErr != nil {
		t.Fatalf("record must survive when index deletion fails: %v", getErr)
	}
}
