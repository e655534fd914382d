package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/kirillkom/document-chat/internal/core/domain"
)

func newChatFixture(t *testing.T) (*ChatService, *repoFake, *indexFake, *completerFake, *chatLogFake) {
	t.Helper()
	repo := newRepoFake()
	index := newIndexFake()
	completer := &completerFake{answer: "it is a test document"}
	chatLog := newChatLogFake()
	service := NewChatService(repo, NewAssembler(index), completer, chatLog, "documents", nil)
	return service, repo, index, completer, chatLog
}

func TestAskAnswersFromAssembledContent(t *testing.T) {
	service, repo, index, completer, chatLog := newChatFixture(t)
	if err := repo.Create(context.Background(), &domain.Document{ID: "doc-1", Filename: "notes.txt"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	index.queryOut = []domain.StoredChunk{
		{Text: "part two", DocumentID: "doc-1", Index: 1},
		{Text: "part one", DocumentID: "doc-1", Index: 0},
	}

	turn, err := service.Ask(context.Background(), domain.Identity{Subject: "api"}, "doc-1", "what is this?")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if turn.AIResponse != "it is a test document" {
		t.Fatalf("unexpected answer %q", turn.AIResponse)
	}
	if turn.OwnerID != "api" {
		t.Fatalf("expected owner on turn, got %q", turn.OwnerID)
	}

	if len(completer.seen) != 1 {
		t.Fatalf("expected one completion call, got %d", len(completer.seen))
	}
	messages := completer.seen[0]
	if messages[0].Role != domain.RoleSystem {
		t.Fatalf("first message must be the system prompt")
	}
	userMsg := messages[1].Content
	if !strings.Contains(userMsg, "part one\n\npart two") {
		t.Fatalf("prompt must contain ordered document content, got %q", userMsg)
	}
	if !strings.Contains(userMsg, "what is this?") {
		t.Fatalf("prompt must contain the question, got %q", userMsg)
	}

	turns, err := chatLog.ListTurns(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("ListTurns() error = %v", err)
	}
	if len(turns) != 1 || turns[0].UserMsg != "what is this?" {
		t.Fatalf("expected logged turn, got %+v", turns)
	}
}

func TestAskUnknownDocumentIsNotFound(t *testing.T) {
	service, _, _, _, _ := newChatFixture(t)

	_, err := service.Ask(context.Background(), domain.Identity{}, "missing", "hello?")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestAskUningestedDocumentIsContentNotFound(t *testing.T) {
	service, repo, _, _, _ := newChatFixture(t)
	if err := repo.Create(context.Background(), &domain.Document{ID: "doc-1"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, err := service.Ask(context.Background(), domain.Identity{}, "doc-1", "hello?")
	if !domain.IsKind(err, domain.ErrContentNotFound) {
		t.Fatalf("expected ErrContentNotFound, got %v", err)
	}
}

func TestAskEmptyQuestionIsInvalidInput(t *testing.T) {
	service, repo, _, _, _ := newChatFixture(t)
	if err := repo.Create(context.Background(), &domain.Document{ID: "doc-1"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, err := service.Ask(context.Background(), domain.Identity{}, "doc-1", "   ")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAskCompletionFailureDoesNotLogTurn(t *testing.T) {
	service, repo, index, completer, chatLog := newChatFixture(t)
	if err := repo.Create(context.Background(), &domain.Document{ID: "doc-1"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	index.queryOut = []domain.StoredChunk{{Text: "x", DocumentID: "doc-1", Index: 0}}
	completer.err = domain.WrapError(domain.ErrTemporary, "ollama", errNotFound)

	_, err := service.Ask(context.Background(), domain.Identity{}, "doc-1", "hello?")
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary, got %v", err)
	}
	turns, _ := chatLog.ListTurns(context.Background(), "doc-1")
	if len(turns) != 0 {
		t.Fatalf("no turn should be logged on completion failure")
	}
}

func TestHistoryRequiresExistingDocument(t *testing.T) {
	service, _, _, _, _ := newChatFixture(t)

	_, err := service.History(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}
