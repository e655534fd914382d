package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/kirillkom/document-chat/internal/core/domain"
)

var errNotFound = errors.New("not found")

type repoFake struct {
	mu      sync.Mutex
	docs    map[string]domain.Document
	states  map[string]domain.IngestionState
	createE error
	getE    error
}

func newRepoFake() *repoFake {
	return &repoFake{
		docs:   make(map[string]domain.Document),
		states: make(map[string]domain.IngestionState),
	}
}

func (f *repoFake) Create(_ context.Context, doc *domain.Document) error {
	if f.createE != nil {
		return f.createE
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[doc.ID] = *doc
	f.states[doc.ID] = domain.StatePending
	return nil
}

func (f *repoFake) GetByID(_ context.Context, id string) (*domain.Document, error) {
	if f.getE != nil {
		return nil, f.getE
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", errNotFound)
	}
	return &doc, nil
}

func (f *repoFake) ListByOwner(_ context.Context, ownerID string) ([]domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Document
	for _, doc := range f.docs {
		if doc.OwnerID == ownerID {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (f *repoFake) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[id]; !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "delete document", errNotFound)
	}
	delete(f.docs, id)
	delete(f.states, id)
	return nil
}

func (f *repoFake) UpdateIngestionState(_ context.Context, id string, state domain.IngestionState, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[id]; !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "update ingestion state", errNotFound)
	}
	f.states[id] = state
	return nil
}

type storageFake struct {
	mu      sync.Mutex
	files   map[string][]byte
	saveE   error
	deleted []string
}

func newStorageFake() *storageFake {
	return &storageFake{files: make(map[string][]byte)}
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) (int64, error) {
	if f.saveE != nil {
		return 0, f.saveE
	}
	content, err := io.ReadAll(data)
	if err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[key] = content
	return int64(len(content)), nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	content, ok := f.files[key]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "open", errNotFound)
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

func (f *storageFake) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *storageFake) FindByPrefix(_ context.Context, prefix string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key := range f.files {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			return key, nil
		}
	}
	return "", domain.WrapError(domain.ErrDocumentNotFound, "find by prefix", errNotFound)
}

func (f *storageFake) Path(key string) string {
	return "/fake/" + key
}

type trackerFake struct {
	mu       sync.Mutex
	statuses map[string]domain.IngestionStatus
	removed  []string
}

func newTrackerFake() *trackerFake {
	return &trackerFake{statuses: make(map[string]domain.IngestionStatus)}
}

func (f *trackerFake) Create(documentID, storagePath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[documentID] = domain.IngestionStatus{
		DocumentID:  documentID,
		State:       domain.StatePending,
		StoragePath: storagePath,
	}
	return nil
}

func (f *trackerFake) MarkProcessing(documentID string) error {
	return f.setState(documentID, domain.StateProcessing, nil, "")
}

func (f *trackerFake) MarkCompleted(documentID string, meta domain.IngestionMetadata) error {
	return f.setState(documentID, domain.StateCompleted, &meta, "")
}

func (f *trackerFake) MarkFailed(documentID string, cause error) error {
	return f.setState(documentID, domain.StateFailed, nil, cause.Error())
}

func (f *trackerFake) setState(documentID string, state domain.IngestionState, meta *domain.IngestionMetadata, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	status := f.statuses[documentID]
	status.DocumentID = documentID
	status.State = state
	status.Metadata = meta
	status.Error = errMsg
	f.statuses[documentID] = status
	return nil
}

func (f *trackerFake) Get(documentID string) (domain.IngestionStatus, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	status, ok := f.statuses[documentID]
	return status, ok
}

func (f *trackerFake) Remove(documentID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.statuses, documentID)
	f.removed = append(f.removed, documentID)
}

type queueFake struct {
	mu        sync.Mutex
	published []string
	publishE  error
}

func (f *queueFake) PublishVectorize(_ context.Context, documentID string) error {
	if f.publishE != nil {
		return f.publishE
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, documentID)
	return nil
}

func (f *queueFake) SubscribeVectorize(ctx context.Context, _ func(context.Context, string)) error {
	<-ctx.Done()
	return nil
}

type loaderFake struct {
	units []domain.Unit
	err   error
}

func (f loaderFake) Load(_ context.Context, _ string) ([]domain.Unit, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.units, nil
}

type chunkerFake struct {
	size int
}

func (f chunkerFake) Split(text string) []string {
	size := f.size
	if size <= 0 {
		return []string{text}
	}
	runes := []rune(text)
	var out []string
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}

type indexFake struct {
	mu       sync.Mutex
	stored   map[string][]domain.Chunk
	queryOut []domain.StoredChunk
	addE     error
	queryE   error
	deleteE  error
	deleted  []string
}

func newIndexFake() *indexFake {
	return &indexFake{stored: make(map[string][]domain.Chunk)}
}

func (f *indexFake) Add(_ context.Context, _ string, chunks []domain.Chunk) ([]string, error) {
	if f.addE != nil {
		return nil, f.addE
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, len(chunks))
	for i, chunk := range chunks {
		f.stored[chunk.DocumentID] = append(f.stored[chunk.DocumentID], chunk)
		ids[i] = chunk.DocumentID + "-" + chunk.Text
	}
	return ids, nil
}

func (f *indexFake) QueryByDocument(_ context.Context, _, _ string) ([]domain.StoredChunk, error) {
	if f.queryE != nil {
		return nil, f.queryE
	}
	return f.queryOut, nil
}

func (f *indexFake) DeleteByDocument(_ context.Context, _, documentID string) error {
	if f.deleteE != nil {
		return f.deleteE
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, documentID)
	return nil
}

type completerFake struct {
	mu     sync.Mutex
	answer string
	err    error
	seen   [][]domain.Message
}

func (f *completerFake) Complete(_ context.Context, messages []domain.Message) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, messages)
	return f.answer, nil
}

type chatLogFake struct {
	mu      sync.Mutex
	turns   map[string][]domain.ChatTurn
	appendE error
	cleared []string
}

func newChatLogFake() *chatLogFake {
	return &chatLogFake{turns: make(map[string][]domain.ChatTurn)}
}

func (f *chatLogFake) AppendTurn(_ context.Context, turn domain.ChatTurn) error {
	if f.appendE != nil {
		return f.appendE
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.turns[turn.DocumentID] = append(f.turns[turn.DocumentID], turn)
	return nil
}

func (f *chatLogFake) ListTurns(_ context.Context, documentID string) ([]domain.ChatTurn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.turns[documentID], nil
}

func (f *chatLogFake) DeleteTurns(_ context.Context, documentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.turns, documentID)
	f.cleared = append(f.cleared, documentID)
	return nil
}
