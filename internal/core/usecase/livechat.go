package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/document-chat/internal/core/domain"
	"github.com/kirillkom/document-chat/internal/core/ports"
)

const liveChatSystemPrompt = "You are a helpful assistant. Answer concisely."

// LiveChat holds free-form conversational sessions in memory. Each session
// keeps a bounded window of recent turns; nothing is persisted.
type LiveChat struct {
	completer    ports.Completer
	historyTurns int
	logger       *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*liveSession
}

type liveSession struct {
	mu      sync.Mutex
	owner   string
	created time.Time
	window  []domain.Message
}

func NewLiveChat(completer ports.Completer, historyTurns int, logger *slog.Logger) *LiveChat {
	if historyTurns < 1 {
		historyTurns = 10
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LiveChat{
		completer:    completer,
		historyTurns: historyTurns,
		logger:       logger,
		sessions:     make(map[string]*liveSession),
	}
}

func (l *LiveChat) Open(_ context.Context, owner domain.Identity) (domain.LiveSession, error) {
	session := &liveSession{
		owner:   owner.Subject,
		created: time.Now().UTC(),
	}
	id := uuid.NewString()

	l.mu.Lock()
	l.sessions[id] = session
	l.mu.Unlock()

	l.logger.Info("live_session_opened", "session_id", id)
	return domain.LiveSession{ID: id, OwnerID: owner.Subject, CreatedAt: session.created}, nil
}

func (l *LiveChat) Send(ctx context.Context, sessionID, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "live chat", fmt.Errorf("empty message"))
	}

	l.mu.RLock()
	session, ok := l.sessions[sessionID]
	l.mu.RUnlock()
	if !ok {
		return "", domain.WrapError(domain.ErrSessionNotFound, "live chat", fmt.Errorf("session %s", sessionID))
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	messages := make([]domain.Message, 0, len(session.window)+2)
	messages = append(messages, domain.Message{Role: domain.RoleSystem, Content: liveChatSystemPrompt})
	messages = append(messages, session.window...)
	messages = append(messages, domain.Message{Role: domain.RoleUser, Content: message})

	answer, err := l.completer.Complete(ctx, messages)
	if err != nil {
		return "", err
	}

	session.window = append(session.window,
		domain.Message{Role: domain.RoleUser, Content: message},
		domain.Message{Role: domain.RoleAssistant, Content: answer},
	)
	if max := l.historyTurns * 2; len(session.window) > max {
		session.window = session.window[len(session.window)-max:]
	}
	return answer, nil
}

// Close discards a session. Closing an unknown session is a no-op.
func (l *LiveChat) Close(_ context.Context, sessionID string) error {
	l.mu.Lock()
	_, ok := l.sessions[sessionID]
	delete(l.sessions, sessionID)
	l.mu.Unlock()

	if ok {
		l.logger.Info("live_session_closed", "session_id", sessionID)
	}
	return nil
}
