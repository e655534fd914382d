package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/document-chat/internal/core/domain"
	"github.com/kirillkom/document-chat/internal/core/ports"
	"github.com/kirillkom/document-chat/internal/observability/metrics"
)

const chatSystemPrompt = "You answer questions using only the provided document content. " +
	"If the answer is not in the document, say so."

// ChatService answers questions about a single document from its full
// assembled content and keeps an append-only log of exchanges.
type ChatService struct {
	repo       ports.DocumentRepository
	assembler  ports.ContextAssembler
	completer  ports.Completer
	chatLog    ports.ChatLogStore
	collection string
	logger     *slog.Logger

	metrics *metrics.HTTPServerMetrics
	service string
}

// WithMetrics enables per-request chat metrics. Optional.
func (s *ChatService) WithMetrics(m *metrics.HTTPServerMetrics, service string) *ChatService {
	s.metrics = m
	s.service = service
	return s
}

func NewChatService(
	repo ports.DocumentRepository,
	assembler ports.ContextAssembler,
	completer ports.Completer,
	chatLog ports.ChatLogStore,
	collection string,
	logger *slog.Logger,
) *ChatService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatService{
		repo:       repo,
		assembler:  assembler,
		completer:  completer,
		chatLog:    chatLog,
		collection: collection,
		logger:     logger,
	}
}

func (s *ChatService) Ask(ctx context.Context, owner domain.Identity, documentID, question string) (*domain.ChatTurn, error) {
	start := time.Now()
	chunksUsed := 0
	var askErr error
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordChat(s.service, chunksUsed, time.Since(start), askErr)
		}
	}()

	question = strings.TrimSpace(question)
	if question == "" {
		askErr = domain.WrapError(domain.ErrInvalidInput, "chat", fmt.Errorf("empty question"))
		return nil, askErr
	}

	if _, err := s.repo.GetByID(ctx, documentID); err != nil {
		askErr = err
		return nil, err
	}

	docContext, err := s.assembler.Assemble(ctx, s.collection, documentID)
	if err != nil {
		askErr = err
		return nil, err
	}
	chunksUsed = docContext.TotalChunks

	answer, err := s.completer.Complete(ctx, []domain.Message{
		{Role: domain.RoleSystem, Content: chatSystemPrompt},
		{Role: domain.RoleUser, Content: fmt.Sprintf("Document content:\n%s\n\nQuestion: %s", docContext.FullContent, question)},
	})
	if err != nil {
		askErr = err
		return nil, err
	}

	turn := domain.ChatTurn{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		OwnerID:    owner.Subject,
		UserMsg:    question,
		AIResponse: answer,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.chatLog.AppendTurn(ctx, turn); err != nil {
		// The answer is already produced; losing one log row is preferable
		// to discarding it.
		s.logger.Warn("chat_log_append_failed", "document_id", documentID, "error", err)
	}

	s.logger.Info("chat_turn_answered",
		"document_id", documentID,
		"chunks_used", docContext.TotalChunks,
	)
	return &turn, nil
}

func (s *ChatService) History(ctx context.Context, documentID string) ([]domain.ChatTurn, error) {
	if _, err := s.repo.GetByID(ctx, documentID); err != nil {
		return nil, err
	}
	return s.chatLog.ListTurns(ctx, documentID)
}
