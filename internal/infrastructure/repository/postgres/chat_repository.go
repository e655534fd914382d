package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kirillkom/document-chat/internal/core/domain"
)

type ChatRepository struct {
	db *sql.DB
}

func NewChatRepository(db *sql.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

func (r *ChatRepository) AppendTurn(ctx context.Context, turn domain.ChatTurn) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO chat_turns (id, document_id, owner_id, user_message, ai_response, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
`,
		turn.ID, turn.DocumentID, turn.OwnerID, turn.UserMsg, turn.AIResponse, turn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert chat turn: %w", err)
	}
	return nil
}

func (r *ChatRepository) ListTurns(ctx context.Context, documentID string) ([]domain.ChatTurn, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, document_id, owner_id, user_message, ai_response, created_at
FROM chat_turns
WHERE document_id = $1
ORDER BY created_at ASC
`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list chat turns: %w", err)
	}
	defer rows.Close()

	var turns []domain.ChatTurn
	for rows.Next() {
		var turn domain.ChatTurn
		if err := rows.Scan(
			&turn.ID, &turn.DocumentID, &turn.OwnerID, &turn.UserMsg, &turn.AIResponse, &turn.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan chat turn: %w", err)
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat turns: %w", err)
	}
	return turns, nil
}

func (r *ChatRepository) DeleteTurns(ctx context.Context, documentID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM chat_turns WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("delete chat turns: %w", err)
	}
	return nil
}
