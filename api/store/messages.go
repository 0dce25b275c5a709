package store

import (
	"context"
	"time"

	"github.com/krsna-app/krsna/api/domain"
)

const chatMessageColumns = `id, user_id, role, content, tool_calls, tool_call_id, msg_type, payload, status, created_at`

// CreateChatMessage inserts a message. ON CONFLICT handles the agent
// and api racing to persist the same message id.
func (s *Store) CreateChatMessage(ctx context.Context, msg *domain.ChatMessage) error {
	if msg.MsgType == "" {
		msg.MsgType = domain.MsgTypeText
	}
	if msg.Status == "" {
		msg.Status = domain.MessageStatusCompleted
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO chat_messages (id, user_id, role, content, tool_calls, tool_call_id, msg_type, payload, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			tool_calls = EXCLUDED.tool_calls,
			status = EXCLUDED.status`

	_, err := s.conn(ctx).Exec(ctx, query,
		msg.ID, msg.UserID, msg.Role, msg.Content, msg.ToolCalls, msg.ToolCallID,
		msg.MsgType, msg.Payload, msg.Status, msg.CreatedAt)
	if err != nil {
		return WrapError("create chat message", err)
	}
	return nil
}

// UpdateChatMessage overwrites the streamed fields of an in-flight
// message.
func (s *Store) UpdateChatMessage(ctx context.Context, msg *domain.ChatMessage) error {
	query := `
		UPDATE chat_messages
		SET content = $3, tool_calls = $4, status = $5
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`

	tag, err := s.conn(ctx).Exec(ctx, query,
		msg.ID, msg.UserID, msg.Content, msg.ToolCalls, msg.Status)
	if err != nil {
		return WrapError("update chat message", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListRecentMessages returns the user's last limit messages in
// chronological order.
func (s *Store) ListRecentMessages(ctx context.Context, userID string, limit int) ([]*domain.ChatMessage, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT ` + chatMessageColumns + `
		FROM (
			SELECT ` + chatMessageColumns + `
			FROM chat_messages
			WHERE user_id = $1 AND deleted_at IS NULL
			ORDER BY created_at DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC`

	rows, err := s.conn(ctx).Query(ctx, query, userID, limit)
	if err != nil {
		return nil, WrapError("list recent messages", err)
	}
	defer rows.Close()

	var messages []*domain.ChatMessage
	for rows.Next() {
		msg := &domain.ChatMessage{}
		if err := rows.Scan(
			&msg.ID, &msg.UserID, &msg.Role, &msg.Content, &msg.ToolCalls,
			&msg.ToolCallID, &msg.MsgType, &msg.Payload, &msg.Status, &msg.CreatedAt); err != nil {
			return nil, WrapError("scan chat message", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// ClearMessages soft-deletes the user's chat history.
func (s *Store) ClearMessages(ctx context.Context, userID string) error {
	query := `
		UPDATE chat_messages
		SET deleted_at = $2
		WHERE user_id = $1 AND deleted_at IS NULL`

	_, err := s.conn(ctx).Exec(ctx, query, userID, time.Now().UTC())
	if err != nil {
		return WrapError("clear messages", err)
	}
	return nil
}
