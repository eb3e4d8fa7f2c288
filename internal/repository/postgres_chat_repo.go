package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/saathi/internal/model"
)

// PostgresChatRepo はPostgreSQLを使用した会話ログリポジトリ。
type PostgresChatRepo struct {
	db *sql.DB
}

// NewPostgresChatRepo はPostgresChatRepoを生成する。
func NewPostgresChatRepo(db *sql.DB) *PostgresChatRepo {
	return &PostgresChatRepo{db: db}
}

// CreatePair はユーザー発話とアシスタント応答を1回の一括INSERTで保存する。
// 複数文書トランザクションではないため、部分失敗はat-least-once前提で許容する。
func (r *PostgresChatRepo) CreatePair(ctx context.Context, userMsg, assistantMsg *model.ChatMessage) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO chat_messages (message_id, conversation_id, user_id, role, content, is_crisis, ts)
		 VALUES ($1, $2, $3, $4, $5, $6, $7),
		        ($8, $9, $10, $11, $12, $13, $14)`,
		userMsg.MessageID, userMsg.ConversationID, userMsg.UserID,
		userMsg.Role, userMsg.Content, userMsg.IsCrisis, userMsg.Timestamp.UTC(),
		assistantMsg.MessageID, assistantMsg.ConversationID, assistantMsg.UserID,
		assistantMsg.Role, assistantMsg.Content, assistantMsg.IsCrisis, assistantMsg.Timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert message pair: %w", err)
	}
	return nil
}

// ListByConversation は指定会話のうち所有者のメッセージをtimestamp昇順で返す。
func (r *PostgresChatRepo) ListByConversation(ctx context.Context, conversationID, userID string, limit int) ([]*model.ChatMessage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT message_id, conversation_id, user_id, role, content, is_crisis, ts
		 FROM chat_messages
		 WHERE conversation_id = $1 AND user_id = $2
		 ORDER BY ts ASC
		 LIMIT $3`,
		conversationID, userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []*model.ChatMessage
	for rows.Next() {
		msg := &model.ChatMessage{}
		if err := rows.Scan(
			&msg.MessageID, &msg.ConversationID, &msg.UserID,
			&msg.Role, &msg.Content, &msg.IsCrisis, &msg.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.Timestamp = msg.Timestamp.UTC()
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return messages, nil
}

// DeleteByConversation は指定会話のうち所有者のメッセージをすべて削除する。
// 会話IDが同じ文字列でも所有者が異なるメッセージは削除されない。
func (r *PostgresChatRepo) DeleteByConversation(ctx context.Context, conversationID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM chat_messages WHERE conversation_id = $1 AND user_id = $2`,
		conversationID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ChatMessageRepository = (*PostgresChatRepo)(nil)
