// Package model はドメインモデルを定義する。
package model

import "time"

// MessageRole はチャットメッセージの発話者区分を表す。
type MessageRole string

const (
	// MessageRoleUser はユーザー発話。
	MessageRoleUser MessageRole = "user"
	// MessageRoleAssistant はアシスタント応答。
	MessageRoleAssistant MessageRole = "assistant"
)

// ChatMessage は会話ログの1ターンを表す。
// ConversationIDは認証セッションとは独立したクライアント指定のスレッドID。
// 作成後は不変で、会話単位の一括削除のみ許可される。
type ChatMessage struct {
	MessageID      string
	ConversationID string
	UserID         string
	Role           MessageRole
	Content        string
	IsCrisis       bool
	Timestamp      time.Time
}
