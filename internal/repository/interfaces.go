// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/saathi/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, userID string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error

	// FindByToken は指定トークンのセッションを取得する。見つからない場合はnilを返す。
	// 期限切れ判定はサービス層で行うため、期限切れセッションもそのまま返す
	// （無効トークンと期限切れを区別したエラーを返すため）。
	FindByToken(ctx context.Context, token string) (*model.Session, error)

	// DeleteByToken は指定トークンのセッションを削除する。
	// 存在しないトークンの削除はエラーにならない（冪等）。
	DeleteByToken(ctx context.Context, token string) error

	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}

// OTPRepository はワンタイムコードの永続化インターフェース。
type OTPRepository interface {
	// Upsert はメールアドレスをキーにコードを保存する。
	// 既存コードがある場合は上書きし、旧コードは即座に無効になる。
	Upsert(ctx context.Context, code *model.OneTimeCode) error

	// FindByEmail は指定メールアドレスのコードを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.OneTimeCode, error)

	// DeleteByEmail は指定メールアドレスのコードを削除する。
	DeleteByEmail(ctx context.Context, email string) error

	// DeleteExpired は期限切れコードを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}

// ChatMessageRepository は会話ログの永続化インターフェース。
type ChatMessageRepository interface {
	// CreatePair はユーザー発話とアシスタント応答を1回の一括INSERTで保存する。
	CreatePair(ctx context.Context, userMsg, assistantMsg *model.ChatMessage) error

	// ListByConversation は指定会話のうち所有者のメッセージをtimestamp昇順で返す。
	ListByConversation(ctx context.Context, conversationID, userID string, limit int) ([]*model.ChatMessage, error)

	// DeleteByConversation は指定会話のうち所有者のメッセージをすべて削除する。
	// 同じ会話ID文字列でも他ユーザーのメッセージには影響しない。
	DeleteByConversation(ctx context.Context, conversationID, userID string) error
}

// PsychologistRepository は心理士データの永続化インターフェース。
type PsychologistRepository interface {
	// Create は心理士を未承認状態で作成する。
	Create(ctx context.Context, p *model.Psychologist) error

	// FindByID は指定IDの心理士を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, psychologistID string) (*model.Psychologist, error)

	// ListApproved は承認済み心理士の一覧をページングして返す。
	ListApproved(ctx context.Context, skip, limit int) ([]*model.Psychologist, error)

	// ListAll は承認状態を問わず全心理士を返す。管理者用。
	ListAll(ctx context.Context) ([]*model.Psychologist, error)

	// Approve は指定IDの心理士を承認済みにする。
	Approve(ctx context.Context, psychologistID string) error
}

// BookingRepository は予約データの永続化インターフェース。
type BookingRepository interface {
	// Create は予約を作成する。
	Create(ctx context.Context, b *model.Booking) error

	// FindByIDAndUser は予約IDと所有者で予約を検索する。見つからない場合はnilを返す。
	FindByIDAndUser(ctx context.Context, bookingID, userID string) (*model.Booking, error)

	// Confirm は予約を確定状態にし、支払いIDを記録する。
	Confirm(ctx context.Context, bookingID, paymentID string) error

	// ListByUserID はユーザーの予約一覧をcreated_at降順で返す。
	ListByUserID(ctx context.Context, userID string, limit int) ([]*model.Booking, error)
}

// StoryRepository は体験談データの永続化インターフェース。
type StoryRepository interface {
	// Create は体験談を未承認状態で作成する。
	Create(ctx context.Context, s *model.SuccessStory) error

	// ListApproved は承認済みの体験談一覧を返す。
	ListApproved(ctx context.Context) ([]*model.SuccessStory, error)

	// Approve は指定IDの体験談を承認済みにする。
	Approve(ctx context.Context, storyID string) error
}
