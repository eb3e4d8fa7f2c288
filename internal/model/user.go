// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの権限ロールを表す。
type Role string

const (
	// RoleUser は一般ユーザー。
	RoleUser Role = "user"
	// RoleAdmin は管理者。承認系の操作が許可される。
	RoleAdmin Role = "admin"
)

// User はサービス利用ユーザーを表す。
// OTP・匿名・外部OAuthのいずれのログイン経路でも同一の形で作成される。
type User struct {
	UserID      string
	Email       string
	Name        string
	Picture     string // 未設定の場合は空文字列
	Role        Role
	IsAnonymous bool
	CreatedAt   time.Time
}

// Session はユーザーのログインセッションを表す。
// トークンは推測不能な不透明文字列で、Cookieまたは
// Authorization: Bearerヘッダーで提示される。
// 1回のログインごとに1セッションを発行し、同一ユーザーの並行セッションを許容する。
type Session struct {
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// OneTimeCode はメールで配送されるワンタイムコードを表す。
// メールアドレスごとに常に最大1件。再発行は既存コードを上書きし、旧コードを無効化する。
type OneTimeCode struct {
	Email     string
	Code      string
	ExpiresAt time.Time
}
