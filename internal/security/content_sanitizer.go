// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService はユーザー投稿テキスト（チャットメッセージ、体験談）を
// 永続化前にサニタイズし、保存型XSSからクライアントを保護する。
// チャットも体験談もプレーンテキストとして扱うため、
// bluemondayのStrictPolicyで全HTMLタグを除去する。
package security

import "github.com/microcosm-cc/bluemonday"

// ContentSanitizerService はユーザー投稿テキストのサニタイズ機能のインターフェース。
type ContentSanitizerService interface {
	// Sanitize は入力からすべてのHTMLタグを除去したテキストを返す。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// ユーザー投稿はマークアップを許可しないため、許可タグなしのStrictPolicyを使用する。
func NewContentSanitizer() *contentSanitizer {
	return &contentSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力からすべてのHTMLタグを除去したテキストを返す。
func (s *contentSanitizer) Sanitize(raw string) string {
	return s.policy.Sanitize(raw)
}
