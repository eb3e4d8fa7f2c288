// Package chat はAIチャットのクライシス判定・応答生成・会話ログ管理を提供する。
package chat

import "strings"

// crisisKeywords はクライシス判定のキーワードリスト。
// 小文字化した本文に対する部分文字列一致で判定する。
// 言い換え表現の取りこぼし（偽陰性）は既知の限界として許容する。
var crisisKeywords = []string{
	"suicide",
	"kill myself",
	"end my life",
	"want to die",
	"self harm",
	"hurt myself",
	"no reason to live",
}

// ClassifyCrisis はメッセージ本文にクライシスキーワードが含まれるかを判定する。
// 純粋関数: 単一メッセージのみを見る決定的な判定で、状態も文脈も持たない。
func ClassifyCrisis(content string) bool {
	lowered := strings.ToLower(content)
	for _, keyword := range crisisKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}
