// Package model はドメインモデルを定義する。
package model

// Capability は保護された操作の実行権限を表す。
// ロール文字列の比較をハンドラーに散在させず、操作単位の権限として表現する。
// 将来ロール以外のポリシー（対象リソースの所有者判定等）を追加する場合も
// この判定を差し替えるだけで済む。
type Capability string

const (
	// CapabilityApprovePsychologist は心理士の承認操作。
	CapabilityApprovePsychologist Capability = "psychologist:approve"
	// CapabilityListAllPsychologists は未承認を含む心理士全件の閲覧操作。
	CapabilityListAllPsychologists Capability = "psychologist:list_all"
	// CapabilityApproveStory は体験談の承認操作。
	CapabilityApproveStory Capability = "story:approve"
)

// Can はユーザーが指定の操作を実行できるかを返す。
// 現時点のポリシーはすべてのCapabilityについて管理者ロールのみ許可。
func (u *User) Can(c Capability) bool {
	return u.Role == RoleAdmin
}
