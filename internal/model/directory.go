// Package model はドメインモデルを定義する。
package model

import "time"

// Psychologist は登録心理士を表す。
// 登録直後は未承認で、管理者の承認後に公開一覧へ掲載される。
type Psychologist struct {
	PsychologistID  string
	Name            string
	Email           string
	Credentials     string
	Specialization  []string
	YearsExperience int
	Pricing         int // 1セッションあたりの料金（ルピー）
	Rating          float64
	Bio             string
	Picture         string
	Approved        bool
	CreatedAt       time.Time
}

// BookingStatus は予約の状態を表す。
type BookingStatus string

const (
	// BookingStatusPending は決済待ちの予約。
	BookingStatusPending BookingStatus = "pending"
	// BookingStatusConfirmed は決済確認済みの予約。
	BookingStatusConfirmed BookingStatus = "confirmed"
)

// Booking は心理士セッションの予約を表す。
type Booking struct {
	BookingID      string
	UserID         string
	PsychologistID string
	SlotDate       string
	SlotTime       string
	Status         BookingStatus
	PaymentID      string // 決済ゲートウェイのオーダー/支払いID
	Amount         int    // ルピー単位
	CreatedAt      time.Time
}

// SuccessStory は匿名の体験談投稿を表す。
// 管理者承認後にのみ公開される。
type SuccessStory struct {
	StoryID   string
	Category  string
	Content   string
	Approved  bool
	CreatedAt time.Time
}
