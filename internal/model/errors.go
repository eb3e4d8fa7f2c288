// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// クライアントに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, chat, booking, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthenticated        = "UNAUTHENTICATED"
	ErrCodeInvalidSession         = "INVALID_SESSION"
	ErrCodeSessionExpired         = "SESSION_EXPIRED"
	ErrCodeUserNotFound           = "USER_NOT_FOUND"
	ErrCodeForbidden              = "FORBIDDEN"
	ErrCodeOTPNotFound            = "OTP_NOT_FOUND"
	ErrCodeOTPInvalid             = "OTP_INVALID"
	ErrCodeOTPExpired             = "OTP_EXPIRED"
	ErrCodeInvalidExternalSession = "INVALID_EXTERNAL_SESSION"
	ErrCodeDeliveryError          = "DELIVERY_ERROR"
	ErrCodeDependencyError        = "DEPENDENCY_ERROR"
	ErrCodeInvalidRequest         = "INVALID_REQUEST"
	ErrCodePsychologistNotFound   = "PSYCHOLOGIST_NOT_FOUND"
	ErrCodeBookingNotFound        = "BOOKING_NOT_FOUND"
	ErrCodeStoryNotFound          = "STORY_NOT_FOUND"
)

// NewUnauthenticatedError は認証情報が提示されていない場合のエラーを生成する。
func NewUnauthenticatedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthenticated,
		Message:  "Not authenticated.",
		Category: "auth",
		Action:   "Log in and retry with a session cookie or bearer token.",
	}
}

// NewInvalidSessionError は提示されたトークンに対応するセッションが存在しない場合のエラーを生成する。
func NewInvalidSessionError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSession,
		Message:  "Invalid session.",
		Category: "auth",
		Action:   "Log in again to obtain a new session.",
	}
}

// NewSessionExpiredError はセッションの有効期限が切れている場合のエラーを生成する。
func NewSessionExpiredError() *APIError {
	return &APIError{
		Code:     ErrCodeSessionExpired,
		Message:  "Session expired.",
		Category: "auth",
		Action:   "Log in again to obtain a new session.",
	}
}

// NewUserNotFoundError はセッションが参照するユーザーが存在しない場合のエラーを生成する。
// 通常の認証失敗ではなくデータ整合性の異常として区別される。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "User not found.",
		Category: "auth",
		Action:   "Log in again. Contact support if the problem persists.",
	}
}

// NewForbiddenError は権限チェックに失敗した場合のエラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "Admin access required.",
		Category: "auth",
		Action:   "This operation requires administrator privileges.",
	}
}

// NewOTPNotFoundError は対象メールアドレスにコードが発行されていない場合のエラーを生成する。
func NewOTPNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeOTPNotFound,
		Message:  "OTP not found.",
		Category: "validation",
		Action:   "Request a new code and try again.",
	}
}

// NewOTPInvalidError は提出されたコードが一致しない場合のエラーを生成する。
func NewOTPInvalidError() *APIError {
	return &APIError{
		Code:     ErrCodeOTPInvalid,
		Message:  "Invalid OTP.",
		Category: "validation",
		Action:   "Check the code in your email and try again.",
	}
}

// NewOTPExpiredError はコードの有効期限が切れている場合のエラーを生成する。
func NewOTPExpiredError() *APIError {
	return &APIError{
		Code:     ErrCodeOTPExpired,
		Message:  "OTP expired.",
		Category: "validation",
		Action:   "Request a new code and try again.",
	}
}

// NewInvalidExternalSessionError は外部OAuthバックエンドがセッション交換を拒否した場合のエラーを生成する。
func NewInvalidExternalSessionError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidExternalSession,
		Message:  "Invalid session.",
		Category: "auth",
		Action:   "Restart the sign-in flow from the beginning.",
	}
}

// NewDeliveryError はメール配送の失敗を表すエラーを生成する。
// 内部の失敗詳細はログのみに記録し、レスポンスには含めない。
func NewDeliveryError() *APIError {
	return &APIError{
		Code:     ErrCodeDeliveryError,
		Message:  "Failed to send OTP.",
		Category: "system",
		Action:   "Wait a moment and request a new code.",
	}
}

// NewDependencyError は外部コラボレーターの呼び出し失敗を表すエラーを生成する。
func NewDependencyError() *APIError {
	return &APIError{
		Code:     ErrCodeDependencyError,
		Message:  "An upstream service is temporarily unavailable.",
		Category: "system",
		Action:   "Wait a moment and try again.",
	}
}

// NewInvalidRequestError はリクエストの検証失敗を表すエラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("Invalid request: %s", reason),
		Category: "validation",
		Action:   "Fix the request body and try again.",
	}
}

// NewPsychologistNotFoundError は心理士が見つからない場合のエラーを生成する。
func NewPsychologistNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodePsychologistNotFound,
		Message:  fmt.Sprintf("Psychologist not found: %s", id),
		Category: "booking",
		Action:   "Check the psychologist ID.",
	}
}

// NewBookingNotFoundError は予約が見つからない場合のエラーを生成する。
func NewBookingNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeBookingNotFound,
		Message:  fmt.Sprintf("Booking not found: %s", id),
		Category: "booking",
		Action:   "Check the booking ID.",
	}
}

// NewStoryNotFoundError は体験談が見つからない場合のエラーを生成する。
func NewStoryNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeStoryNotFound,
		Message:  fmt.Sprintf("Story not found: %s", id),
		Category: "validation",
		Action:   "Check the story ID.",
	}
}
