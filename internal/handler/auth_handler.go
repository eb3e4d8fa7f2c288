// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/saathi/internal/middleware"
	"github.com/hitoshi/saathi/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	LoginWithOTP(ctx context.Context, email, code string) (*model.User, *model.Session, error)
	LoginAnonymous(ctx context.Context, displayName string) (*model.User, *model.Session, error)
	LoginWithGoogleSession(ctx context.Context, externalSessionID string) (*model.User, *model.Session, error)
	Logout(ctx context.Context, token string) error
}

// OTPIssuer はワンタイムコードの発行インターフェース。otp.Managerが実装する。
type OTPIssuer interface {
	Issue(ctx context.Context, email string) error
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge time.Duration // セッションCookieの有効期間
}

// AuthHandler は認証関連のHTTPハンドラー。
// OTP・匿名・外部OAuthの3経路すべてで同じCookie設定を適用する。
type AuthHandler struct {
	service AuthServiceInterface
	issuer  OTPIssuer
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, issuer OTPIssuer, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		issuer:  issuer,
		config:  config,
	}
}

// sendOTPRequest はOTP発行リクエストのボディ。
type sendOTPRequest struct {
	Email string `json:"email"`
}

// verifyOTPRequest はOTP検証リクエストのボディ。
type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// anonymousLoginRequest は匿名ログインリクエストのボディ。
type anonymousLoginRequest struct {
	DisplayName string `json:"display_name"`
}

// userResponse はユーザー情報のAPIレスポンス。
type userResponse struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	Picture     string `json:"picture,omitempty"`
	Role        string `json:"role"`
	IsAnonymous bool   `json:"is_anonymous"`
}

// loginResponse はログイン成功時のAPIレスポンス。
// クロスサイト構成でCookieが使えないクライアント向けにトークンも本文で返す。
type loginResponse struct {
	Status       string       `json:"status"`
	User         userResponse `json:"user"`
	SessionToken string       `json:"session_token"`
}

// SendOTP はワンタイムコードを発行しメールで配送する。
// POST /api/auth/otp/send
func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req sendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("failed to parse request body"))
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("email is required"))
		return
	}

	if err := h.issuer.Issue(r.Context(), email); err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "success",
		"message": "OTP sent to email",
	})
}

// VerifyOTP はコードを検証し、セッションを発行する。
// POST /api/auth/otp/verify
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("failed to parse request body"))
		return
	}

	if req.Email == "" || req.OTP == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("email and otp are required"))
		return
	}

	user, session, err := h.service.LoginWithOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.writeLoginResponse(w, user, session)
}

// LoginAnonymous は匿名ユーザーを作成しセッションを発行する。
// POST /api/auth/anonymous
func (h *AuthHandler) LoginAnonymous(w http.ResponseWriter, r *http.Request) {
	// ボディは省略可能。解析できない場合は既定の表示名にフォールバックする
	var req anonymousLoginRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	user, session, err := h.service.LoginAnonymous(r.Context(), strings.TrimSpace(req.DisplayName))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.writeLoginResponse(w, user, session)
}

// GoogleSession は外部OAuthバックエンドのセッションIDをログインに変換する。
// POST /api/auth/google/session（X-Session-IDヘッダー必須）
func (h *AuthHandler) GoogleSession(w http.ResponseWriter, r *http.Request) {
	externalSessionID := r.Header.Get("X-Session-ID")
	if externalSessionID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("X-Session-ID header is required"))
		return
	}

	user, session, err := h.service.LoginWithGoogleSession(r.Context(), externalSessionID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.writeLoginResponse(w, user, session)
}

// Me は現在のログインユーザー情報を返す。
// GET /api/auth/me（セッションミドルウェア必須）
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toUserResponse(user))
}

// Logout はセッションを破棄しCookieをクリアする。
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := ""
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
		token = cookie.Value
	}

	if err := h.service.Logout(r.Context(), token); err != nil {
		slog.Error("failed to logout", slog.String("error", err.Error()))
		// ログアウト失敗してもCookieはクリアする
	}

	h.clearSessionCookie(w)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "success"})
}

// writeLoginResponse はセッションCookieを設定しログインレスポンスを書き込む。
func (h *AuthHandler) writeLoginResponse(w http.ResponseWriter, user *model.User, session *model.Session) {
	h.setSessionCookie(w, session.Token)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(loginResponse{
		Status:       "success",
		User:         toUserResponse(user),
		SessionToken: session.Token,
	})
}

// setSessionCookie はセッションCookieを設定する。
// フロントエンドが別オリジンのためSameSite=Noneを使用する。
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   int(h.config.SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteNoneMode,
	})
}

// clearSessionCookie はセッションCookieを削除する。
func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteNoneMode,
	})
}

// toUserResponse はUserモデルをAPIレスポンス形式に変換する。
func toUserResponse(user *model.User) userResponse {
	return userResponse{
		UserID:      user.UserID,
		Email:       user.Email,
		Name:        user.Name,
		Picture:     user.Picture,
		Role:        string(user.Role),
		IsAnonymous: user.IsAnonymous,
	}
}

// writeAPIErrorResponse は統一エラーフォーマットでレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUnauthenticated, model.ErrCodeInvalidSession, model.ErrCodeSessionExpired:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeUserNotFound, model.ErrCodePsychologistNotFound,
		model.ErrCodeBookingNotFound, model.ErrCodeStoryNotFound:
		return http.StatusNotFound
	case model.ErrCodeOTPNotFound, model.ErrCodeOTPInvalid, model.ErrCodeOTPExpired,
		model.ErrCodeInvalidExternalSession, model.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case model.ErrCodeDeliveryError, model.ErrCodeDependencyError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
