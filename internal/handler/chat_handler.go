package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/saathi/internal/chat"
	"github.com/hitoshi/saathi/internal/middleware"
	"github.com/hitoshi/saathi/internal/model"
)

// ChatServiceInterface はチャットハンドラーが必要とするサービスインターフェース。
type ChatServiceInterface interface {
	Respond(ctx context.Context, user *model.User, conversationID, message string) (*chat.Exchange, error)
	History(ctx context.Context, userID, conversationID string, limit int) ([]*model.ChatMessage, error)
	DeleteHistory(ctx context.Context, userID, conversationID string) error
}

// ChatHandler はAIチャットのHTTPハンドラー。
type ChatHandler struct {
	service ChatServiceInterface
}

// NewChatHandler はChatHandlerを生成する。
func NewChatHandler(service ChatServiceInterface) *ChatHandler {
	return &ChatHandler{service: service}
}

// chatRequest はチャットリクエストのボディ。
// ConversationIDが空の場合はサーバー側で新しい会話IDを採番する。
type chatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
}

// chatResponse はチャット応答のAPIレスポンス。
// Helplinesはクライシス判定時のみ含まれる。
type chatResponse struct {
	Response       string            `json:"response"`
	ConversationID string            `json:"conversation_id"`
	IsCrisis       bool              `json:"is_crisis"`
	Helplines      map[string]string `json:"helplines,omitempty"`
}

// chatErrorResponse はチャット失敗時のレスポンス。
// クライシス判定済みメッセージではエラー時でも相談窓口一覧を開示する。
type chatErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Category  string            `json:"category"`
	Action    string            `json:"action"`
	IsCrisis  bool              `json:"is_crisis"`
	Helplines map[string]string `json:"helplines,omitempty"`
}

// chatMessageResponse は会話履歴の1件分のAPIレスポンス。
type chatMessageResponse struct {
	MessageID      string    `json:"message_id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	IsCrisis       bool      `json:"is_crisis"`
	Timestamp      time.Time `json:"timestamp"`
}

// Chat は1往復のチャットを処理する。
// POST /api/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("failed to parse request body"))
		return
	}

	if req.Message == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("message is required"))
		return
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = model.NewID("conv")
	}

	exchange, err := h.service.Respond(r.Context(), user, conversationID, req.Message)
	if err != nil {
		h.writeChatError(w, err, exchange)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(chatResponse{
		Response:       exchange.Reply,
		ConversationID: conversationID,
		IsCrisis:       exchange.IsCrisis,
		Helplines:      exchange.Helplines,
	})
}

// History は指定会話のうち自分のメッセージ一覧を返す。
// GET /api/chat/history/{conversationID}?limit=50
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	conversationID := chi.URLParam(r, "conversationID")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}

	messages, err := h.service.History(r.Context(), user.UserID, conversationID, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]chatMessageResponse, len(messages))
	for i, msg := range messages {
		results[i] = chatMessageResponse{
			MessageID:      msg.MessageID,
			ConversationID: msg.ConversationID,
			Role:           string(msg.Role),
			Content:        msg.Content,
			IsCrisis:       msg.IsCrisis,
			Timestamp:      msg.Timestamp,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

// DeleteHistory は指定会話のうち自分のメッセージをすべて削除する。
// DELETE /api/chat/history/{conversationID}
func (h *ChatHandler) DeleteHistory(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	conversationID := chi.URLParam(r, "conversationID")

	if err := h.service.DeleteHistory(r.Context(), user.UserID, conversationID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "success"})
}

// writeChatError はチャット失敗のレスポンスを書き込む。
// クライシス判定済みの場合は窓口一覧を失わないよう拡張フォーマットを使用する。
func (h *ChatHandler) writeChatError(w http.ResponseWriter, err error, exchange *chat.Exchange) {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		handleServiceError(w, err)
		return
	}

	if exchange == nil || !exchange.IsCrisis {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(mapAPIErrorToHTTPStatus(apiErr))
	json.NewEncoder(w).Encode(chatErrorResponse{
		Code:      apiErr.Code,
		Message:   apiErr.Message,
		Category:  apiErr.Category,
		Action:    apiErr.Action,
		IsCrisis:  true,
		Helplines: exchange.Helplines,
	})
}
