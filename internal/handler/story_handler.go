package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/saathi/internal/directory"
	"github.com/hitoshi/saathi/internal/middleware"
	"github.com/hitoshi/saathi/internal/model"
)

// StoryServiceInterface は体験談ハンドラーが必要とするサービスインターフェース。
type StoryServiceInterface interface {
	SubmitStory(ctx context.Context, input *directory.StoryInput) (*model.SuccessStory, error)
	ListStories(ctx context.Context) ([]*model.SuccessStory, error)
	ApproveStory(ctx context.Context, actor *model.User, id string) error
}

// StoryHandler は体験談のHTTPハンドラー。
// 投稿は認証必須だが、保存されるデータは投稿者と紐付かない匿名投稿として扱う。
type StoryHandler struct {
	service StoryServiceInterface
}

// NewStoryHandler はStoryHandlerを生成する。
func NewStoryHandler(service StoryServiceInterface) *StoryHandler {
	return &StoryHandler{service: service}
}

// createStoryRequest は体験談投稿リクエストのボディ。
type createStoryRequest struct {
	Category string `json:"category"`
	Content  string `json:"content"`
}

// storyResponse は体験談のAPIレスポンス。
type storyResponse struct {
	StoryID   string    `json:"story_id"`
	Category  string    `json:"category"`
	Content   string    `json:"content"`
	Approved  bool      `json:"approved"`
	CreatedAt time.Time `json:"created_at"`
}

// Create は体験談を未承認状態で投稿する。
// POST /api/stories
func (h *StoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.UserFromContext(r.Context()); err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	var req createStoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("failed to parse request body"))
		return
	}

	if req.Content == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("content is required"))
		return
	}

	story, err := h.service.SubmitStory(r.Context(), &directory.StoryInput{
		Category: req.Category,
		Content:  req.Content,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toStoryResponse(story))
}

// List は承認済みの体験談一覧を返す。
// GET /api/stories
func (h *StoryHandler) List(w http.ResponseWriter, r *http.Request) {
	stories, err := h.service.ListStories(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]storyResponse, len(stories))
	for i, s := range stories {
		results[i] = toStoryResponse(s)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

// Approve は体験談を承認する。管理者専用。
// POST /api/admin/stories/{id}/approve
func (h *StoryHandler) Approve(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	id := chi.URLParam(r, "id")

	if err := h.service.ApproveStory(r.Context(), user, id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "success"})
}

// toStoryResponse はSuccessStoryモデルをAPIレスポンス形式に変換する。
func toStoryResponse(s *model.SuccessStory) storyResponse {
	return storyResponse{
		StoryID:   s.StoryID,
		Category:  s.Category,
		Content:   s.Content,
		Approved:  s.Approved,
		CreatedAt: s.CreatedAt,
	}
}
