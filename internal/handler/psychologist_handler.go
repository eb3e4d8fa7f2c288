package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/saathi/internal/directory"
	"github.com/hitoshi/saathi/internal/middleware"
	"github.com/hitoshi/saathi/internal/model"
)

// DirectoryServiceInterface はディレクトリハンドラーが必要とするサービスインターフェース。
type DirectoryServiceInterface interface {
	RegisterPsychologist(ctx context.Context, input *directory.PsychologistInput) (*model.Psychologist, error)
	GetPsychologist(ctx context.Context, id string) (*model.Psychologist, error)
	ListPsychologists(ctx context.Context, skip, limit int) ([]*model.Psychologist, error)
	ListAllPsychologists(ctx context.Context, actor *model.User) ([]*model.Psychologist, error)
	ApprovePsychologist(ctx context.Context, actor *model.User, id string) error
}

// PsychologistHandler は心理士ディレクトリのHTTPハンドラー。
type PsychologistHandler struct {
	service DirectoryServiceInterface
}

// NewPsychologistHandler はPsychologistHandlerを生成する。
func NewPsychologistHandler(service DirectoryServiceInterface) *PsychologistHandler {
	return &PsychologistHandler{service: service}
}

// createPsychologistRequest は心理士登録リクエストのボディ。
type createPsychologistRequest struct {
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Credentials     string   `json:"credentials"`
	Specialization  []string `json:"specialization"`
	YearsExperience int      `json:"years_experience"`
	Pricing         int      `json:"pricing"`
	Bio             string   `json:"bio"`
	Picture         string   `json:"picture"`
}

// psychologistResponse は心理士情報のAPIレスポンス。
type psychologistResponse struct {
	PsychologistID  string    `json:"psychologist_id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Credentials     string    `json:"credentials"`
	Specialization  []string  `json:"specialization"`
	YearsExperience int       `json:"years_experience"`
	Pricing         int       `json:"pricing"`
	Rating          float64   `json:"rating"`
	Bio             string    `json:"bio"`
	Picture         string    `json:"picture,omitempty"`
	Approved        bool      `json:"approved"`
	CreatedAt       time.Time `json:"created_at"`
}

// Create は心理士を未承認状態で登録する。
// POST /api/psychologists
func (h *PsychologistHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPsychologistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("failed to parse request body"))
		return
	}

	if req.Name == "" || req.Email == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("name and email are required"))
		return
	}
	if req.Pricing <= 0 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("pricing must be positive"))
		return
	}

	psych, err := h.service.RegisterPsychologist(r.Context(), &directory.PsychologistInput{
		Name:            req.Name,
		Email:           req.Email,
		Credentials:     req.Credentials,
		Specialization:  req.Specialization,
		YearsExperience: req.YearsExperience,
		Pricing:         req.Pricing,
		Bio:             req.Bio,
		Picture:         req.Picture,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toPsychologistResponse(psych))
}

// List は承認済み心理士の一覧を返す。
// GET /api/psychologists?skip=0&limit=20
func (h *PsychologistHandler) List(w http.ResponseWriter, r *http.Request) {
	skip := parseQueryInt(r, "skip", 0)
	limit := parseQueryInt(r, "limit", 20)

	psychs, err := h.service.ListPsychologists(r.Context(), skip, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writePsychologistList(w, psychs)
}

// Get は承認済み心理士の詳細を返す。
// GET /api/psychologists/{id}
func (h *PsychologistHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	psych, err := h.service.GetPsychologist(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toPsychologistResponse(psych))
}

// AdminList は未承認を含む全心理士を返す。管理者専用。
// GET /api/admin/psychologists
func (h *PsychologistHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	psychs, err := h.service.ListAllPsychologists(r.Context(), user)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writePsychologistList(w, psychs)
}

// Approve は心理士を承認する。管理者専用。
// POST /api/admin/psychologists/{id}/approve
func (h *PsychologistHandler) Approve(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	id := chi.URLParam(r, "id")

	if err := h.service.ApprovePsychologist(r.Context(), user, id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "success"})
}

// writePsychologistList は心理士一覧のレスポンスを書き込む。
func writePsychologistList(w http.ResponseWriter, psychs []*model.Psychologist) {
	results := make([]psychologistResponse, len(psychs))
	for i, p := range psychs {
		results[i] = toPsychologistResponse(p)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

// toPsychologistResponse はPsychologistモデルをAPIレスポンス形式に変換する。
func toPsychologistResponse(p *model.Psychologist) psychologistResponse {
	return psychologistResponse{
		PsychologistID:  p.PsychologistID,
		Name:            p.Name,
		Email:           p.Email,
		Credentials:     p.Credentials,
		Specialization:  p.Specialization,
		YearsExperience: p.YearsExperience,
		Pricing:         p.Pricing,
		Rating:          p.Rating,
		Bio:             p.Bio,
		Picture:         p.Picture,
		Approved:        p.Approved,
		CreatedAt:       p.CreatedAt,
	}
}

// parseQueryInt はクエリパラメータを整数として解析する。不正な値は既定値に落とす。
func parseQueryInt(r *http.Request, key string, defaultValue int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return parsed
}
