package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/saathi/internal/directory"
	"github.com/hitoshi/saathi/internal/middleware"
	"github.com/hitoshi/saathi/internal/model"
)

type mockStoryService struct {
	submitFn  func(ctx context.Context, input *directory.StoryInput) (*model.SuccessStory, error)
	listFn    func(ctx context.Context) ([]*model.SuccessStory, error)
	approveFn func(ctx context.Context, actor *model.User, id string) error
}

func (m *mockStoryService) SubmitStory(ctx context.Context, input *directory.StoryInput) (*model.SuccessStory, error) {
	return m.submitFn(ctx, input)
}

func (m *mockStoryService) ListStories(ctx context.Context) ([]*model.SuccessStory, error) {
	return m.listFn(ctx)
}

func (m *mockStoryService) ApproveStory(ctx context.Context, actor *model.User, id string) error {
	return m.approveFn(ctx, actor, id)
}

func TestStoryCreate(t *testing.T) {
	t.Run("authenticated submission", func(t *testing.T) {
		service := &mockStoryService{
			submitFn: func(_ context.Context, input *directory.StoryInput) (*model.SuccessStory, error) {
				if input.Category != "reconciliation" || input.Content != "We worked it out." {
					t.Errorf("input = %+v", input)
				}
				return &model.SuccessStory{
					StoryID:   "story_abc123def456",
					Category:  input.Category,
					Content:   input.Content,
					CreatedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
				}, nil
			},
		}
		h := NewStoryHandler(service)

		req := authedRequest(http.MethodPost, "/api/stories",
			`{"category":"reconciliation","content":"We worked it out."}`)
		rec := httptest.NewRecorder()
		h.Create(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		var resp storyResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if resp.StoryID != "story_abc123def456" {
			t.Errorf("story_id = %q", resp.StoryID)
		}
		if resp.Approved {
			t.Error("new story should not be approved")
		}
	})

	t.Run("no session", func(t *testing.T) {
		h := NewStoryHandler(&mockStoryService{})

		req := httptest.NewRequest(http.MethodPost, "/api/stories", nil)
		rec := httptest.NewRecorder()
		h.Create(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("empty content", func(t *testing.T) {
		h := NewStoryHandler(&mockStoryService{})

		req := authedRequest(http.MethodPost, "/api/stories", `{"category":"reconciliation"}`)
		rec := httptest.NewRecorder()
		h.Create(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("content rejected by sanitizer", func(t *testing.T) {
		service := &mockStoryService{
			submitFn: func(_ context.Context, _ *directory.StoryInput) (*model.SuccessStory, error) {
				return nil, model.NewInvalidRequestError("story content is empty")
			},
		}
		h := NewStoryHandler(service)

		req := authedRequest(http.MethodPost, "/api/stories", `{"content":"<script></script>"}`)
		rec := httptest.NewRecorder()
		h.Create(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestStoryList(t *testing.T) {
	service := &mockStoryService{
		listFn: func(_ context.Context) ([]*model.SuccessStory, error) {
			return []*model.SuccessStory{
				{StoryID: "story_000000000001", Category: "communication", Content: "...", Approved: true},
			}, nil
		},
	}
	h := NewStoryHandler(service)

	// 公開エンドポイントなので認証なしで呼べる
	req := httptest.NewRequest(http.MethodGet, "/api/stories", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp []storyResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(resp) != 1 || resp[0].StoryID != "story_000000000001" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestStoryApprove(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		admin := &model.User{UserID: "user_admin0000001", Role: model.RoleAdmin}
		service := &mockStoryService{
			approveFn: func(_ context.Context, actor *model.User, id string) error {
				if actor.UserID != admin.UserID || id != "story_abc123def456" {
					t.Errorf("approve(%q, %q)", actor.UserID, id)
				}
				return nil
			},
		}
		h := NewStoryHandler(service)

		req := httptest.NewRequest(http.MethodPost, "/api/admin/stories/story_abc123def456/approve", nil)
		req = req.WithContext(middleware.ContextWithUser(req.Context(), admin))
		req = withURLParam(req, "id", "story_abc123def456")
		rec := httptest.NewRecorder()
		h.Approve(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("non-admin forbidden", func(t *testing.T) {
		service := &mockStoryService{
			approveFn: func(_ context.Context, _ *model.User, _ string) error {
				return model.NewForbiddenError()
			},
		}
		h := NewStoryHandler(service)

		req := authedRequest(http.MethodPost, "/api/admin/stories/story_abc123def456/approve", "")
		req = withURLParam(req, "id", "story_abc123def456")
		rec := httptest.NewRecorder()
		h.Approve(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		admin := &model.User{UserID: "user_admin0000001", Role: model.RoleAdmin}
		service := &mockStoryService{
			approveFn: func(_ context.Context, _ *model.User, id string) error {
				return model.NewStoryNotFoundError(id)
			},
		}
		h := NewStoryHandler(service)

		req := httptest.NewRequest(http.MethodPost, "/api/admin/stories/story_missing/approve", nil)
		req = req.WithContext(middleware.ContextWithUser(req.Context(), admin))
		req = withURLParam(req, "id", "story_missing")
		rec := httptest.NewRecorder()
		h.Approve(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}
