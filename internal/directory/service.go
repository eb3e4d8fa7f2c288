// Package directory は心理士ディレクトリと体験談のドメインロジックを提供する。
// 登録は誰でも行えるが、公開一覧への掲載は管理者承認後に限られる。
package directory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/saathi/internal/model"
	"github.com/hitoshi/saathi/internal/repository"
	"github.com/hitoshi/saathi/internal/security"
)

// PsychologistInput は心理士登録の入力。
type PsychologistInput struct {
	Name            string
	Email           string
	Credentials     string
	Specialization  []string
	YearsExperience int
	Pricing         int
	Bio             string
	Picture         string
}

// StoryInput は体験談投稿の入力。
type StoryInput struct {
	Category string
	Content  string
}

// Service はディレクトリのサービス層。
type Service struct {
	psychRepo repository.PsychologistRepository
	storyRepo repository.StoryRepository
	sanitizer security.ContentSanitizerService
	now       func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	psychRepo repository.PsychologistRepository,
	storyRepo repository.StoryRepository,
	sanitizer security.ContentSanitizerService,
) *Service {
	return &Service{
		psychRepo: psychRepo,
		storyRepo: storyRepo,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// RegisterPsychologist は未承認状態の心理士を登録する。
func (s *Service) RegisterPsychologist(ctx context.Context, input *PsychologistInput) (*model.Psychologist, error) {
	psych := &model.Psychologist{
		PsychologistID:  model.NewID("psy"),
		Name:            s.sanitizer.Sanitize(input.Name),
		Email:           input.Email,
		Credentials:     s.sanitizer.Sanitize(input.Credentials),
		Specialization:  input.Specialization,
		YearsExperience: input.YearsExperience,
		Pricing:         input.Pricing,
		Bio:             s.sanitizer.Sanitize(input.Bio),
		Picture:         input.Picture,
		Approved:        false,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.psychRepo.Create(ctx, psych); err != nil {
		return nil, fmt.Errorf("failed to register psychologist: %w", err)
	}

	slog.Info("psychologist registered",
		slog.String("psychologist_id", psych.PsychologistID),
	)
	return psych, nil
}

// GetPsychologist は承認済みの心理士を取得する。
// 未承認の心理士は一般ユーザーには存在しないものとして扱う。
func (s *Service) GetPsychologist(ctx context.Context, id string) (*model.Psychologist, error) {
	psych, err := s.psychRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find psychologist: %w", err)
	}
	if psych == nil || !psych.Approved {
		return nil, model.NewPsychologistNotFoundError(id)
	}
	return psych, nil
}

// ListPsychologists は承認済み心理士の一覧をページング付きで返す。
func (s *Service) ListPsychologists(ctx context.Context, skip, limit int) ([]*model.Psychologist, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if skip < 0 {
		skip = 0
	}
	return s.psychRepo.ListApproved(ctx, skip, limit)
}

// ListAllPsychologists は未承認を含む全心理士を返す。管理者専用。
func (s *Service) ListAllPsychologists(ctx context.Context, actor *model.User) ([]*model.Psychologist, error) {
	if !actor.Can(model.CapabilityListAllPsychologists) {
		return nil, model.NewForbiddenError()
	}
	return s.psychRepo.ListAll(ctx)
}

// ApprovePsychologist は心理士を承認し公開一覧に掲載する。管理者専用。
func (s *Service) ApprovePsychologist(ctx context.Context, actor *model.User, id string) error {
	if !actor.Can(model.CapabilityApprovePsychologist) {
		return model.NewForbiddenError()
	}
	if err := s.psychRepo.Approve(ctx, id); err != nil {
		return err
	}

	slog.Info("psychologist approved",
		slog.String("psychologist_id", id),
		slog.String("approved_by", actor.UserID),
	)
	return nil
}

// SubmitStory は体験談を未承認状態で保存する。
// 投稿者とは紐付けず、匿名投稿として扱う。
func (s *Service) SubmitStory(ctx context.Context, input *StoryInput) (*model.SuccessStory, error) {
	content := s.sanitizer.Sanitize(input.Content)
	if content == "" {
		return nil, model.NewInvalidRequestError("story content is empty")
	}

	story := &model.SuccessStory{
		StoryID:   model.NewID("story"),
		Category:  s.sanitizer.Sanitize(input.Category),
		Content:   content,
		Approved:  false,
		CreatedAt: s.now().UTC(),
	}
	if err := s.storyRepo.Create(ctx, story); err != nil {
		return nil, fmt.Errorf("failed to submit story: %w", err)
	}
	return story, nil
}

// ListStories は承認済みの体験談一覧を返す。
func (s *Service) ListStories(ctx context.Context) ([]*model.SuccessStory, error) {
	return s.storyRepo.ListApproved(ctx)
}

// ApproveStory は体験談を承認し公開する。管理者専用。
func (s *Service) ApproveStory(ctx context.Context, actor *model.User, id string) error {
	if !actor.Can(model.CapabilityApproveStory) {
		return model.NewForbiddenError()
	}
	if err := s.storyRepo.Approve(ctx, id); err != nil {
		return err
	}

	slog.Info("story approved",
		slog.String("story_id", id),
		slog.String("approved_by", actor.UserID),
	)
	return nil
}
