package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/saathi/internal/model"
)

// PostgresStoryRepo はPostgreSQLを使用した体験談リポジトリ。
type PostgresStoryRepo struct {
	db *sql.DB
}

// NewPostgresStoryRepo はPostgresStoryRepoを生成する。
func NewPostgresStoryRepo(db *sql.DB) *PostgresStoryRepo {
	return &PostgresStoryRepo{db: db}
}

// Create は体験談を未承認状態で作成する。
func (r *PostgresStoryRepo) Create(ctx context.Context, s *model.SuccessStory) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO success_stories (story_id, category, content, approved, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		s.StoryID, s.Category, s.Content, s.Approved, s.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert story: %w", err)
	}
	return nil
}

// ListApproved は承認済みの体験談一覧を返す。
func (r *PostgresStoryRepo) ListApproved(ctx context.Context) ([]*model.SuccessStory, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT story_id, category, content, approved, created_at
		 FROM success_stories WHERE approved = TRUE
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	defer rows.Close()

	var result []*model.SuccessStory
	for rows.Next() {
		s := &model.SuccessStory{}
		if err := rows.Scan(&s.StoryID, &s.Category, &s.Content, &s.Approved, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan story: %w", err)
		}
		s.CreatedAt = s.CreatedAt.UTC()
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stories: %w", err)
	}

	return result, nil
}

// Approve は指定IDの体験談を承認済みにする。
// 対象が存在しない場合はSTORY_NOT_FOUNDエラーを返す。
func (r *PostgresStoryRepo) Approve(ctx context.Context, storyID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE success_stories SET approved = TRUE WHERE story_id = $1`,
		storyID,
	)
	if err != nil {
		return fmt.Errorf("failed to approve story: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return model.NewStoryNotFoundError(storyID)
	}
	return nil
}

// compile-time interface check
var _ StoryRepository = (*PostgresStoryRepo)(nil)
