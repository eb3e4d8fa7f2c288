package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/saathi/internal/model"
)

// PostgresPsychologistRepo はPostgreSQLを使用した心理士リポジトリ。
type PostgresPsychologistRepo struct {
	db *sql.DB
}

// NewPostgresPsychologistRepo はPostgresPsychologistRepoを生成する。
func NewPostgresPsychologistRepo(db *sql.DB) *PostgresPsychologistRepo {
	return &PostgresPsychologistRepo{db: db}
}

// Create は心理士を未承認状態で作成する。
func (r *PostgresPsychologistRepo) Create(ctx context.Context, p *model.Psychologist) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO psychologists
		 (psychologist_id, name, email, credentials, specialization, years_experience,
		  pricing, rating, bio, picture, approved, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.PsychologistID, p.Name, p.Email, p.Credentials, pq.Array(p.Specialization),
		p.YearsExperience, p.Pricing, p.Rating, p.Bio, p.Picture, p.Approved, p.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert psychologist: %w", err)
	}
	return nil
}

// FindByID は指定IDの心理士を取得する。見つからない場合はnilを返す。
func (r *PostgresPsychologistRepo) FindByID(ctx context.Context, psychologistID string) (*model.Psychologist, error) {
	p := &model.Psychologist{}
	err := r.db.QueryRowContext(ctx,
		`SELECT psychologist_id, name, email, credentials, specialization, years_experience,
		        pricing, rating, bio, picture, approved, created_at
		 FROM psychologists WHERE psychologist_id = $1`,
		psychologistID,
	).Scan(
		&p.PsychologistID, &p.Name, &p.Email, &p.Credentials, pq.Array(&p.Specialization),
		&p.YearsExperience, &p.Pricing, &p.Rating, &p.Bio, &p.Picture, &p.Approved, &p.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find psychologist: %w", err)
	}

	p.CreatedAt = p.CreatedAt.UTC()
	return p, nil
}

// ListApproved は承認済み心理士の一覧をページングして返す。
func (r *PostgresPsychologistRepo) ListApproved(ctx context.Context, skip, limit int) ([]*model.Psychologist, error) {
	return r.list(ctx,
		`SELECT psychologist_id, name, email, credentials, specialization, years_experience,
		        pricing, rating, bio, picture, approved, created_at
		 FROM psychologists WHERE approved = TRUE
		 ORDER BY created_at DESC OFFSET $1 LIMIT $2`,
		skip, limit)
}

// ListAll は承認状態を問わず全心理士を返す。管理者用。
func (r *PostgresPsychologistRepo) ListAll(ctx context.Context) ([]*model.Psychologist, error) {
	return r.list(ctx,
		`SELECT psychologist_id, name, email, credentials, specialization, years_experience,
		        pricing, rating, bio, picture, approved, created_at
		 FROM psychologists ORDER BY created_at DESC`)
}

func (r *PostgresPsychologistRepo) list(ctx context.Context, query string, args ...interface{}) ([]*model.Psychologist, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list psychologists: %w", err)
	}
	defer rows.Close()

	var result []*model.Psychologist
	for rows.Next() {
		p := &model.Psychologist{}
		if err := rows.Scan(
			&p.PsychologistID, &p.Name, &p.Email, &p.Credentials, pq.Array(&p.Specialization),
			&p.YearsExperience, &p.Pricing, &p.Rating, &p.Bio, &p.Picture, &p.Approved, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan psychologist: %w", err)
		}
		p.CreatedAt = p.CreatedAt.UTC()
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate psychologists: %w", err)
	}

	return result, nil
}

// Approve は指定IDの心理士を承認済みにする。
func (r *PostgresPsychologistRepo) Approve(ctx context.Context, psychologistID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE psychologists SET approved = TRUE WHERE psychologist_id = $1`,
		psychologistID,
	)
	if err != nil {
		return fmt.Errorf("failed to approve psychologist: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewPsychologistNotFoundError(psychologistID)
	}
	return nil
}

// compile-time interface check
var _ PsychologistRepository = (*PostgresPsychologistRepo)(nil)
