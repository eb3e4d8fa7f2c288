package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/saathi/internal/model"
)

// PostgresOTPRepo はPostgreSQLを使用したワンタイムコードリポジトリ。
type PostgresOTPRepo struct {
	db *sql.DB
}

// NewPostgresOTPRepo はPostgresOTPRepoを生成する。
func NewPostgresOTPRepo(db *sql.DB) *PostgresOTPRepo {
	return &PostgresOTPRepo{db: db}
}

// Upsert はメールアドレスをキーにコードを保存する。
// 既存コードは上書きされ、旧コードは即座に無効になる。
func (r *PostgresOTPRepo) Upsert(ctx context.Context, code *model.OneTimeCode) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO otp_codes (email, code, expires_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (email) DO UPDATE SET code = $2, expires_at = $3`,
		code.Email, code.Code, code.ExpiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert otp code: %w", err)
	}
	return nil
}

// FindByEmail は指定メールアドレスのコードを取得する。見つからない場合はnilを返す。
func (r *PostgresOTPRepo) FindByEmail(ctx context.Context, email string) (*model.OneTimeCode, error) {
	code := &model.OneTimeCode{}
	err := r.db.QueryRowContext(ctx,
		`SELECT email, code, expires_at FROM otp_codes WHERE email = $1`,
		email,
	).Scan(&code.Email, &code.Code, &code.ExpiresAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find otp code: %w", err)
	}

	code.ExpiresAt = code.ExpiresAt.UTC()
	return code, nil
}

// DeleteByEmail は指定メールアドレスのコードを削除する。
func (r *PostgresOTPRepo) DeleteByEmail(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM otp_codes WHERE email = $1`,
		email,
	)
	if err != nil {
		return fmt.Errorf("failed to delete otp code: %w", err)
	}
	return nil
}

// DeleteExpired は期限切れコードを削除し、削除件数を返す。
func (r *PostgresOTPRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM otp_codes WHERE expires_at < now()`,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired otp codes: %w", err)
	}
	return result.RowsAffected()
}

// compile-time interface check
var _ OTPRepository = (*PostgresOTPRepo)(nil)
