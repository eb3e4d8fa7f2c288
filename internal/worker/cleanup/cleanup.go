// Package cleanup は期限切れ認証データの自動削除ジョブを提供する。
// 期限切れセッションとワンタイムコードを日次バッチで削除する。
// 認証の有効性判定は遅延評価で行われるため、このジョブは衛生目的であり
// 実行されなくても期限切れセッションが認可されることはない。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/saathi/internal/repository"
)

// CleanupJob は期限切れセッションおよびワンタイムコードの自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	sessionRepo repository.SessionRepository
	otpRepo     repository.OTPRepository
	logger      *slog.Logger
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(sessionRepo repository.SessionRepository, otpRepo repository.OTPRepository, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		sessionRepo: sessionRepo,
		otpRepo:     otpRepo,
		logger:      logger,
	}
}

// Run は期限切れのセッションとワンタイムコードを削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	deletedSessions, err := j.sessionRepo.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("期限切れセッションの削除に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("期限切れセッションの削除に失敗: %w", err)
	}

	deletedCodes, err := j.otpRepo.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("期限切れワンタイムコードの削除に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("期限切れワンタイムコードの削除に失敗: %w", err)
	}

	duration := time.Since(start)
	j.logger.Info("認証データクリーンアップジョブが完了しました",
		slog.Int64("deleted_sessions", deletedSessions),
		slog.Int64("deleted_codes", deletedCodes),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}
