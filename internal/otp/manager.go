// Package otp はメールで配送するワンタイムコードの発行と検証を提供する。
package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/hitoshi/saathi/internal/email"
	"github.com/hitoshi/saathi/internal/metrics"
	"github.com/hitoshi/saathi/internal/model"
	"github.com/hitoshi/saathi/internal/repository"
)

// codeRange は6桁コードの範囲。[100000, 999999]の一様分布から生成する。
const (
	codeMin   = 100000
	codeRange = 900000
)

// Manager はワンタイムコードの発行・検証ロジックを提供する。
type Manager struct {
	repo       repository.OTPRepository
	dispatcher email.Dispatcher
	collector  metrics.MetricsCollector
	ttl        time.Duration
	now        func() time.Time // テストで時計を差し替えるためのフック
}

// NewManager はManagerを生成する。ttlはコードの有効期間（通常10分）。
func NewManager(repo repository.OTPRepository, dispatcher email.Dispatcher, collector metrics.MetricsCollector, ttl time.Duration) *Manager {
	return &Manager{
		repo:       repo,
		dispatcher: dispatcher,
		collector:  collector,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Issue はコードを生成・保存し、メールで配送する。
// 同じメールアドレスの既存コードは上書きされ即座に無効になる。
// 配送に失敗した場合はDeliveryErrorを返すが、コード自体は保存済みのため
// 呼び出し側が再発行すれば安全にリトライできる。
func (m *Manager) Issue(ctx context.Context, emailAddr string) error {
	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("failed to generate otp code: %w", err)
	}

	record := &model.OneTimeCode{
		Email:     emailAddr,
		Code:      code,
		ExpiresAt: m.now().UTC().Add(m.ttl),
	}
	if err := m.repo.Upsert(ctx, record); err != nil {
		return fmt.Errorf("failed to store otp code: %w", err)
	}

	m.collector.RecordOTPIssued()

	subject, htmlBody := email.OTPEmail(code)
	if err := m.dispatcher.Send(ctx, emailAddr, subject, htmlBody); err != nil {
		m.collector.RecordEmailDelivery(false)
		slog.Error("failed to send otp email", slog.String("error", err.Error()))
		return model.NewDeliveryError()
	}
	m.collector.RecordEmailDelivery(true)

	slog.Info("otp issued", slog.String("email", emailAddr))
	return nil
}

// Verify は提出されたコードを検証する。
// コード未発行はOTPNotFound、値の不一致はOTPInvalid、期限切れはOTPExpiredを返す。
// 成功時はレコードを削除するため、同じコードの再提出は必ず失敗する（単回使用）。
func (m *Manager) Verify(ctx context.Context, emailAddr, submitted string) error {
	record, err := m.repo.FindByEmail(ctx, emailAddr)
	if err != nil {
		return fmt.Errorf("failed to load otp code: %w", err)
	}
	if record == nil {
		m.collector.RecordOTPVerifyFailure("not_found")
		return model.NewOTPNotFoundError()
	}

	if record.Code != submitted {
		m.collector.RecordOTPVerifyFailure("invalid")
		return model.NewOTPInvalidError()
	}

	if m.now().UTC().After(record.ExpiresAt) {
		m.collector.RecordOTPVerifyFailure("expired")
		return model.NewOTPExpiredError()
	}

	if err := m.repo.DeleteByEmail(ctx, emailAddr); err != nil {
		return fmt.Errorf("failed to consume otp code: %w", err)
	}

	return nil
}

// generateCode は暗号的に安全な乱数から6桁コードを生成する。
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeRange))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+codeMin), nil
}
