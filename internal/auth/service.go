// Package auth はログイン経路の統合、セッション発行・解決・破棄を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/saathi/internal/metrics"
	"github.com/hitoshi/saathi/internal/model"
	"github.com/hitoshi/saathi/internal/repository"
)

// defaultAnonymousName は匿名ログインで表示名が未指定だった場合の既定値。
const defaultAnonymousName = "Anonymous User"

// anonymousEmailDomain は匿名ユーザーの合成メールアドレスのドメイン。
const anonymousEmailDomain = "anonymous.saathi"

// CodeVerifier はOTP検証のインターフェース。otp.Managerが実装する。
type CodeVerifier interface {
	Verify(ctx context.Context, email, submitted string) error
}

// ExternalSessionExchanger は外部OAuthバックエンドとのセッション交換インターフェース。
type ExternalSessionExchanger interface {
	// ExchangeSession は外部セッションIDをユーザー情報とトークンに交換する。
	ExchangeSession(ctx context.Context, sessionID string) (*ExternalSessionData, error)
}

// ExternalSessionData は外部OAuthバックエンドから取得したセッション情報。
type ExternalSessionData struct {
	Email        string
	Name         string
	Picture      string
	SessionToken string
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge time.Duration // セッション有効期間（通常7日）
}

// Service は3つのログイン経路を単一のUser+Session発行に収束させるサービス層。
// セッションの解決・破棄もここで行い、全保護リクエストの唯一の関門となる。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	verifier    CodeVerifier
	exchanger   ExternalSessionExchanger
	collector   metrics.MetricsCollector
	config      ServiceConfig
	now         func() time.Time // テストで時計を差し替えるためのフック
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	verifier CodeVerifier,
	exchanger ExternalSessionExchanger,
	collector metrics.MetricsCollector,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		verifier:    verifier,
		exchanger:   exchanger,
		collector:   collector,
		config:      config,
		now:         time.Now,
	}
}

// LoginWithOTP はOTP検証後のログインを処理する。
// 初回ログイン時はメールのローカル部を表示名としてユーザーを自動作成する。
func (s *Service) LoginWithOTP(ctx context.Context, email, code string) (*model.User, *model.Session, error) {
	if err := s.verifier.Verify(ctx, email, code); err != nil {
		return nil, nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user == nil {
		user = &model.User{
			UserID:      model.NewID("user"),
			Email:       email,
			Name:        emailLocalPart(email),
			Role:        model.RoleUser,
			IsAnonymous: false,
			CreatedAt:   s.now().UTC(),
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, nil, fmt.Errorf("failed to create user: %w", err)
		}
		slog.Info("new user created",
			slog.String("user_id", user.UserID),
			slog.String("method", "otp"),
		)
	}

	session, err := s.createSession(ctx, user.UserID, "")
	if err != nil {
		return nil, nil, err
	}

	s.collector.RecordLogin("otp")
	return user, session, nil
}

// LoginAnonymous は匿名ログインを処理する。
// 呼び出しごとに新しいユーザーを作成する。既存匿名ユーザーの再利用は行わない。
func (s *Service) LoginAnonymous(ctx context.Context, displayName string) (*model.User, *model.Session, error) {
	if displayName == "" {
		displayName = defaultAnonymousName
	}

	userID := model.NewID("anon")
	user := &model.User{
		UserID:      userID,
		Email:       fmt.Sprintf("%s@%s", userID, anonymousEmailDomain),
		Name:        displayName,
		Role:        model.RoleUser,
		IsAnonymous: true,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("failed to create anonymous user: %w", err)
	}

	session, err := s.createSession(ctx, user.UserID, "")
	if err != nil {
		return nil, nil, err
	}

	s.collector.RecordLogin("anonymous")
	return user, session, nil
}

// LoginWithGoogleSession は外部OAuthバックエンドのセッションIDをログインに変換する。
// 外部バックエンドが返すトークンをそのままセッショントークンとして使用する。
// トークンの推測不能性は外部バックエンドに委譲される信頼境界。
func (s *Service) LoginWithGoogleSession(ctx context.Context, externalSessionID string) (*model.User, *model.Session, error) {
	data, err := s.exchanger.ExchangeSession(ctx, externalSessionID)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, data.Email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user == nil {
		user = &model.User{
			UserID:      model.NewID("user"),
			Email:       data.Email,
			Name:        data.Name,
			Picture:     data.Picture,
			Role:        model.RoleUser,
			IsAnonymous: false,
			CreatedAt:   s.now().UTC(),
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, nil, fmt.Errorf("failed to create user: %w", err)
		}
		slog.Info("new user created",
			slog.String("user_id", user.UserID),
			slog.String("method", "google"),
		)
	}

	session, err := s.createSession(ctx, user.UserID, data.SessionToken)
	if err != nil {
		return nil, nil, err
	}

	s.collector.RecordLogin("google")
	return user, session, nil
}

// ResolveUser はトークンからユーザーを解決する。
// 認証失敗の種類をAPIErrorで区別して返す:
// 空トークンはUnauthenticated、未知トークンはInvalidSession、
// 期限切れはSessionExpired、参照先ユーザー欠落はUserNotFound。
func (s *Service) ResolveUser(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, model.NewUnauthenticatedError()
	}

	session, err := s.sessionRepo.FindByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, model.NewInvalidSessionError()
	}

	// 期限判定は保存表現に関わらずUTCで行う
	if session.ExpiresAt.UTC().Before(s.now().UTC()) {
		return nil, model.NewSessionExpiredError()
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		// セッションはあるのにユーザーが存在しない: 整合性異常として区別する
		return nil, model.NewUserNotFoundError()
	}

	return user, nil
}

// Logout はセッションを破棄する。
// 存在しない・破棄済みトークンの指定はエラーにならない（冪等）。
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	if err := s.sessionRepo.DeleteByToken(ctx, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out")
	return nil
}

// createSession はセッションを作成し永続化する。
// tokenが空の場合は高エントロピーのトークンを生成する。
func (s *Service) createSession(ctx context.Context, userID, token string) (*model.Session, error) {
	if token == "" {
		generated, err := generateSessionToken()
		if err != nil {
			return nil, fmt.Errorf("failed to generate session token: %w", err)
		}
		token = generated
	}

	now := s.now().UTC()
	session := &model.Session{
		UserID:    userID,
		Token:     token,
		ExpiresAt: now.Add(s.config.SessionMaxAge),
		CreatedAt: now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateSessionToken は暗号的に安全なセッショントークンを生成する（256ビット）。
func generateSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "session_" + hex.EncodeToString(b), nil
}

// emailLocalPart はメールアドレスの@より前の部分を返す。
func emailLocalPart(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}
