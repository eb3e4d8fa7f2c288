package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/saathi/internal/middleware"
)

// rootBanner はルートエンドポイントで返すプラットフォーム名。
const rootBanner = "Saathi API - Confidential Relationship Support Platform"

// HealthChecker はヘルスチェックのための依存インターフェース。*sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	UserResolver      middleware.UserResolver
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// 認証
	AuthService AuthServiceInterface
	OTPIssuer   OTPIssuer
	AuthConfig  AuthHandlerConfig

	// チャット
	ChatService ChatServiceInterface

	// 心理士・体験談
	DirectoryService DirectoryServiceInterface
	StoryService     StoryServiceInterface

	// 予約
	BookingService BookingServiceInterface
	BookingConfig  BookingHandlerConfig

	// 運用
	HealthChecker  HealthChecker
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → (Session → RateLimit(General))
//
// 認証エンドポイントはセッション不要だが、IP単位の認証レート制限が掛かる。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))

	authHandler := NewAuthHandler(deps.AuthService, deps.OTPIssuer, deps.AuthConfig)
	chatHandler := NewChatHandler(deps.ChatService)
	psychHandler := NewPsychologistHandler(deps.DirectoryService)
	storyHandler := NewStoryHandler(deps.StoryService)
	bookingHandler := NewBookingHandler(deps.BookingService, deps.BookingConfig)

	// --- 認証不要のルート ---

	r.Get("/health", newHealthHandler(deps.HealthChecker))
	r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/", rootHandler)

		// 認証ルート（IP単位のレート制限付き）
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(deps.RateLimiter.AuthMiddleware())
				r.Post("/otp/send", authHandler.SendOTP)
				r.Post("/otp/verify", authHandler.VerifyOTP)
				r.Post("/anonymous", authHandler.LoginAnonymous)
				r.Post("/google/session", authHandler.GoogleSession)
			})
			r.Post("/logout", authHandler.Logout)
		})

		// 公開の閲覧・登録ルート
		r.Post("/psychologists", psychHandler.Create)
		r.Get("/psychologists", psychHandler.List)
		r.Get("/psychologists/{id}", psychHandler.Get)
		r.Get("/stories", storyHandler.List)

		// --- 認証が必要なルート ---
		// ミドルウェアスタック: Session → RateLimit(General)
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewSessionMiddleware(deps.UserResolver))
			r.Use(deps.RateLimiter.GeneralMiddleware())

			r.Get("/auth/me", authHandler.Me)

			// AIチャット
			r.Post("/chat", chatHandler.Chat)
			r.Route("/chat/history/{conversationID}", func(r chi.Router) {
				r.Get("/", chatHandler.History)
				r.Delete("/", chatHandler.DeleteHistory)
			})

			// 予約
			r.Route("/bookings", func(r chi.Router) {
				r.Post("/create-order", bookingHandler.CreateOrder)
				r.Post("/{id}/confirm", bookingHandler.Confirm)
				r.Get("/", bookingHandler.List)
			})

			// 体験談投稿
			r.Post("/stories", storyHandler.Create)

			// 管理者ルート（権限チェックはサービス層のCapability判定）
			r.Route("/admin", func(r chi.Router) {
				r.Get("/psychologists", psychHandler.AdminList)
				r.Post("/psychologists/{id}/approve", psychHandler.Approve)
				r.Post("/stories/{id}/approve", storyHandler.Approve)
			})
		})
	})

	return r
}

// rootHandler はプラットフォームバナーを返す。
func rootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": rootBanner})
}

// newHealthHandler はDB接続を確認するヘルスチェックハンドラーを返す。
func newHealthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := checker.PingContext(r.Context()); err != nil {
			slog.Error("health check failed", slog.String("error", err.Error()))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy"})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	}
}
