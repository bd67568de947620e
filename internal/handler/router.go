package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/agendago/internal/metrics"
	"github.com/hitoshi/agendago/internal/middleware"
)

// HealthChecker はヘルスチェックに必要なインターフェース。
// *sql.DBがそのまま満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier     middleware.TokenVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	Metrics           metrics.MetricsCollector

	// ヘルスチェック
	HealthChecker HealthChecker

	// ドメインサービス
	AuthService        AuthServiceInterface
	CategoryService    CategoryServiceInterface
	TaskService        TaskServiceInterface
	StudyService       StudyServiceInterface
	AchievementService AchievementServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Logging → Metrics → CORS → [Auth → RateLimit(General)]
//
// 認証ルート（登録・ログイン・パスワードリセット）は認証ミドルウェアの外に配置し、
// 代わりにIPベースのレート制限を適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// 全ルートに効くミドルウェア
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, deps.Metrics)
	categoryHandler := NewCategoryHandler(deps.CategoryService)
	taskHandler := NewTaskHandler(deps.TaskService, deps.Metrics)
	studyHandler := NewStudyHandler(deps.StudyService, deps.Metrics)
	achievementHandler := NewAchievementHandler(deps.AchievementService)

	// --- 認証不要のルート ---

	// ヘルスチェック（DB疎通を確認する）
	r.Get("/health", newHealthHandler(deps.HealthChecker))

	// 認証フロー（IPベースのレート制限を適用）
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.AuthEndpointMiddleware())

		r.Post("/api/register", authHandler.Register)
		r.Post("/api/login", authHandler.Login)
		r.Post("/api/forgot-password", authHandler.ForgotPassword)
		r.Post("/api/reset-password", authHandler.ResetPassword)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// ユーザー情報
		r.Get("/api/me", authHandler.Me)

		// カテゴリ管理
		r.Route("/api/categories", func(r chi.Router) {
			r.Get("/", categoryHandler.ListCategories)
			r.Post("/", categoryHandler.CreateCategory)
		})

		// タスク管理
		r.Route("/api/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.ListTasks)
			r.Post("/", taskHandler.CreateTask)

			r.Route("/{id}", func(r chi.Router) {
				r.Put("/", taskHandler.UpdateTask)
				r.Delete("/", taskHandler.DeleteTask)
			})
		})

		// 学習セッションと統計
		r.Post("/api/study-sessions", studyHandler.CreateSession)
		r.Get("/api/stats", studyHandler.GetStats)

		// 実績
		r.Get("/api/achievements", achievementHandler.ListAchievements)
	})

	return r
}

// newHealthHandler はDB疎通を確認するヘルスチェックハンドラーを返す。
func newHealthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		if err := checker.PingContext(ctx); err != nil {
			slog.Error("health check failed", slog.String("error", err.Error()))
			writeJSONResponse(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
			})
			return
		}

		writeJSONResponse(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	}
}
