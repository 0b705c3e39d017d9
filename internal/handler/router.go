// Package handler はHTTP APIのルーティングとハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/flowpool/internal/middleware"
)

// HealthChecker はヘルスチェックに必要なインターフェース。
// *sql.DB がそのまま満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	HealthChecker     HealthChecker
	AdminAPIKey       string
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	RecordHTTPStatus  func(statusCode int)
	MetricsHandler    http.Handler

	// 割り当て
	AssignmentService AssignmentServiceInterface

	// アカウント管理
	AccountService AccountServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → SecurityHeaders → Recovery → Logging → APIKey → RateLimit(General)
//
// ヘルスチェック（/health）は認証チェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// CORS とセキュリティヘッダーを最上位に適用（全ルートに効く）
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(slog.Default()))
	if deps.RecordHTTPStatus != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.RecordHTTPStatus))
	}

	assignmentHandler := NewAssignmentHandler(deps.AssignmentService)
	accountHandler := NewAccountHandler(deps.AccountService)

	// --- 認証不要のルート ---

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if deps.HealthChecker != nil {
			if err := deps.HealthChecker.PingContext(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy"})
				return
			}
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: APIKey → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAPIKeyMiddleware(deps.AdminAPIKey))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 割り当て管理（カウンタを変更する操作には専用レート制限を追加）
		r.Route("/api/assignments", func(r chi.Router) {
			r.With(deps.RateLimiter.AssignMiddleware()).Post("/", assignmentHandler.Assign)
			r.With(deps.RateLimiter.AssignMiddleware()).Post("/by-email", assignmentHandler.ReassignByEmail)
			r.Delete("/{userID}", assignmentHandler.Release)
		})

		// アカウント管理
		r.Route("/api/accounts", func(r chi.Router) {
			r.Get("/", accountHandler.List)
			r.Post("/", accountHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Patch("/", accountHandler.Update)
				r.Delete("/", accountHandler.Delete)
			})
		})
	})

	return r
}
