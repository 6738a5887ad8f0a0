package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/portfolio/internal/metrics"
	"github.com/hitoshi/portfolio/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	CORSAllowedOrigins []string
	RateLimiter        *middleware.RateLimiter
	Logger             *slog.Logger

	// メトリクス（Gathererがnilなら/metricsを公開しない）
	Metrics         metrics.MetricsCollector
	MetricsGatherer prometheus.Gatherer

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// プロジェクト
	ProjectService ProjectServiceInterface

	// 問い合わせ
	ContactService ContactServiceInterface

	// ヘルスチェック
	HealthChecker HealthChecker
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → RealIP → Recovery → Logging → Metrics → SecurityHeaders → CORS
//	  /api/*:        RateLimit(General)
//	  login/contact: RateLimit(Sensitive)
//	  /api/admin/*:  Session → CSRF
//
// /healthと/metricsはレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mc := deps.Metrics
	if mc == nil {
		mc = metrics.NopCollector{}
	}
	csrfConfig := middleware.CSRFConfig{
		CookieSecure: deps.AuthConfig.CookieSecure,
		CookieDomain: deps.AuthConfig.CookieDomain,
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewMetricsMiddleware(mc))
	r.Use(middleware.NewSecurityHeadersMiddleware(deps.AuthConfig.CookieSecure))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigins))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig, mc)
	projectHandler := NewProjectHandler(deps.ProjectService, mc)
	contactHandler := NewContactHandler(deps.ContactService, mc)

	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// --- 認証不要のルート ---
		r.Get("/projects", projectHandler.ListPublic)
		r.With(deps.RateLimiter.SensitiveMiddleware()).Post("/contact", contactHandler.Submit)

		r.Route("/admin", func(r chi.Router) {
			r.With(deps.RateLimiter.SensitiveMiddleware()).Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.Method(http.MethodGet, "/csrf-token", middleware.NewCSRFTokenHandler(csrfConfig))

			// --- 認証が必要なルート ---
			// ミドルウェアスタック: Session → CSRF
			r.Group(func(r chi.Router) {
				r.Use(middleware.NewSessionMiddleware(deps.AuthService))
				r.Use(middleware.NewCSRFMiddleware(csrfConfig))

				r.Get("/session", authHandler.Session)

				r.Route("/projects", func(r chi.Router) {
					r.Get("/", projectHandler.ListForAdmin)
					r.Post("/", projectHandler.Create)
					r.Put("/{id}", projectHandler.Update)
					r.Delete("/{id}", projectHandler.Delete)
				})
			})
		})
	})

	return r
}
