// Package app はサブコマンドの解析と依存関係のワイヤリングを行う。
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/portfolio/internal/auth"
	"github.com/hitoshi/portfolio/internal/config"
	"github.com/hitoshi/portfolio/internal/contact"
	"github.com/hitoshi/portfolio/internal/database"
	"github.com/hitoshi/portfolio/internal/handler"
	"github.com/hitoshi/portfolio/internal/logger"
	"github.com/hitoshi/portfolio/internal/metrics"
	"github.com/hitoshi/portfolio/internal/middleware"
	"github.com/hitoshi/portfolio/internal/model"
	"github.com/hitoshi/portfolio/internal/project"
	"github.com/hitoshi/portfolio/internal/repository"
	"github.com/hitoshi/portfolio/internal/security"
)

// MinAdminPasswordLength はcreate-adminで受け付ける最小パスワード長。
const MinAdminPasswordLength = 8

const (
	pingTimeout     = 5 * time.Second
	shutdownTimeout = 30 * time.Second
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたレベルでロガーを再構成する
	logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandCreateAdmin:
		return runCreateAdmin(cfg)
	case CommandSeed:
		return runSeed(cfg)
	default:
		return runServe(cfg)
	}
}

// openDatabase はDB接続を開き、疎通を確認する。
func openDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.Ping(context.Background(), db, pingTimeout); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	slog.Info("database connection established",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)
	return db, nil
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	// 2. Redis（任意）
	redisClient, err := newRedisClient(cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// 3. 依存関係の構築
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	deps, err := buildRouterDeps(cfg, db, redisClient, registry)
	if err != nil {
		return err
	}
	defer deps.RateLimiter.Stop()

	router := handler.NewRouter(deps)

	// 4. HTTPサーバーの起動
	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second + cfg.EmailTimeout,
		IdleTimeout:       60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-stop:
	case err := <-serveErr:
		return fmt.Errorf("server listen error: %w", err)
	}
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// buildRouterDeps はリポジトリ・サービス・ミドルウェアを組み立ててRouterDepsを返す。
// redisClientがnilの場合、セッション失効とログイン試行制限は無効になる。
func buildRouterDeps(cfg *config.Config, db *sql.DB, redisClient redis.UniversalClient, registry *prometheus.Registry) (*handler.RouterDeps, error) {
	// リポジトリ
	adminRepo := repository.NewPostgresAdminRepo(db)
	projectRepo := repository.NewPostgresProjectRepo(db)

	// 認証
	hasher, err := auth.NewPasswordHasher(auth.DefaultBcryptCost)
	if err != nil {
		return nil, err
	}
	tokens, err := auth.NewTokenManager([]byte(cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT secret: %w", err)
	}

	// インターフェース型のnilを渡すため、未設定時は代入しない
	var revocations auth.RevocationStore
	var limiter auth.LoginLimiter
	if redisClient != nil {
		revocations = auth.NewRedisRevocationStore(redisClient)
		limiter = auth.NewRedisLoginLimiter(redisClient, cfg.LoginMaxAttempts, cfg.LoginLockout)
	} else {
		slog.Warn("REDIS_URL is not set: session revocation and login throttling are disabled")
	}
	authService := auth.NewService(adminRepo, hasher, tokens, revocations, limiter)

	// 問い合わせ
	sanitizer := security.NewContentSanitizer()
	sender, err := newContactSender(cfg, security.NewSSRFGuard())
	if err != nil {
		return nil, err
	}
	contactService := contact.NewService(sender, sanitizer, cfg.ContactFrom, cfg.ContactEmail)

	return &handler.RouterDeps{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter: middleware.NewRateLimiter(
			middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitSensitive),
		),
		Logger:          slog.Default(),
		Metrics:         metrics.NewCollector(registry),
		MetricsGatherer: registry,

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			CookieDomain: cfg.CookieDomain,
			CookieSecure: cfg.CookieSecure,
		},

		ProjectService: project.NewService(projectRepo),
		ContactService: contactService,

		HealthChecker: newHealthChecker(db, redisClient),
	}, nil
}

// newRedisClient はREDIS_URLからクライアントを生成し疎通を確認する。
// URLが空の場合は(nil, nil)を返す。
func newRedisClient(redisURL string) (redis.UniversalClient, error) {
	if redisURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	slog.Info("redis connection established", slog.String("addr", opts.Addr))
	return client, nil
}

// apiClientFactory はSSRF防止付きのHTTPクライアントを生成する。
type apiClientFactory interface {
	NewAPIClient(endpoint string, timeout time.Duration) (*http.Client, error)
}

// newContactSender はメール送信手段を選択する。
// RESEND_API_KEYが未設定の場合はログ出力のみのLogSenderを使う。
func newContactSender(cfg *config.Config, guard apiClientFactory) (contact.Sender, error) {
	if !cfg.EmailEnabled() {
		slog.Warn("RESEND_API_KEY is not set: contact messages will only be logged")
		return contact.LogSender{}, nil
	}
	client, err := guard.NewAPIClient(cfg.ResendEndpoint, cfg.EmailTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create email API client: %w", err)
	}
	return contact.NewResendSender(cfg.ResendEndpoint, cfg.ResendAPIKey, client), nil
}

// newHealthChecker はDB（とRedisが設定されていればRedis）の疎通を確認する関数を返す。
func newHealthChecker(db *sql.DB, redisClient redis.UniversalClient) handler.HealthChecker {
	return func(ctx context.Context) error {
		if err := database.Ping(ctx, db, 2*time.Second); err != nil {
			return err
		}
		if redisClient != nil {
			ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			if err := redisClient.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("failed to ping redis: %w", err)
			}
		}
		return nil
	}
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	version, err := database.RunMigrations(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if !version.Changed() {
		slog.Info("database schema is up to date", slog.Uint64("version", uint64(version.To)))
		return nil
	}
	slog.Info("database migrations completed successfully",
		slog.Uint64("from_version", uint64(version.From)),
		slog.Uint64("to_version", uint64(version.To)),
	)
	return nil
}

// runCreateAdmin はADMIN_EMAIL/ADMIN_PASSWORD/ADMIN_NAMEで管理者を作成する。
// 既に同じメールアドレスの管理者が存在する場合はパスワードと名前を更新する。
func runCreateAdmin(cfg *config.Config) error {
	admin, err := newAdminRecord(cfg, time.Now())
	if err != nil {
		return err
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	hasher, err := auth.NewPasswordHasher(auth.DefaultBcryptCost)
	if err != nil {
		return err
	}
	admin.PasswordHash, err = hasher.Hash(cfg.AdminPassword)
	if err != nil {
		return err
	}

	if err := repository.NewPostgresAdminRepo(db).Upsert(context.Background(), admin); err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	slog.Info("admin account ready",
		slog.String("admin_id", admin.ID),
		slog.String("email", admin.Email),
	)
	return nil
}

// newAdminRecord は設定値を検証し、パスワードハッシュ未設定の管理者レコードを返す。
func newAdminRecord(cfg *config.Config, now time.Time) (*model.Admin, error) {
	email := strings.TrimSpace(cfg.AdminEmail)
	if email == "" || cfg.AdminPassword == "" {
		return nil, errors.New("ADMIN_EMAIL and ADMIN_PASSWORD are required for create-admin")
	}
	if len(cfg.AdminPassword) < MinAdminPasswordLength {
		return nil, fmt.Errorf("ADMIN_PASSWORD must be at least %d characters", MinAdminPasswordLength)
	}
	name := strings.TrimSpace(cfg.AdminName)
	if name == "" {
		name = "Admin"
	}
	return &model.Admin{
		ID:        uuid.New().String(),
		Email:     email,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// runSeed は既存のプロジェクトをサンプルデータで置き換える。
func runSeed(cfg *config.Config) error {
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := project.Seed(context.Background(), repository.NewPostgresProjectRepo(db), cfg.BaseURL, time.Now())
	if err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}

	slog.Info("sample projects seeded", slog.Int("count", n))
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	target := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(target)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
// URLとして解釈できない場合は全体を伏せる。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
