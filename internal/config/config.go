package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// PlaceholderJWTSecret は署名鍵として拒否する既知のプレースホルダー値。
const PlaceholderJWTSecret = "your-secret-key-change-in-production"

// MinJWTSecretLength は署名鍵として受け付ける最小バイト数。
const MinJWTSecretLength = 32

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Session
	JWTSecret        string
	LoginMaxAttempts int
	LoginLockout     time.Duration

	// Redis（未設定ならセッション失効とログイン試行制限を無効化）
	RedisURL string

	// Email
	ResendAPIKey   string
	ResendEndpoint string
	ContactEmail   string
	ContactFrom    string
	EmailTimeout   time.Duration

	// Rate Limit
	RateLimitGeneral   int
	RateLimitSensitive int

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigins []string

	// Logging
	LogLevel string

	// create-adminコマンド用
	AdminEmail    string
	AdminPassword string
	AdminName     string
}

// Load は環境変数からConfigを読み込む。
// カレントディレクトリに.envがあれば先に読み込む（既存の環境変数は上書きしない）。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	if err := validateJWTSecret(cfg.JWTSecret); err != nil {
		return nil, err
	}

	// Optional fields with defaults
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigins = getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"})
	cfg.RedisURL = getEnvString("REDIS_URL", "")
	cfg.ResendAPIKey = getEnvString("RESEND_API_KEY", "")
	cfg.ResendEndpoint = getEnvString("RESEND_ENDPOINT", "https://api.resend.com/emails")
	cfg.ContactEmail = getEnvString("CONTACT_EMAIL", "")
	cfg.ContactFrom = getEnvString("CONTACT_FROM", "Portfolio Contact <onboarding@resend.dev>")
	cfg.EmailTimeout = getEnvDuration("EMAIL_TIMEOUT", 10*time.Second)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitSensitive = getEnvInt("RATE_LIMIT_SENSITIVE", 10)
	cfg.LoginMaxAttempts = getEnvInt("LOGIN_MAX_ATTEMPTS", 5)
	cfg.LoginLockout = getEnvDuration("LOGIN_LOCKOUT", 15*time.Minute)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.AdminEmail = getEnvString("ADMIN_EMAIL", "")
	cfg.AdminPassword = getEnvString("ADMIN_PASSWORD", "")
	cfg.AdminName = getEnvString("ADMIN_NAME", "Admin")

	if err := validateLimits(cfg); err != nil {
		return nil, err
	}

	// メール送信を有効にする場合は宛先が必須
	if cfg.ResendAPIKey != "" && cfg.ContactEmail == "" {
		return nil, fmt.Errorf("CONTACT_EMAIL is required when RESEND_API_KEY is set")
	}

	return cfg, nil
}

// EmailEnabled は外部APIでのメール送信が設定されているかを返す。
func (c *Config) EmailEnabled() bool {
	return c.ResendAPIKey != ""
}

func validateJWTSecret(secret string) error {
	if secret == PlaceholderJWTSecret {
		return fmt.Errorf("JWT_SECRET must not be the placeholder value")
	}
	if len(secret) < MinJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes, got %d", MinJWTSecretLength, len(secret))
	}
	return nil
}

// validateLimits はレート制限・ログイン試行制限・タイムアウトが正の値であることを確認する。
// 0以下を受け付けると全リクエストを拒否する制限になる。
func validateLimits(cfg *Config) error {
	ints := []struct {
		key string
		val int
	}{
		{"RATE_LIMIT_GENERAL", cfg.RateLimitGeneral},
		{"RATE_LIMIT_SENSITIVE", cfg.RateLimitSensitive},
		{"LOGIN_MAX_ATTEMPTS", cfg.LoginMaxAttempts},
	}
	for _, v := range ints {
		if v.val <= 0 {
			return fmt.Errorf("%s must be a positive integer, got %d", v.key, v.val)
		}
	}

	durations := []struct {
		key string
		val time.Duration
	}{
		{"LOGIN_LOCKOUT", cfg.LoginLockout},
		{"EMAIL_TIMEOUT", cfg.EmailTimeout},
	}
	for _, v := range durations {
		if v.val <= 0 {
			return fmt.Errorf("%s must be a positive duration, got %s", v.key, v.val)
		}
	}
	return nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

// getEnvList はカンマ区切りの値を前後の空白を除いて分割する。空要素は無視する。
func getEnvList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
