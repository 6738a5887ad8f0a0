// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/portfolio/internal/auth"
	"github.com/hitoshi/portfolio/internal/metrics"
	"github.com/hitoshi/portfolio/internal/middleware"
	"github.com/hitoshi/portfolio/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Login(ctx context.Context, email, password string) (*model.AdminIdentity, *auth.SessionToken, error)
	ValidateSession(ctx context.Context, token string) *model.AdminIdentity
	RevokeSession(ctx context.Context, token string) error
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain string
	CookieSecure bool
}

// AuthHandler は管理者ログイン関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
	metrics metrics.MetricsCollector
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig, mc metrics.MetricsCollector) *AuthHandler {
	if mc == nil {
		mc = metrics.NopCollector{}
	}
	return &AuthHandler{
		service: service,
		config:  config,
		metrics: mc,
	}
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sessionResponse はログイン・セッション確認のレスポンス。
type sessionResponse struct {
	Admin     model.AdminIdentity `json:"admin"`
	ExpiresAt *time.Time          `json:"expiresAt,omitempty"`
}

// Login はメールアドレスとパスワードで認証し、セッションCookieを設定する。
// POST /api/admin/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if verr := decodeJSON(w, r, &req); verr != nil {
		handleServiceError(w, r, verr)
		return
	}

	identity, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidCredentials):
			h.metrics.RecordLoginAttempt(metrics.LoginInvalid)
		case errors.Is(err, model.ErrTooManyAttempts):
			h.metrics.RecordLoginAttempt(metrics.LoginLocked)
		default:
			h.metrics.RecordLoginAttempt(metrics.LoginError)
		}
		handleServiceError(w, r, err)
		return
	}
	h.metrics.RecordLoginAttempt(metrics.LoginSuccess)

	// セッションCookieを設定（HTTP Only）
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token.Value,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   int(auth.SessionTTL / time.Second),
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	expiresAt := token.ExpiresAt
	middleware.WriteJSON(w, http.StatusOK, sessionResponse{Admin: *identity, ExpiresAt: &expiresAt})
}

// Logout はセッションを失効させ、Cookieを削除する。
// 未ログインや無効なトークンでも成功を返す。
// POST /api/admin/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token, _ := middleware.TokenFromRequest(r); token != "" {
		if err := h.service.RevokeSession(r.Context(), token); err != nil {
			// 失効に失敗してもCookieはクリアする
			slog.Error("failed to revoke session", slog.String("error", err.Error()))
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	middleware.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Session は現在ログイン中の管理者情報を返す。セッションミドルウェアの後に配置する。
// GET /api/admin/session
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.AdminFromContext(r.Context())
	if !ok {
		middleware.WriteErrorResponse(w, model.NewUnauthorizedError())
		return
	}
	middleware.WriteJSON(w, http.StatusOK, sessionResponse{Admin: *identity})
}
