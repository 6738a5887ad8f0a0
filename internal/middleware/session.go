// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/hitoshi/portfolio/internal/model"
)

// SessionCookieName は管理者セッショントークンを保持するCookieの名前。
const SessionCookieName = "admin-token"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	// adminContextKey はリクエストコンテキストに管理者の識別情報を格納するためのキー。
	adminContextKey = contextKey("admin")

	// cookieAuthContextKey はCookieで認証されたリクエストかどうかを格納するためのキー。
	cookieAuthContextKey = contextKey("cookie_auth")
)

// SessionValidator はセッショントークンの検証に必要なインターフェース。
// 無効なトークンにはnilを返す。auth.Serviceが満たす。
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) *model.AdminIdentity
}

// TokenFromRequest はリクエストからセッショントークンを取り出す。
// Cookieを優先し、なければAuthorization: Bearerヘッダーを見る。
// fromCookieはトークンがCookie由来かどうかを示す。
func TokenFromRequest(r *http.Request) (token string, fromCookie bool) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}

	authz := r.Header.Get("Authorization")
	if len(authz) > len("Bearer ") && strings.EqualFold(authz[:len("Bearer ")], "Bearer ") {
		return strings.TrimSpace(authz[len("Bearer "):]), false
	}
	return "", false
}

// NewSessionMiddleware はCookieまたはBearerヘッダーからセッショントークンを読み取り、
// 有効性を検証するミドルウェアを返す。
// 認証済み管理者の識別情報をリクエストコンテキストに注入する。
// 未認証リクエストには401 {"error":"Unauthorized"}を返す。
func NewSessionMiddleware(validator SessionValidator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. トークンを取得
			token, fromCookie := TokenFromRequest(r)
			if token == "" {
				WriteErrorResponse(w, model.NewUnauthorizedError())
				return
			}

			// 2. トークンを検証
			identity := validator.ValidateSession(r.Context(), token)
			if identity == nil {
				WriteErrorResponse(w, model.NewUnauthorizedError())
				return
			}

			// 3. 識別情報をコンテキストに注入し、リクエストログにも記録する
			setLoggedAdminID(r.Context(), identity.ID)
			ctx := ContextWithAdmin(r.Context(), identity)
			ctx = context.WithValue(ctx, cookieAuthContextKey, fromCookie)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminFromContext はリクエストコンテキストから管理者の識別情報を取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func AdminFromContext(ctx context.Context) (*model.AdminIdentity, bool) {
	identity, ok := ctx.Value(adminContextKey).(*model.AdminIdentity)
	if !ok || identity == nil {
		return nil, false
	}
	return identity, true
}

// ContextWithAdmin はコンテキストに管理者の識別情報を注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithAdmin(ctx context.Context, identity *model.AdminIdentity) context.Context {
	return context.WithValue(ctx, adminContextKey, identity)
}

// authenticatedByCookie はリクエストがCookieのセッションで認証されたかを返す。
func authenticatedByCookie(ctx context.Context) bool {
	v, _ := ctx.Value(cookieAuthContextKey).(bool)
	return v
}
