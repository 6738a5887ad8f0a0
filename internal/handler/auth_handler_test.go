package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/portfolio/internal/auth"
	"github.com/hitoshi/portfolio/internal/metrics"
	"github.com/hitoshi/portfolio/internal/middleware"
	"github.com/hitoshi/portfolio/internal/model"
)

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLogin_Success_SetsSessionCookie(t *testing.T) {
	expires := time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (*model.AdminIdentity, *auth.SessionToken, error) {
			if email != "admin@example.com" || password != "secret" {
				t.Errorf("Login(%q, %q)", email, password)
			}
			return testIdentity, &auth.SessionToken{Value: "signed.jwt.value", ID: "jti-1", ExpiresAt: expires}, nil
		},
	}
	fm := &fakeMetrics{}
	h := NewAuthHandler(svc, AuthHandlerConfig{CookieDomain: "example.com", CookieSecure: true}, fm)

	w := httptest.NewRecorder()
	h.Login(w, jsonRequest(t, http.MethodPost, "/api/admin/login", map[string]string{
		"email": "admin@example.com", "password": "secret",
	}))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	cookie := findCookie(w, middleware.SessionCookieName)
	if cookie == nil {
		t.Fatal("session cookie not set")
	}
	if cookie.Value != "signed.jwt.value" {
		t.Errorf("cookie value = %q", cookie.Value)
	}
	if !cookie.HttpOnly || !cookie.Secure || cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("cookie flags = HttpOnly:%v Secure:%v SameSite:%v", cookie.HttpOnly, cookie.Secure, cookie.SameSite)
	}
	if cookie.MaxAge != 7*24*60*60 {
		t.Errorf("MaxAge = %d, want 7 days", cookie.MaxAge)
	}
	if cookie.Path != "/" || cookie.Domain != "example.com" {
		t.Errorf("Path/Domain = %q/%q", cookie.Path, cookie.Domain)
	}

	body := decodeBody(t, w)
	admin, _ := body["admin"].(map[string]any)
	if admin["email"] != "admin@example.com" || admin["id"] != "admin-1" {
		t.Errorf("admin = %v", body["admin"])
	}
	if _, leaked := body["passwordHash"]; leaked {
		t.Error("response must not contain password hash")
	}
	if body["expiresAt"] != "2025-01-08T00:00:00Z" {
		t.Errorf("expiresAt = %v", body["expiresAt"])
	}
	if len(body) != 2 {
		t.Errorf("body keys = %v, want only admin and expiresAt", body)
	}
	if len(fm.logins) != 1 || fm.logins[0] != metrics.LoginSuccess {
		t.Errorf("login metrics = %v", fm.logins)
	}
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
		wantMetric string
	}{
		{"認証失敗", model.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials", metrics.LoginInvalid},
		{"ロック中", model.ErrTooManyAttempts, http.StatusTooManyRequests, "Too many requests", metrics.LoginLocked},
		{"内部エラー", errors.New("db down"), http.StatusInternalServerError, "Internal server error", metrics.LoginError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAuthService{
				loginFn: func(ctx context.Context, email, password string) (*model.AdminIdentity, *auth.SessionToken, error) {
					return nil, nil, tt.err
				},
			}
			fm := &fakeMetrics{}
			h := NewAuthHandler(svc, AuthHandlerConfig{}, fm)

			w := httptest.NewRecorder()
			h.Login(w, jsonRequest(t, http.MethodPost, "/api/admin/login", map[string]string{
				"email": "admin@example.com", "password": "wrong",
			}))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if body := decodeBody(t, w); body["error"] != tt.wantError {
				t.Errorf("error = %v, want %q", body["error"], tt.wantError)
			}
			if findCookie(w, middleware.SessionCookieName) != nil {
				t.Error("session cookie must not be set on failure")
			}
			if len(fm.logins) != 1 || fm.logins[0] != tt.wantMetric {
				t.Errorf("login metrics = %v, want [%s]", fm.logins, tt.wantMetric)
			}
		})
	}
}

func TestLogin_MalformedBody_Returns400(t *testing.T) {
	called := false
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (*model.AdminIdentity, *auth.SessionToken, error) {
			called = true
			return nil, nil, nil
		},
	}
	h := NewAuthHandler(svc, AuthHandlerConfig{}, nil)

	w := httptest.NewRecorder()
	h.Login(w, jsonRequest(t, http.MethodPost, "/api/admin/login", "{not json"))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if called {
		t.Error("service should not be called for malformed body")
	}
	body := decodeBody(t, w)
	if body["error"] != "Invalid input" {
		t.Errorf("error = %v, want Invalid input", body["error"])
	}
	if got := detailFields(t, body); len(got) != 1 || got[0] != "body" {
		t.Errorf("detail fields = %v, want [body]", got)
	}
}

func TestLogout_RevokesAndClearsCookie(t *testing.T) {
	var revoked string
	svc := &mockAuthService{
		revokeFn: func(ctx context.Context, token string) error {
			revoked = token
			return nil
		},
	}
	h := NewAuthHandler(svc, AuthHandlerConfig{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/logout", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "session-token"})
	w := httptest.NewRecorder()
	h.Logout(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if revoked != "session-token" {
		t.Errorf("revoked = %q, want session-token", revoked)
	}
	cookie := findCookie(w, middleware.SessionCookieName)
	if cookie == nil || cookie.MaxAge >= 0 {
		t.Errorf("cookie should be cleared, got %+v", cookie)
	}
	if body := decodeBody(t, w); body["success"] != true {
		t.Errorf("body = %v", body)
	}
}

func TestLogout_RevokeFailure_StillSucceeds(t *testing.T) {
	svc := &mockAuthService{
		revokeFn: func(ctx context.Context, token string) error {
			return errors.New("redis down")
		},
	}
	h := NewAuthHandler(svc, AuthHandlerConfig{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/logout", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	w := httptest.NewRecorder()
	h.Logout(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestLogout_NoToken_DoesNotCallRevoke(t *testing.T) {
	svc := &mockAuthService{
		revokeFn: func(ctx context.Context, token string) error {
			t.Error("RevokeSession should not be called without a token")
			return nil
		},
	}
	h := NewAuthHandler(svc, AuthHandlerConfig{}, nil)

	w := httptest.NewRecorder()
	h.Logout(w, httptest.NewRequest(http.MethodPost, "/api/admin/logout", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestSession_ReturnsAdminFromContext(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, AuthHandlerConfig{}, nil)

	w := httptest.NewRecorder()
	h.Session(w, withAdmin(httptest.NewRequest(http.MethodGet, "/api/admin/session", nil)))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	admin, _ := decodeBody(t, w)["admin"].(map[string]any)
	if admin["id"] != "admin-1" {
		t.Errorf("admin = %v", admin)
	}
}

func TestSession_NoAdmin_Returns401(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, AuthHandlerConfig{}, nil)

	w := httptest.NewRecorder()
	h.Session(w, httptest.NewRequest(http.MethodGet, "/api/admin/session", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}
