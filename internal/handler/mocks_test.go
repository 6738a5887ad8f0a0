package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/portfolio/internal/auth"
	"github.com/hitoshi/portfolio/internal/contact"
	"github.com/hitoshi/portfolio/internal/middleware"
	"github.com/hitoshi/portfolio/internal/model"
)

// --- モック定義 ---

// mockAuthService はAuthServiceInterfaceのモック実装。
type mockAuthService struct {
	loginFn    func(ctx context.Context, email, password string) (*model.AdminIdentity, *auth.SessionToken, error)
	validateFn func(ctx context.Context, token string) *model.AdminIdentity
	revokeFn   func(ctx context.Context, token string) error
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*model.AdminIdentity, *auth.SessionToken, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return nil, nil, model.ErrInvalidCredentials
}

func (m *mockAuthService) ValidateSession(ctx context.Context, token string) *model.AdminIdentity {
	if m.validateFn != nil {
		return m.validateFn(ctx, token)
	}
	return nil
}

func (m *mockAuthService) RevokeSession(ctx context.Context, token string) error {
	if m.revokeFn != nil {
		return m.revokeFn(ctx, token)
	}
	return nil
}

// mockProjectService はProjectServiceInterfaceのモック実装。
type mockProjectService struct {
	listPublicFn   func(ctx context.Context) ([]*model.Project, error)
	listForAdminFn func(ctx context.Context, identity *model.AdminIdentity) ([]*model.Project, error)
	createFn       func(ctx context.Context, identity *model.AdminIdentity, input model.ProjectInput) (*model.Project, error)
	updateFn       func(ctx context.Context, identity *model.AdminIdentity, id string, input model.ProjectInput) (*model.Project, error)
	deleteFn       func(ctx context.Context, identity *model.AdminIdentity, id string) error
}

func (m *mockProjectService) ListPublic(ctx context.Context) ([]*model.Project, error) {
	if m.listPublicFn != nil {
		return m.listPublicFn(ctx)
	}
	return nil, nil
}

func (m *mockProjectService) ListForAdmin(ctx context.Context, identity *model.AdminIdentity) ([]*model.Project, error) {
	if m.listForAdminFn != nil {
		return m.listForAdminFn(ctx, identity)
	}
	return nil, nil
}

func (m *mockProjectService) Create(ctx context.Context, identity *model.AdminIdentity, input model.ProjectInput) (*model.Project, error) {
	if m.createFn != nil {
		return m.createFn(ctx, identity, input)
	}
	return nil, nil
}

func (m *mockProjectService) Update(ctx context.Context, identity *model.AdminIdentity, id string, input model.ProjectInput) (*model.Project, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, identity, id, input)
	}
	return nil, nil
}

func (m *mockProjectService) Delete(ctx context.Context, identity *model.AdminIdentity, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, identity, id)
	}
	return nil
}

// mockContactService はContactServiceInterfaceのモック実装。
type mockContactService struct {
	submitFn func(ctx context.Context, msg contact.Message) error
}

func (m *mockContactService) Submit(ctx context.Context, msg contact.Message) error {
	if m.submitFn != nil {
		return m.submitFn(ctx, msg)
	}
	return nil
}

// fakeMetrics は記録内容を保持するMetricsCollector。
type fakeMetrics struct {
	logins    []string
	mutations []string
	contacts  []string
}

func (f *fakeMetrics) RecordHTTPRequest(string, int, time.Duration) {}
func (f *fakeMetrics) RecordLoginAttempt(result string)           { f.logins = append(f.logins, result) }
func (f *fakeMetrics) RecordProjectMutation(op string)            { f.mutations = append(f.mutations, op) }
func (f *fakeMetrics) RecordContactMessage(result string)         { f.contacts = append(f.contacts, result) }

// --- テストヘルパー ---

var testIdentity = &model.AdminIdentity{ID: "admin-1", Email: "admin@example.com", Name: "Admin"}

// withAdmin はテスト用にリクエストコンテキストに管理者を注入するヘルパー。
func withAdmin(r *http.Request) *http.Request {
	return r.WithContext(middleware.ContextWithAdmin(r.Context(), testIdentity))
}

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

// jsonRequest はJSONボディ付きのリクエストを生成する。
func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatalf("failed to encode body: %v", err)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// decodeBody はレスポンスボディをmapにデコードする。
func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var result map[string]any
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v\nbody: %s", err, w.Body.String())
	}
	return result
}

// detailFields はエラーレスポンスのdetailsからフィールド名を取り出す。
// detailsが配列でない場合はテストを失敗させる。
func detailFields(t *testing.T, body map[string]any) []string {
	t.Helper()
	details, ok := body["details"].([]any)
	if !ok {
		t.Fatalf("details = %#v, want a list", body["details"])
	}
	fields := make([]string, 0, len(details))
	for _, d := range details {
		entry, _ := d.(map[string]any)
		field, _ := entry["field"].(string)
		fields = append(fields, field)
	}
	return fields
}

func sampleProject(id string) *model.Project {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return &model.Project{
		ID:          id,
		Title:       "Sample",
		Description: "desc",
		Content:     "content",
		ImageURL:    "https://example.com/a.png",
		Tags:        []string{"go"},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
