package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/portfolio/internal/metrics"
	"github.com/hitoshi/portfolio/internal/middleware"
	"github.com/hitoshi/portfolio/internal/model"
)

// ProjectServiceInterface はプロジェクトハンドラーが必要とするサービスインターフェース。
type ProjectServiceInterface interface {
	ListPublic(ctx context.Context) ([]*model.Project, error)
	ListForAdmin(ctx context.Context, identity *model.AdminIdentity) ([]*model.Project, error)
	Create(ctx context.Context, identity *model.AdminIdentity, input model.ProjectInput) (*model.Project, error)
	Update(ctx context.Context, identity *model.AdminIdentity, id string, input model.ProjectInput) (*model.Project, error)
	Delete(ctx context.Context, identity *model.AdminIdentity, id string) error
}

// ProjectHandler はプロジェクトの公開一覧と管理APIのHTTPハンドラー。
type ProjectHandler struct {
	service ProjectServiceInterface
	metrics metrics.MetricsCollector
}

// NewProjectHandler はProjectHandlerを生成する。
func NewProjectHandler(service ProjectServiceInterface, mc metrics.MetricsCollector) *ProjectHandler {
	if mc == nil {
		mc = metrics.NopCollector{}
	}
	return &ProjectHandler{service: service, metrics: mc}
}

type projectListResponse struct {
	Projects []*model.Project `json:"projects"`
}

type projectResponse struct {
	Project *model.Project `json:"project"`
}

// ListPublic は公開用のプロジェクト一覧を配列で返す。
// GET /api/projects
func (h *ProjectHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	projects, err := h.service.ListPublic(r.Context())
	if err != nil {
		slog.Error("failed to fetch projects", slog.String("error", err.Error()))
		middleware.WriteErrorResponse(w, &model.APIError{
			Status:  http.StatusInternalServerError,
			Code:    model.ErrCodeInternal,
			Message: "Failed to fetch projects",
		})
		return
	}
	middleware.WriteJSON(w, http.StatusOK, nonNilProjects(projects))
}

// ListForAdmin は管理画面用のプロジェクト一覧を返す。
// GET /api/admin/projects
func (h *ProjectHandler) ListForAdmin(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.AdminFromContext(r.Context())

	projects, err := h.service.ListForAdmin(r.Context(), identity)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, projectListResponse{Projects: nonNilProjects(projects)})
}

// Create はプロジェクトを作成する。
// POST /api/admin/projects
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.AdminFromContext(r.Context())

	var input model.ProjectInput
	if verr := decodeJSON(w, r, &input); verr != nil {
		handleServiceError(w, r, verr)
		return
	}

	project, err := h.service.Create(r.Context(), identity, input)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.metrics.RecordProjectMutation(metrics.OpCreate)
	middleware.WriteJSON(w, http.StatusCreated, projectResponse{Project: project})
}

// Update はプロジェクトの可変フィールドを置き換える。
// PUT /api/admin/projects/{id}
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.AdminFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var input model.ProjectInput
	if verr := decodeJSON(w, r, &input); verr != nil {
		handleServiceError(w, r, verr)
		return
	}

	project, err := h.service.Update(r.Context(), identity, id, input)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.metrics.RecordProjectMutation(metrics.OpUpdate)
	middleware.WriteJSON(w, http.StatusOK, projectResponse{Project: project})
}

// Delete はプロジェクトを削除する。成功時は204を返す。
// DELETE /api/admin/projects/{id}
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.AdminFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), identity, id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.metrics.RecordProjectMutation(metrics.OpDelete)
	w.WriteHeader(http.StatusNoContent)
}

// nonNilProjects は空の一覧をnullではなく[]としてエンコードするためにnilを置き換える。
func nonNilProjects(projects []*model.Project) []*model.Project {
	if projects == nil {
		return []*model.Project{}
	}
	return projects
}
