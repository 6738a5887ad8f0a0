// Package project はプロジェクト管理のドメインロジックを提供する。
package project

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/portfolio/internal/model"
	"github.com/hitoshi/portfolio/internal/repository"
)

// Service はプロジェクトの一覧・作成・更新・削除を提供する。
// 公開一覧以外の操作は認証済みの管理者identityを必要とする。
type Service struct {
	repo    repository.ProjectRepository
	nowFunc func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.ProjectRepository) *Service {
	return &Service{repo: repo, nowFunc: time.Now}
}

// ListPublic は公開用の一覧を返す。featured降順、作成日時の新しい順。
func (s *Service) ListPublic(ctx context.Context) ([]*model.Project, error) {
	projects, err := s.repo.List(ctx, model.ProjectOrderPublic)
	if err != nil {
		return nil, fmt.Errorf("プロジェクト一覧の取得に失敗しました: %w", err)
	}
	return projects, nil
}

// ListForAdmin は管理画面用の一覧を作成日時の新しい順で返す。
func (s *Service) ListForAdmin(ctx context.Context, identity *model.AdminIdentity) ([]*model.Project, error) {
	if !authorized(identity) {
		return nil, model.ErrUnauthorized
	}

	projects, err := s.repo.List(ctx, model.ProjectOrderNewest)
	if err != nil {
		return nil, fmt.Errorf("プロジェクト一覧の取得に失敗しました: %w", err)
	}
	return projects, nil
}

// Create は入力を検証してプロジェクトを作成する。
func (s *Service) Create(ctx context.Context, identity *model.AdminIdentity, input model.ProjectInput) (*model.Project, error) {
	if !authorized(identity) {
		return nil, model.ErrUnauthorized
	}

	valid, err := Validate(input)
	if err != nil {
		return nil, err
	}

	now := s.now()
	project := &model.Project{
		ID:        uuid.New().String(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	apply(project, valid)

	if err := s.repo.Insert(ctx, project); err != nil {
		return nil, fmt.Errorf("プロジェクトの作成に失敗しました: %w", err)
	}
	return project, nil
}

// Update は既存プロジェクトの可変フィールドをすべて置き換える。
// 存在確認を検証より先に行うため、存在しないIDには入力内容に関わらずmodel.ErrNotFoundを返す。
func (s *Service) Update(ctx context.Context, identity *model.AdminIdentity, id string, input model.ProjectInput) (*model.Project, error) {
	if !authorized(identity) {
		return nil, model.ErrUnauthorized
	}

	existing, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	valid, err := Validate(input)
	if err != nil {
		return nil, err
	}

	updated := &model.Project{
		ID:        existing.ID,
		CreatedAt: existing.CreatedAt,
		UpdatedAt: s.now(),
	}
	apply(updated, valid)

	if err := s.repo.Replace(ctx, updated); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("プロジェクトの更新に失敗しました: %w", err)
	}
	return updated, nil
}

// Delete はプロジェクトを削除する。存在しないIDにはmodel.ErrNotFoundを返す。
func (s *Service) Delete(ctx context.Context, identity *model.AdminIdentity, id string) error {
	if !authorized(identity) {
		return model.ErrUnauthorized
	}
	if _, err := uuid.Parse(id); err != nil {
		return model.ErrNotFound
	}

	if err := s.repo.Remove(ctx, id); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrNotFound
		}
		return fmt.Errorf("プロジェクトの削除に失敗しました: %w", err)
	}
	return nil
}

func (s *Service) find(ctx context.Context, id string) (*model.Project, error) {
	// UUID形式でないIDはDBに問い合わせず未検出として扱う
	if _, err := uuid.Parse(id); err != nil {
		return nil, model.ErrNotFound
	}

	project, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("プロジェクトの取得に失敗しました: %w", err)
	}
	if project == nil {
		return nil, model.ErrNotFound
	}
	return project, nil
}

// PostgreSQLのtimestamptzに合わせてマイクロ秒に丸める。
func (s *Service) now() time.Time {
	return s.nowFunc().UTC().Truncate(time.Microsecond)
}

func authorized(identity *model.AdminIdentity) bool {
	return identity != nil && identity.Valid()
}

func apply(p *model.Project, in model.ProjectInput) {
	p.Title = in.Title
	p.Description = in.Description
	p.Content = in.Content
	p.ImageURL = in.ImageURL
	p.DemoURL = in.DemoURL
	p.GithubURL = in.GithubURL
	p.Tags = in.Tags
	p.Featured = in.Featured
}
